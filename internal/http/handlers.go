package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mhndayesh/capital-trading-bot/internal/metrics"
	"github.com/mhndayesh/capital-trading-bot/internal/models"
	"github.com/mhndayesh/capital-trading-bot/internal/relay"
)

type Server struct {
	R             *gin.Engine
	Relay         *relay.Service
	Logger        *zap.Logger
	WebhookSecret string
}

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

type okResponse struct {
	Status  string          `json:"status"`
	Details json.RawMessage `json:"details,omitempty"`
}

// NewServer wires the router, relay service, and middleware.
func NewServer(svc *relay.Service, logger *zap.Logger, webhookSecret, corsOrigin string) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{
		R:             g,
		Relay:         svc,
		Logger:        logger,
		WebhookSecret: webhookSecret,
	}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))
	g.POST("/webhook", s.postWebhook)

	return s
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

// statusFor chooses the caller-facing status for a pipeline failure. The
// classification does no recovery; it only picks the code.
func statusFor(kind relay.Kind) int {
	switch kind {
	case relay.KindBadRequest, relay.KindSymbolNotFound:
		return http.StatusBadRequest
	case relay.KindAuthFailed:
		return http.StatusServiceUnavailable
	case relay.KindOrderRejected:
		return http.StatusBadGateway
	case relay.KindTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// secretEqual hashes both sides so the comparison neither leaks timing
// nor the configured secret's length.
func secretEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

// --- Handlers ---

func (s *Server) postWebhook(c *gin.Context) {
	start := time.Now()
	defer func() { metrics.RequestSeconds.Observe(time.Since(start).Seconds()) }()

	var alert models.TradeAlert
	if err := c.ShouldBindJSON(&alert); err != nil {
		// Covers an unparsable size too: a supplied size must be numeric.
		s.badRequest(c, "invalid alert body: "+err.Error())
		return
	}

	if s.WebhookSecret != "" && !secretEqual(alert.SecretKey, s.WebhookSecret) {
		s.Logger.Warn("webhook secret mismatch", zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusForbidden, apiError{Code: "forbidden", Message: "invalid secret key"})
		return
	}

	payload, err := s.Relay.Relay(c.Request.Context(), alert)
	if err != nil {
		var rerr *relay.Error
		if !errors.As(err, &rerr) {
			s.Logger.Error("internal_error", zap.Error(err))
			c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
			return
		}
		c.JSON(statusFor(rerr.Kind), apiError{
			Code:    string(rerr.Kind),
			Message: rerr.Message,
			Details: rerr.Detail,
		})
		return
	}

	c.JSON(http.StatusOK, okResponse{Status: "ok", Details: payload})
}
