// Package relay runs the order pipeline: symbol resolution, size
// resolution, session login, order submission. Each inbound alert is an
// independent unit of work; nothing is shared between requests beyond the
// read-only instrument table and credentials.
package relay

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/mhndayesh/capital-trading-bot/internal/capital"
	"github.com/mhndayesh/capital-trading-bot/internal/domain"
	"github.com/mhndayesh/capital-trading-bot/internal/events"
	"github.com/mhndayesh/capital-trading-bot/internal/metrics"
	"github.com/mhndayesh/capital-trading-bot/internal/models"
	"github.com/mhndayesh/capital-trading-bot/internal/sizing"
	"github.com/mhndayesh/capital-trading-bot/internal/symbols"
)

// Authenticator exchanges configured credentials for a fresh token pair.
// Every order re-authenticates; keeping this an interface lets a caching
// strategy replace it later without touching submission.
type Authenticator interface {
	Login(ctx context.Context) (models.Session, error)
}

// OrderPlacer submits one market order under a session.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, sess models.Session, order models.OrderRequest) (json.RawMessage, error)
}

// SymbolResolver maps a ticker to an epic or reports symbols.ErrNotFound.
type SymbolResolver interface {
	Resolve(ctx context.Context, ticker string) (string, error)
}

// OrderDefaults are the account-level execution flags applied to every
// relayed order; alerts cannot override them.
type OrderDefaults struct {
	GuaranteedStop bool
	TimeInForce    string
}

type Service struct {
	resolver SymbolResolver
	auth     Authenticator
	orders   OrderPlacer
	defaults OrderDefaults
	pub      *events.Publisher
	logger   *zap.Logger
}

func NewService(resolver SymbolResolver, auth Authenticator, orders OrderPlacer, defaults OrderDefaults, pub *events.Publisher, logger *zap.Logger) *Service {
	return &Service{resolver: resolver, auth: auth, orders: orders, defaults: defaults, pub: pub, logger: logger}
}

// Relay processes one alert end to end and returns the broker's
// confirmation payload. All failures are *Error values; none are retried.
func (s *Service) Relay(ctx context.Context, alert models.TradeAlert) (json.RawMessage, error) {
	// Local validation first: nothing leaves the process for a bad alert.
	direction, ok := domain.ParseDirection(alert.DirectionField())
	if !ok {
		return nil, s.fail(alert, "", newError(KindBadRequest, "invalid action: use buy or sell", nil))
	}
	if alert.Symbol == "" {
		return nil, s.fail(alert, direction.String(), newError(KindBadRequest, "missing symbol", nil))
	}
	if alert.Size != nil && !alert.Size.IsPositive() {
		return nil, s.fail(alert, direction.String(), newError(KindBadRequest, "size must be positive", nil))
	}

	epic, err := s.resolver.Resolve(ctx, alert.Symbol)
	if err != nil {
		if errors.Is(err, symbols.ErrNotFound) {
			return nil, s.fail(alert, direction.String(), newError(KindSymbolNotFound, "symbol not found: "+alert.Symbol, err))
		}
		return nil, s.fail(alert, direction.String(), newError(KindTransport, "symbol search failed", err))
	}

	size := sizing.Resolve(alert.Size, alert.Symbol)

	sess, err := s.auth.Login(ctx)
	if err != nil {
		// Credential rejection, missing tokens, and login transport errors
		// all land here; the caller cannot tell them apart, the logs can.
		s.logger.Error("broker authentication failed", zap.Error(err))
		return nil, s.fail(alert, direction.String(), newError(KindAuthFailed, "broker authentication failed", err))
	}

	order := models.OrderRequest{
		Epic:           epic,
		Direction:      direction,
		Size:           size,
		OrderType:      domain.OrderTypeMarket,
		CurrencyCode:   alert.Currency,
		ForceOpen:      true,
		GuaranteedStop: s.defaults.GuaranteedStop,
		TimeInForce:    s.defaults.TimeInForce,
		DealReference:  alert.DealReference,
	}
	payload, err := s.orders.PlaceOrder(ctx, sess, order)
	if err != nil {
		var rej *capital.RejectedError
		if errors.As(err, &rej) {
			e := newError(KindOrderRejected, "broker rejected order", err)
			e.Detail = rej.Detail()
			return nil, s.fail(alert, direction.String(), e)
		}
		return nil, s.fail(alert, direction.String(), newError(KindTransport, "order submission failed", err))
	}

	s.logger.Info("order relayed",
		zap.String("symbol", alert.Symbol),
		zap.String("epic", epic),
		zap.String("direction", direction.String()),
		zap.String("size", size.String()),
	)
	metrics.Orders.WithLabelValues("ok", direction.String()).Inc()
	s.pub.Publish(events.OrderEvent{
		Symbol:    alert.Symbol,
		Epic:      epic,
		Direction: direction.String(),
		Size:      size.String(),
		Outcome:   "ok",
	})
	return payload, nil
}

func (s *Service) fail(alert models.TradeAlert, direction string, e *Error) *Error {
	metrics.Orders.WithLabelValues(string(e.Kind), direction).Inc()
	s.pub.Publish(events.OrderEvent{
		Symbol:    alert.Symbol,
		Direction: direction,
		Outcome:   string(e.Kind),
	})
	return e
}
