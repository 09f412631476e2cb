// Package capital is the HTTP client for the broker's REST API: session
// login, market order submission, and instrument search.
package capital

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mhndayesh/capital-trading-bot/internal/models"
)

const (
	headerAPIKey        = "X-CAP-API-KEY"
	headerCST           = "CST"
	headerSecurityToken = "X-SECURITY-TOKEN"

	loginTimeout  = 10 * time.Second
	orderTimeout  = 15 * time.Second
	searchTimeout = 10 * time.Second

	// Upper bound on how much of a non-JSON broker error we echo back.
	errorTextLimit = 512
	maxBodyBytes   = 1 << 20
)

type Config struct {
	BaseURL    string
	APIKey     string
	Identifier string
	Password   string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	identifier string
	password   string
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		// Per-call deadlines come from contexts; this is the outer bound.
		httpClient: &http.Client{Timeout: orderTimeout + 5*time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		identifier: cfg.Identifier,
		password:   cfg.Password,
		logger:     logger,
	}
}

// Login exchanges the configured credentials for a session token pair.
// The broker delivers both tokens as response HEADERS, and can answer 200
// without them, so presence is checked explicitly.
func (c *Client) Login(ctx context.Context) (models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"identifier": c.identifier,
		"password":   c.password,
	})
	if err != nil {
		return models.Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return models.Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Session{}, fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Session{}, fmt.Errorf("session response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Session{}, &AuthError{Status: resp.StatusCode, Reason: truncate(string(data), errorTextLimit)}
	}

	sess := models.Session{
		CST:           resp.Header.Get(headerCST),
		SecurityToken: resp.Header.Get(headerSecurityToken),
	}
	if sess.CST == "" || sess.SecurityToken == "" {
		// 200 with tokens absent still happens; never proceed to an order.
		c.logger.Warn("session tokens missing from login response",
			zap.Bool("has_cst", sess.CST != ""),
			zap.Bool("has_security_token", sess.SecurityToken != ""),
			zap.Int("status", resp.StatusCode),
		)
		return models.Session{}, &AuthError{Status: resp.StatusCode, Reason: "login succeeded but session tokens missing"}
	}

	var sessBody struct {
		CurrentAccountID string `json:"currentAccountId"`
	}
	if err := json.Unmarshal(data, &sessBody); err == nil {
		sess.AccountID = sessBody.CurrentAccountID
	}
	return sess, nil
}

// PlaceOrder submits a market order under the given session and returns the
// broker's confirmation body unmodified.
func (c *Client) PlaceOrder(ctx context.Context, sess models.Session, order models.OrderRequest) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, orderTimeout)
	defer cancel()

	body, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/positions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerCST, sess.CST)
	req.Header.Set(headerSecurityToken, sess.SecurityToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rej := &RejectedError{Status: resp.StatusCode}
		if json.Valid(data) {
			rej.Body = json.RawMessage(data)
		} else {
			rej.Text = truncate(string(data), errorTextLimit)
		}
		c.logger.Warn("order rejected by broker",
			zap.Int("status", resp.StatusCode),
			zap.String("epic", order.Epic),
			zap.String("direction", order.Direction.String()),
		)
		return nil, rej
	}
	return json.RawMessage(data), nil
}

// SearchMarkets queries the broker's instrument search with the ticker as a
// search term. Used only by the symbol-resolution fallback.
func (c *Client) SearchMarkets(ctx context.Context, term string) ([]models.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("searchTerm", term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/markets?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market search: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("market search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("market search: status %d: %s", resp.StatusCode, truncate(string(data), errorTextLimit))
	}

	var out struct {
		Markets []models.Market `json:"markets"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode market search: %w", err)
	}
	return out.Markets, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
