package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	gin "github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mhndayesh/capital-trading-bot/internal/capital"
	"github.com/mhndayesh/capital-trading-bot/internal/relay"
	"github.com/mhndayesh/capital-trading-bot/internal/symbols"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokerDouble is a fake broker API that counts every request it sees, so
// tests can assert that rejected alerts never leave the process.
type brokerDouble struct {
	*httptest.Server
	calls      int64
	loginCalls int64
	orderCalls int64

	missingCST  bool
	orderStatus int
	orderBody   string
}

func newBrokerDouble(t *testing.T) *brokerDouble {
	t.Helper()
	b := &brokerDouble{orderStatus: http.StatusOK, orderBody: `{"dealReference":"d_42"}`}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&b.calls, 1)
		switch {
		case r.URL.Path == "/session":
			atomic.AddInt64(&b.loginCalls, 1)
			if !b.missingCST {
				w.Header().Set("CST", "cst")
			}
			w.Header().Set("X-SECURITY-TOKEN", "sec")
			w.Write([]byte(`{"currentAccountId":"acc"}`))
		case r.URL.Path == "/positions":
			atomic.AddInt64(&b.orderCalls, 1)
			w.WriteHeader(b.orderStatus)
			w.Write([]byte(b.orderBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.Server.Close)
	return b
}

func newWebhookServer(t *testing.T, broker *brokerDouble, secret string) *Server {
	t.Helper()
	logger := zap.NewNop()
	client := capital.NewClient(capital.Config{
		BaseURL:    broker.URL,
		APIKey:     "k",
		Identifier: "i",
		Password:   "p",
	}, logger)
	resolver := symbols.NewResolver(map[string]string{"XAUUSD": "GOLD-EPIC"}, nil, nil, logger)
	svc := relay.NewService(resolver, client, client, relay.OrderDefaults{}, nil, logger)
	return NewServer(svc, logger, secret, "*")
}

func post(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

func TestWebhookSuccess(t *testing.T) {
	broker := newBrokerDouble(t)
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"XAUUSD","action":"buy","size":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp struct {
		Status  string          `json:"status"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q", resp.Status)
	}
	if !strings.Contains(string(resp.Details), "d_42") {
		t.Errorf("broker payload not embedded: %s", resp.Details)
	}
	if broker.loginCalls != 1 || broker.orderCalls != 1 {
		t.Errorf("broker calls login=%d order=%d", broker.loginCalls, broker.orderCalls)
	}
}

func TestWebhookUnknownSymbol(t *testing.T) {
	broker := newBrokerDouble(t)
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"UNKNOWN","action":"buy"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "symbol not found") {
		t.Errorf("body = %s", w.Body)
	}
	if broker.calls != 0 {
		t.Errorf("unresolved symbol must make zero broker calls, got %d", broker.calls)
	}
}

func TestWebhookInvalidAction(t *testing.T) {
	broker := newBrokerDouble(t)
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"XAUUSD","action":"sideways"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid action") {
		t.Errorf("body = %s", w.Body)
	}
	if broker.calls != 0 {
		t.Errorf("invalid action must make zero broker calls, got %d", broker.calls)
	}
}

func TestWebhookLoginMissingCST(t *testing.T) {
	broker := newBrokerDouble(t)
	broker.missingCST = true
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"XAUUSD","action":"buy"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if broker.orderCalls != 0 {
		t.Error("order submission attempted despite missing session token")
	}
}

func TestWebhookOrderRejectedVerbatim(t *testing.T) {
	broker := newBrokerDouble(t)
	broker.orderStatus = http.StatusBadRequest
	broker.orderBody = `{"errorCode":"error.market.market-closed"}`
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"XAUUSD","action":"buy"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "order_rejected" {
		t.Errorf("code = %q", resp.Code)
	}
	if string(resp.Details) != broker.orderBody {
		t.Errorf("broker error not verbatim: %s", resp.Details)
	}
}

func TestWebhookSecret(t *testing.T) {
	broker := newBrokerDouble(t)
	s := newWebhookServer(t, broker, "s3cret")

	w := post(t, s, `{"symbol":"XAUUSD","action":"buy","secret_key":"wrong"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
	if broker.calls != 0 {
		t.Error("secret mismatch must make zero broker calls")
	}

	w = post(t, s, `{"symbol":"XAUUSD","action":"buy","secret_key":"s3cret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status with valid secret = %d, body = %s", w.Code, w.Body)
	}
}

func TestSecretEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"s3cret", "s3cret", true},
		{"s3cret", "s3creT", false},
		{"s3cret", "wrong", false}, // differing lengths
		{"s3cret", "s3cret-and-more", false},
		{"", "", true},
	}
	for _, c := range cases {
		if got := secretEqual(c.a, c.b); got != c.want {
			t.Errorf("secretEqual(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestWebhookUnparsableSize(t *testing.T) {
	broker := newBrokerDouble(t)
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"XAUUSD","action":"buy","size":"plenty"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if broker.calls != 0 {
		t.Error("unparsable size must make zero broker calls")
	}
}

func TestWebhookSizeAsNumericString(t *testing.T) {
	broker := newBrokerDouble(t)
	s := newWebhookServer(t, broker, "")

	w := post(t, s, `{"symbol":"XAUUSD","side":"sell","size":"0.5"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestHealth(t *testing.T) {
	s := newWebhookServer(t, newBrokerDouble(t), "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
