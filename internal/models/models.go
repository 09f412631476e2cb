package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/mhndayesh/capital-trading-bot/internal/domain"
)

// TradeAlert is the JSON schema the webhook expects. Alerting tools are
// inconsistent about the direction field, so both "action" and "side" are
// accepted; size may arrive as a number or a numeric string.
type TradeAlert struct {
	Symbol        string           `json:"symbol"`
	Action        string           `json:"action,omitempty"`
	Side          string           `json:"side,omitempty"`
	Size          *decimal.Decimal `json:"size,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	DealReference string           `json:"deal_reference,omitempty"`
	SecretKey     string           `json:"secret_key,omitempty"`
}

// DirectionField returns whichever of action/side the alert carried.
func (a TradeAlert) DirectionField() string {
	if a.Action != "" {
		return a.Action
	}
	return a.Side
}

// Session is the short-lived token pair returned by the broker's login
// endpoint, plus the account id when the body delivers one.
type Session struct {
	CST           string
	SecurityToken string
	AccountID     string
}

// OrderRequest is the broker-facing order body. Built fresh per alert.
type OrderRequest struct {
	Epic           string           `json:"epic"`
	Direction      domain.Direction `json:"direction"`
	Size           decimal.Decimal  `json:"size"`
	OrderType      domain.OrderType `json:"orderType"`
	CurrencyCode   string           `json:"currencyCode,omitempty"`
	ForceOpen      bool             `json:"forceOpen,omitempty"`
	GuaranteedStop bool             `json:"guaranteedStop,omitempty"`
	TimeInForce    string           `json:"timeInForce,omitempty"`
	DealReference  string           `json:"dealReference,omitempty"`
}

// MarshalJSON sends size as a JSON number: decimal.Decimal quotes it by
// default and the broker's schema types size numerically.
func (o OrderRequest) MarshalJSON() ([]byte, error) {
	type alias OrderRequest
	return json.Marshal(struct {
		alias
		Size json.Number `json:"size"`
	}{alias: alias(o), Size: json.Number(o.Size.String())})
}

// Market is one candidate from the broker's instrument search.
type Market struct {
	Epic           string `json:"epic"`
	InstrumentName string `json:"instrumentName"`
	InstrumentType string `json:"instrumentType"`
	Expiry         string `json:"expiry"`
}
