package domain

import "strings"

// Direction is the closed set of order directions the broker accepts.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

func (d Direction) String() string { return string(d) }
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// ParseDirection accepts "buy"/"sell" in any case from alert payloads.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return DirectionBuy, true
	case "SELL":
		return DirectionSell, true
	default:
		return "", false
	}
}

// OrderType: the relay only places market orders.
type OrderType string

const OrderTypeMarket OrderType = "MARKET"

func (t OrderType) String() string { return string(t) }
