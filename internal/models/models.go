package models

import "time"

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order types. Only market orders are executable in this MVP; the rest are
// recognised so they reject cleanly instead of failing validation.
const (
	OrderTypeMarket    = "market"
	OrderTypeLimit     = "limit"
	OrderTypeStop      = "stop"
	OrderTypeStopLimit = "stop_limit"
)

// Terminal order statuses. An order never changes once one is assigned.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Order is the record of a submitted order with its terminal status.
type Order struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"user_id" json:"userId"`
	Symbol      string    `bson:"symbol" json:"symbol"`
	Side        string    `bson:"side" json:"side"`
	Quantity    int64     `bson:"quantity" json:"quantity"`
	OrderType   string    `bson:"order_type" json:"order_type"`
	Status      string    `bson:"status" json:"status"`
	Reason      string    `bson:"reason,omitempty" json:"reason,omitempty"`
	Price       float64   `bson:"price,omitempty" json:"price,omitempty"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submittedAt"`
}

// Fill is the executed counterpart of an accepted market order.
type Fill struct {
	OrderID    string    `bson:"order_id" json:"orderId"`
	Symbol     string    `bson:"symbol" json:"symbol"`
	Side       string    `bson:"side" json:"side"`
	Quantity   int64     `bson:"quantity" json:"quantity"`
	Price      float64   `bson:"price" json:"price"`
	ExecutedAt time.Time `bson:"executed_at" json:"executedAt"`
}

// SignedQuantity returns the fill quantity with buy positive and sell negative.
func (f Fill) SignedQuantity() int64 {
	if f.Side == SideSell {
		return -f.Quantity
	}
	return f.Quantity
}

// Position is a user's net holding in a symbol. Quantity is the running sum
// of signed fill quantities; AveragePrice is the volume-weighted average
// entry price of the open net quantity.
type Position struct {
	UserID       string  `bson:"user_id" json:"userId"`
	Symbol       string  `bson:"symbol" json:"symbol"`
	Quantity     int64   `bson:"quantity" json:"quantity"`
	AveragePrice float64 `bson:"average_price" json:"averagePrice"`
}

// Quote is a point-in-time price for a symbol with a short close-price
// sparkline for display.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Sparkline []float64 `json:"sparkline"`
	Timestamp time.Time `json:"timestamp"`
}

// IndicatorSnapshot carries the computed indicator values for a symbol. All
// four keys are always present in the JSON output; a nil field marshals to
// null when the price history is too short for that indicator.
type IndicatorSnapshot struct {
	Symbol     string   `json:"symbol"`
	RSI        *float64 `json:"rsi"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_hist"`
}

// Recommendation values.
const (
	RecommendBuy  = "buy"
	RecommendSell = "sell"
	RecommendHold = "hold"
)

// Recommendation is a derived trade signal for a symbol. It is computed on
// demand and never stored.
type Recommendation struct {
	Symbol         string `json:"symbol"`
	Recommendation string `json:"recommendation"`
}
