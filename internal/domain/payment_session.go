package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSession describes one checkout attempt.
type PaymentSession struct {
	GatewayEnabled bool            `json:"gateway_enabled"`
	Status         PaymentStatus   `json:"status"`
	OrderID        string          `json:"order_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency,omitempty"`
	GatewayKey     string          `json:"gateway_key,omitempty"`
	PaymentID      string          `json:"payment_id,omitempty"`
	Message        string          `json:"message,omitempty"`
	StartedAt      time.Time       `json:"started_at,omitzero"`
	WidgetDeadline time.Time       `json:"widget_deadline,omitzero"`
}

// WidgetResult is what the payment widget hands back on client-perceived
// success. It is not proof of payment until the server verifies it.
type WidgetResult struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// Offer is what the checkout page can present to the shopper.
type Offer string

const (
	OfferGateway      Offer = "gateway"
	OfferPayAtCounter Offer = "pay_at_counter"
	OfferEmpty        Offer = "empty"
)

// CheckoutOutcome is emitted once per attempt that reaches a terminal state.
type CheckoutOutcome struct {
	SessionID string          `json:"session_id"`
	Status    PaymentStatus   `json:"status"`
	OrderID   string          `json:"order_id,omitempty"`
	PaymentID string          `json:"payment_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty"`
	Items     int             `json:"items"`
	Reason    string          `json:"reason,omitempty"`
	At        time.Time       `json:"at"`
}
