package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Epsilon is the tolerance when comparing the claimed order value against
// the sum of item subtotals.
const Epsilon = 0.01

// ErrMalformedPayload marks a message body that cannot be turned into a
// valid Order. Such messages are dropped, never retried.
var ErrMalformedPayload = errors.New("malformed order payload")

// Order is the message payload from SQS for one purchase event
type Order struct {
	OrderID        string  `json:"order_id"`
	UserID         string  `json:"user_id"`
	OrderTimestamp string  `json:"order_timestamp"` // ISO-8601
	OrderValue     float64 `json:"order_value"`
	Items          []Item  `json:"items"`

	// Set when the claimed order_value disagreed with the item math and
	// was overridden with the computed sum.
	Corrected    bool    `json:"-"`
	ClaimedValue float64 `json:"-"`
}

// Item is one order line, owned by its Order
type Item struct {
	ProductID    string  `json:"product_id"`
	Quantity     int64   `json:"quantity"`
	PricePerUnit float64 `json:"price_per_unit"`
}

func (i Item) Subtotal() float64 {
	return float64(i.Quantity) * i.PricePerUnit
}

// Month returns the "YYYY-MM" bucket of the order timestamp.
func (o *Order) Month() string {
	return o.OrderTimestamp[:7]
}

// ComputedTotal is the sum of item subtotals, the ground truth for the
// order value.
func (o *Order) ComputedTotal() float64 {
	total := 0.0
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}

// unwrapBody undoes the transport quirk of a double-encoded body (a JSON
// string containing JSON). At most one unwrap is applied.
func unwrapBody(body []byte) ([]byte, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var unwrapped string
		if err := json.Unmarshal(raw, &unwrapped); err != nil {
			return nil, fmt.Errorf("%w: unwrapping quoted body: %v", ErrMalformedPayload, err)
		}
		raw = []byte(unwrapped)
	}
	return raw, nil
}

// PeekOrderID extracts the order identifier without full validation, so the
// idempotency check can run before any other work.
func PeekOrderID(body []byte) (string, error) {
	raw, err := unwrapBody(body)
	if err != nil {
		return "", err
	}

	var envelope struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope.OrderID == "" {
		return "", fmt.Errorf("%w: missing order_id", ErrMalformedPayload)
	}
	return envelope.OrderID, nil
}

// ParseOrder decodes a raw message body into a validated Order.
//
// A claimed order_value that disagrees with the item math beyond Epsilon is
// overridden with the computed sum and flagged via Corrected; this never
// fails the parse. Structural problems return ErrMalformedPayload.
func ParseOrder(body []byte) (*Order, error) {
	raw, err := unwrapBody(body)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := order.validate(); err != nil {
		return nil, err
	}

	computed := order.ComputedTotal()
	if math.Abs(computed-order.OrderValue) > Epsilon {
		order.Corrected = true
		order.ClaimedValue = order.OrderValue
		order.OrderValue = computed
	}
	return &order, nil
}

func (o *Order) validate() error {
	if o.OrderID == "" {
		return fmt.Errorf("%w: missing order_id", ErrMalformedPayload)
	}
	if o.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrMalformedPayload)
	}
	if len(o.OrderTimestamp) < 7 {
		return fmt.Errorf("%w: missing or truncated order_timestamp", ErrMalformedPayload)
	}
	if o.Items == nil {
		return fmt.Errorf("%w: missing items", ErrMalformedPayload)
	}
	for i, it := range o.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: items[%d]: missing product_id", ErrMalformedPayload, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d]: quantity must be positive", ErrMalformedPayload, i)
		}
		if it.PricePerUnit < 0 {
			return fmt.Errorf("%w: items[%d]: negative price_per_unit", ErrMalformedPayload, i)
		}
	}
	return nil
}
