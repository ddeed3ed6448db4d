// Package payments adapts the Razorpay gateway to the booking workflow.
package payments

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrGateway = errors.New("payment gateway error")

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// PaymentRecord is the gateway's view of a single payment attempt.
type PaymentRecord struct {
	ID       string
	OrderID  string
	Status   string
	Amount   int64
	Currency string
}

// Captured reports whether the gateway considers the payment settled or
// authorized for capture.
func (p *PaymentRecord) Captured() bool {
	return p != nil && (p.Status == "captured" || p.Status == "authorized")
}

type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %v", ErrGateway, err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: create order: response has no id", ErrGateway)
	}
	return &Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payment: %v", ErrGateway, err)
	}
	return paymentFromResponse(body), nil
}

func paymentFromResponse(body map[string]interface{}) *PaymentRecord {
	record := &PaymentRecord{}
	record.ID, _ = body["id"].(string)
	record.OrderID, _ = body["order_id"].(string)
	record.Status, _ = body["status"].(string)
	record.Currency, _ = body["currency"].(string)
	switch amount := body["amount"].(type) {
	case float64:
		record.Amount = int64(amount)
	case int64:
		record.Amount = amount
	case int:
		record.Amount = int64(amount)
	}
	return record
}
