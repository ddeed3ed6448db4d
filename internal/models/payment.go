package models

import "time"

const (
	PaymentProviderRazorpay = "RAZORPAY"
	PaymentSucceeded        = "SUCCEEDED"
)

type Payment struct {
	ID          int64           `json:"id"`
	Provider    string          `json:"provider"`
	ProviderID  string          `json:"providerId"`
	UserID      int64           `json:"userId"`
	AmountCents int64           `json:"amountCents"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Metadata    PaymentMetadata `json:"metadata"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type PaymentMetadata struct {
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}
