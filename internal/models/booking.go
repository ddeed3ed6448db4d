package models

import "time"

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
)

type Booking struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	ClassID     int64     `json:"classId"`
	Status      string    `json:"status"`
	PaymentID   *int64    `json:"paymentId"`
	OrderID     *string   `json:"orderId,omitempty"`
	AmountCents *int64    `json:"amountCents,omitempty"`
	Currency    *string   `json:"currency,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type BookingDetail struct {
	Booking
	YogaClass *YogaClass `json:"yogaClass,omitempty"`
	Payment   *Payment   `json:"payment,omitempty"`
}

// BookingOrder is one gateway order opened for a booking. A booking keeps
// every order it was issued so a checkout started earlier can still be paid.
type BookingOrder struct {
	OrderID     string    `json:"orderId"`
	BookingID   int64     `json:"bookingId"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OrderHandle is what the client needs to open the gateway checkout.
type OrderHandle struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type VerifyResult struct {
	Success   bool  `json:"success"`
	PaymentID int64 `json:"paymentId"`
}
