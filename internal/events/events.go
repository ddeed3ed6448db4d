// Package events carries domain events from the booking workflow to RabbitMQ
// and the live notification hub.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RKBookingCreated   = "booking.created"
	RKBookingConfirmed = "booking.confirmed"
	RKPaymentSucceeded = "payment.succeeded"
)

// ErrMalformed marks a message that can never be processed.
var ErrMalformed = errors.New("malformed event")

type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	UserID     int64           `json:"userId"`
	Data       json.RawMessage `json:"data"`
}

type BookingCreated struct {
	BookingID  int64     `json:"bookingId"`
	ClassID    int64     `json:"classId"`
	ClassTitle string    `json:"classTitle"`
	StartAt    time.Time `json:"startAt"`
}

type BookingConfirmed struct {
	BookingID int64 `json:"bookingId"`
	ClassID   int64 `json:"classId"`
	PaymentID int64 `json:"paymentId"`
}

type PaymentSucceeded struct {
	PaymentID   int64  `json:"paymentId"`
	BookingID   int64  `json:"bookingId"`
	ProviderID  string `json:"providerId"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

func New(eventType string, userID int64, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
		Data:       data,
	}, nil
}

func Decode(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env, nil
}

func Payload[T any](env Envelope) (T, error) {
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Type, err)
	}
	return v, nil
}

// Describe renders a human readable notification for an event. ok is false for
// event types this service does not know about.
func Describe(env Envelope) (title, message string, ok bool, err error) {
	switch env.Type {
	case RKBookingCreated:
		ev, err := Payload[BookingCreated](env)
		if err != nil {
			return "", "", false, err
		}
		return "Booking created",
			fmt.Sprintf("Booking %d for %q on %s is awaiting payment.", ev.BookingID, ev.ClassTitle, ev.StartAt.Format(time.RFC1123)),
			true, nil
	case RKBookingConfirmed:
		ev, err := Payload[BookingConfirmed](env)
		if err != nil {
			return "", "", false, err
		}
		return "Booking confirmed",
			fmt.Sprintf("Booking %d is confirmed (payment %d).", ev.BookingID, ev.PaymentID),
			true, nil
	case RKPaymentSucceeded:
		ev, err := Payload[PaymentSucceeded](env)
		if err != nil {
			return "", "", false, err
		}
		return "Payment received",
			fmt.Sprintf("Received %s for booking %d (ref %s).", FormatAmount(ev.AmountCents, ev.Currency), ev.BookingID, ev.ProviderID),
			true, nil
	default:
		return "", "", false, nil
	}
}

func FormatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, currency)
}
