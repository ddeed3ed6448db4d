package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
)

type CreatePaymentInput struct {
	Provider    string
	ProviderID  string
	UserID      int64
	AmountCents int64
	Currency    string
	Status      string
	Metadata    models.PaymentMetadata
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id, provider, provider_id, user_id, amount_cents, currency, status, metadata, created_at
`

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO payments (provider, provider_id, user_id, amount_cents, currency, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(ctx, query,
		input.Provider,
		input.ProviderID,
		input.UserID,
		input.AmountCents,
		input.Currency,
		input.Status,
		string(metadata),
	))
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`
	return scanPayment(r.db.QueryRow(ctx, query, id))
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.Provider,
		&payment.ProviderID,
		&payment.UserID,
		&payment.AmountCents,
		&payment.Currency,
		&payment.Status,
		&payment.Metadata,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// nullablePayment scans the LEFT JOINed payment columns of a booking listing.
type nullablePayment struct {
	ID          *int64
	Provider    *string
	ProviderID  *string
	UserID      *int64
	AmountCents *int64
	Currency    *string
	Status      *string
	Metadata    *models.PaymentMetadata
	CreatedAt   *time.Time
}

func (p nullablePayment) model() *models.Payment {
	if p.ID == nil {
		return nil
	}
	payment := &models.Payment{ID: *p.ID}
	if p.Provider != nil {
		payment.Provider = *p.Provider
	}
	if p.ProviderID != nil {
		payment.ProviderID = *p.ProviderID
	}
	if p.UserID != nil {
		payment.UserID = *p.UserID
	}
	if p.AmountCents != nil {
		payment.AmountCents = *p.AmountCents
	}
	if p.Currency != nil {
		payment.Currency = *p.Currency
	}
	if p.Status != nil {
		payment.Status = *p.Status
	}
	if p.Metadata != nil {
		payment.Metadata = *p.Metadata
	}
	if p.CreatedAt != nil {
		payment.CreatedAt = *p.CreatedAt
	}
	return payment
}
