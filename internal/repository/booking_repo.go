package repository

import (
	"context"
	"fmt"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
)

type AttachOrderInput struct {
	BookingID   int64
	OrderID     string
	AmountCents int64
	Currency    string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, class_id, status, payment_id, order_id, amount_cents, currency, created_at, updated_at
`

// LockUserClass serializes booking creation for one (user, class) pair until
// the surrounding transaction ends.
func (r *BookingRepository) LockUserClass(ctx context.Context, userID, classID int64) error {
	key := fmt.Sprintf("booking:%d:%d", userID, classID)
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return err
}

// Create inserts a PENDING booking. When an active booking already exists for
// the pair the insert is skipped and pgx.ErrNoRows is returned.
func (r *BookingRepository) Create(ctx context.Context, userID, classID int64) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (user_id, class_id, status)
		VALUES ($1, $2, 'PENDING')
		ON CONFLICT (user_id, class_id) WHERE status IN ('PENDING', 'CONFIRMED') DO NOTHING
		RETURNING ` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, userID, classID))
}

func (r *BookingRepository) FindActive(ctx context.Context, userID, classID int64) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND class_id = $2 AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY id DESC
		LIMIT 1
	`
	return scanBooking(r.db.QueryRow(ctx, query, userID, classID))
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`
	return scanBooking(r.db.QueryRow(ctx, query, id))
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`
	return scanBooking(r.db.QueryRow(ctx, query, id))
}

// ListByUserID returns the user's bookings newest first, each with its class
// and payment when present.
func (r *BookingRepository) ListByUserID(ctx context.Context, userID int64) ([]models.BookingDetail, error) {
	query := `
		SELECT
			b.id, b.user_id, b.class_id, b.status, b.payment_id, b.order_id, b.amount_cents, b.currency,
			b.created_at, b.updated_at,
			` + classColumns + `,
			p.id, p.provider, p.provider_id, p.user_id, p.amount_cents, p.currency, p.status, p.metadata, p.created_at
		FROM bookings b
		JOIN yoga_classes c ON c.id = b.class_id
		` + classJoins + `
		LEFT JOIN payments p ON p.id = b.payment_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.BookingDetail, 0)
	for rows.Next() {
		var detail models.BookingDetail
		var class models.YogaClass
		var trainer models.ClassTrainer
		var payment nullablePayment
		if err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.ClassID,
			&detail.Status,
			&detail.PaymentID,
			&detail.OrderID,
			&detail.AmountCents,
			&detail.Currency,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&class.ID,
			&class.Title,
			&class.Description,
			&class.StartAt,
			&class.EndAt,
			&class.Capacity,
			&class.PriceCents,
			&class.Location,
			&class.TrainerID,
			&class.CreatedAt,
			&class.UpdatedAt,
			&trainer.Name,
			&trainer.Email,
			&payment.ID,
			&payment.Provider,
			&payment.ProviderID,
			&payment.UserID,
			&payment.AmountCents,
			&payment.Currency,
			&payment.Status,
			&payment.Metadata,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		trainer.ID = class.TrainerID
		class.Trainer = &trainer
		detail.YogaClass = &class
		detail.Payment = payment.model()
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// AttachOrder records the gateway order on a booking that is still PENDING.
// The booking row keeps the latest order and booking_orders keeps all of them.
func (r *BookingRepository) AttachOrder(ctx context.Context, input AttachOrderInput) (*models.Booking, error) {
	query := `
		WITH updated AS (
			UPDATE bookings
			SET order_id = $2, amount_cents = $3, currency = $4, updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING ` + bookingColumns + `
		), recorded AS (
			INSERT INTO booking_orders (order_id, booking_id, amount_cents, currency)
			SELECT $2, id, $3, $4 FROM updated
		)
		SELECT ` + bookingColumns + ` FROM updated
	`
	return scanBooking(r.db.QueryRow(ctx, query, input.BookingID, input.OrderID, input.AmountCents, input.Currency))
}

// GetOrder returns an order previously issued for the booking.
func (r *BookingRepository) GetOrder(ctx context.Context, bookingID int64, orderID string) (*models.BookingOrder, error) {
	query := `
		SELECT order_id, booking_id, amount_cents, currency, created_at
		FROM booking_orders
		WHERE booking_id = $1 AND order_id = $2
	`
	var order models.BookingOrder
	err := r.db.QueryRow(ctx, query, bookingID, orderID).Scan(
		&order.OrderID,
		&order.BookingID,
		&order.AmountCents,
		&order.Currency,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ConfirmIfPending moves a PENDING booking to CONFIRMED and links the payment.
// pgx.ErrNoRows means the booking was no longer pending.
func (r *BookingRepository) ConfirmIfPending(ctx context.Context, bookingID, paymentID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'CONFIRMED', payment_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, paymentID))
}

func (r *BookingRepository) CountByClassAndStatus(ctx context.Context, classID int64, status string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND status = $2`, classID, status).
		Scan(&count)
	return count, err
}

func (r *BookingRepository) DeletePendingByClass(ctx context.Context, classID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE class_id = $1 AND status = 'PENDING'`, classID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ClassID,
		&booking.Status,
		&booking.PaymentID,
		&booking.OrderID,
		&booking.AmountCents,
		&booking.Currency,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
