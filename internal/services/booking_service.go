package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Gokul221/mindfulhaven-app/internal/events"
	"github.com/Gokul221/mindfulhaven-app/internal/metrics"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/payments"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
)

var tracer = otel.Tracer("github.com/Gokul221/mindfulhaven-app/internal/services")

type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*payments.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*payments.PaymentRecord, error)
}

type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type BookingConfig struct {
	Currency string
	// VerifyRemote re-fetches the payment from the gateway before confirming.
	VerifyRemote bool
}

type BookingService struct {
	stores   Stores
	tx       Transactor
	gateway  PaymentGateway
	verifier SignatureVerifier
	events   events.Publisher
	cfg      BookingConfig
}

func NewBookingService(
	stores Stores,
	tx Transactor,
	gateway PaymentGateway,
	verifier SignatureVerifier,
	publisher events.Publisher,
	cfg BookingConfig,
) *BookingService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &BookingService{
		stores:   stores,
		tx:       tx,
		gateway:  gateway,
		verifier: verifier,
		events:   publisher,
		cfg:      cfg,
	}
}

type VerifyPaymentInput struct {
	BookingID         int64
	OrderID           string
	ProviderPaymentID string
	Signature         string
}

// CreateBooking returns the caller's pending booking for the class, creating it
// when none exists. created reports whether a new row was inserted.
func (s *BookingService) CreateBooking(ctx context.Context, user *models.AuthenticatedUser, classID int64) (booking *models.Booking, created bool, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreateBooking", trace.WithAttributes(
		attribute.Int64("class.id", classID),
	))
	defer func() { endSpan(span, err) }()

	if user == nil {
		return nil, false, ErrUnauthorized
	}
	if classID <= 0 {
		return nil, false, invalidInput("Class ID is required")
	}

	var class *models.YogaClass
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Stores) error {
		var err error
		class, err = tx.Classes.GetByID(ctx, classID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrClassNotFound
			}
			return err
		}

		if err := tx.Bookings.LockUserClass(ctx, user.ID, classID); err != nil {
			return err
		}

		existing, err := tx.Bookings.FindActive(ctx, user.ID, classID)
		switch {
		case err == nil:
			if existing.Status == models.BookingConfirmed {
				return ErrAlreadyBooked
			}
			booking = existing
			return nil
		case !repository.IsNotFound(err):
			return err
		}

		booking, err = tx.Bookings.Create(ctx, user.ID, classID)
		if err == nil {
			created = true
			return nil
		}
		if !repository.IsNotFound(err) {
			return err
		}
		// Another request inserted the active booking first.
		existing, err = tx.Bookings.FindActive(ctx, user.ID, classID)
		if err != nil {
			return err
		}
		if existing.Status == models.BookingConfirmed {
			return ErrAlreadyBooked
		}
		booking = existing
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyBooked) {
			metrics.IncBooking("conflict")
		}
		return nil, false, err
	}

	if created {
		metrics.IncBooking("created")
		s.publish(ctx, events.RKBookingCreated, user.ID, events.BookingCreated{
			BookingID:  booking.ID,
			ClassID:    class.ID,
			ClassTitle: class.Title,
			StartAt:    class.StartAt,
		})
	} else {
		metrics.IncBooking("reused")
	}
	span.SetAttributes(attribute.Int64("booking.id", booking.ID), attribute.Bool("booking.created", created))
	return booking, created, nil
}

func (s *BookingService) ListBookings(ctx context.Context, user *models.AuthenticatedUser) ([]models.BookingDetail, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	return s.stores.Bookings.ListByUserID(ctx, user.ID)
}

func (s *BookingService) GetBooking(ctx context.Context, user *models.AuthenticatedUser, bookingID int64) (*models.BookingDetail, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	booking, err := s.loadOwnedBooking(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}

	detail := &models.BookingDetail{Booking: *booking}
	class, err := s.stores.Classes.GetByID(ctx, booking.ClassID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	detail.YogaClass = class
	if booking.PaymentID != nil {
		payment, err := s.stores.Payments.GetByID(ctx, *booking.PaymentID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		detail.Payment = payment
	}
	return detail, nil
}

// CreatePaymentOrder opens a gateway order for the class price and remembers
// it on the booking so verification can check the same order and amount.
func (s *BookingService) CreatePaymentOrder(ctx context.Context, user *models.AuthenticatedUser, bookingID int64) (order *models.OrderHandle, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreatePaymentOrder", trace.WithAttributes(
		attribute.Int64("booking.id", bookingID),
	))
	defer func() { endSpan(span, err) }()

	if user == nil {
		return nil, ErrUnauthorized
	}
	if bookingID <= 0 {
		return nil, invalidInput("Booking ID is required")
	}

	booking, err := s.loadOwnedBooking(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingConfirmed {
		return nil, ErrBookingConfirmed
	}

	class, err := s.stores.Classes.GetByID(ctx, booking.ClassID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", booking.ID)
	gatewayOrder, err := s.gateway.CreateOrder(ctx, class.PriceCents, s.cfg.Currency, receipt)
	if err != nil {
		metrics.IncPaymentOrder("gateway_error")
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	_, err = s.stores.Bookings.AttachOrder(ctx, repository.AttachOrderInput{
		BookingID:   booking.ID,
		OrderID:     gatewayOrder.ID,
		AmountCents: class.PriceCents,
		Currency:    s.cfg.Currency,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookingConfirmed
		}
		return nil, err
	}

	metrics.IncPaymentOrder("ok")
	return &models.OrderHandle{
		OrderID:  gatewayOrder.ID,
		Amount:   class.PriceCents,
		Currency: s.cfg.Currency,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

// VerifyPayment authenticates the checkout signature and then, in a single
// transaction, records the payment and confirms the booking.
func (s *BookingService) VerifyPayment(ctx context.Context, user *models.AuthenticatedUser, input VerifyPaymentInput) (result *models.VerifyResult, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.VerifyPayment", trace.WithAttributes(
		attribute.Int64("booking.id", input.BookingID),
	))
	defer func() {
		metrics.IncVerification(verificationOutcome(err))
		endSpan(span, err)
	}()

	if user == nil {
		return nil, ErrUnauthorized
	}
	input.OrderID = strings.TrimSpace(input.OrderID)
	input.ProviderPaymentID = strings.TrimSpace(input.ProviderPaymentID)
	input.Signature = strings.TrimSpace(input.Signature)
	if input.BookingID <= 0 || input.OrderID == "" || input.ProviderPaymentID == "" || input.Signature == "" {
		return nil, invalidInput("Missing required fields")
	}

	if !s.verifier.Verify(input.OrderID, input.ProviderPaymentID, input.Signature) {
		return nil, ErrInvalidSignature
	}

	booking, err := s.loadOwnedBooking(ctx, user, input.BookingID)
	if err != nil {
		return nil, err
	}
	order, err := s.stores.Bookings.GetOrder(ctx, booking.ID, input.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalidInput("Order does not belong to this booking")
		}
		return nil, err
	}
	if booking.Status == models.BookingConfirmed {
		return s.alreadyConfirmed(ctx, booking, input.ProviderPaymentID)
	}

	if s.cfg.VerifyRemote {
		record, err := s.gateway.FetchPayment(ctx, input.ProviderPaymentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
		}
		if !record.Captured() || record.OrderID != input.OrderID {
			return nil, ErrPaymentNotCaptured
		}
	}

	var payment *models.Payment
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Stores) error {
		locked, err := tx.Bookings.GetByIDForUpdate(ctx, booking.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrBookingNotFound
			}
			return err
		}
		if locked.Status != models.BookingPending {
			return ErrBookingConfirmed
		}

		payment, err = tx.Payments.Create(ctx, repository.CreatePaymentInput{
			Provider:    models.PaymentProviderRazorpay,
			ProviderID:  input.ProviderPaymentID,
			UserID:      user.ID,
			AmountCents: order.AmountCents,
			Currency:    order.Currency,
			Status:      models.PaymentSucceeded,
			Metadata: models.PaymentMetadata{
				OrderID:   input.OrderID,
				Signature: input.Signature,
			},
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrPaymentRecorded
			}
			return err
		}

		if _, err := tx.Bookings.ConfirmIfPending(ctx, booking.ID, payment.ID); err != nil {
			if repository.IsNotFound(err) {
				return ErrBookingConfirmed
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPaymentRecorded) || errors.Is(err, ErrBookingConfirmed) {
			// Lost a race with a concurrent verification of the same payment.
			if current, loadErr := s.stores.Bookings.GetByID(ctx, booking.ID); loadErr == nil && current.Status == models.BookingConfirmed {
				return s.alreadyConfirmed(ctx, current, input.ProviderPaymentID)
			}
		}
		return nil, err
	}

	s.publish(ctx, events.RKBookingConfirmed, user.ID, events.BookingConfirmed{
		BookingID: booking.ID,
		ClassID:   booking.ClassID,
		PaymentID: payment.ID,
	})
	s.publish(ctx, events.RKPaymentSucceeded, user.ID, events.PaymentSucceeded{
		PaymentID:   payment.ID,
		BookingID:   booking.ID,
		ProviderID:  payment.ProviderID,
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
	})

	span.SetAttributes(attribute.Int64("payment.id", payment.ID))
	return &models.VerifyResult{Success: true, PaymentID: payment.ID}, nil
}

// alreadyConfirmed makes a repeated verification of the same gateway payment
// succeed with the original payment id.
func (s *BookingService) alreadyConfirmed(ctx context.Context, booking *models.Booking, providerPaymentID string) (*models.VerifyResult, error) {
	if booking.PaymentID == nil {
		return nil, ErrBookingConfirmed
	}
	payment, err := s.stores.Payments.GetByID(ctx, *booking.PaymentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookingConfirmed
		}
		return nil, err
	}
	if payment.ProviderID != providerPaymentID {
		return nil, ErrBookingConfirmed
	}
	return &models.VerifyResult{Success: true, PaymentID: payment.ID}, nil
}

func (s *BookingService) loadOwnedBooking(ctx context.Context, user *models.AuthenticatedUser, bookingID int64) (*models.Booking, error) {
	booking, err := s.stores.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != user.ID {
		return nil, ErrForbidden
	}
	return booking, nil
}

// publish is best effort: the database is the source of truth.
func (s *BookingService) publish(ctx context.Context, eventType string, userID int64, payload any) {
	env, err := events.New(eventType, userID, payload)
	if err != nil {
		log.Printf("build %s event: %v", eventType, err)
		return
	}
	if err := s.events.Publish(ctx, env); err != nil {
		log.Printf("publish %s event %s: %v", eventType, env.ID, err)
	}
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
