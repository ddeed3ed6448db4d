package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Gokul221/mindfulhaven-app/internal/events"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/payments"
)

const testKeySecret = "test_key_secret"

type stubGateway struct {
	orders   []string
	receipts []string
	amounts  []int64
	err      error
	record   *payments.PaymentRecord
}

func (g *stubGateway) KeyID() string { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*payments.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	id := fmt.Sprintf("order_%d", len(g.orders)+1)
	g.orders = append(g.orders, id)
	g.receipts = append(g.receipts, receipt)
	g.amounts = append(g.amounts, amount)
	return &payments.Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (g *stubGateway) FetchPayment(_ context.Context, paymentID string) (*payments.PaymentRecord, error) {
	if g.record == nil {
		return nil, errors.New("not found")
	}
	return g.record, nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.types = append(p.types, env.Type)
	return nil
}

type bookingFixture struct {
	state     *memState
	tx        *memTransactor
	gateway   *stubGateway
	publisher *recordingPublisher
	signer    *payments.SignatureVerifier
	service   *BookingService
	trainer   *models.AuthenticatedUser
	user      *models.AuthenticatedUser
	class     *models.YogaClass
}

func newBookingFixture(t *testing.T, cfg BookingConfig) *bookingFixture {
	t.Helper()
	state := newMemState()
	f := &bookingFixture{
		state:     state,
		tx:        &memTransactor{state: state},
		gateway:   &stubGateway{},
		publisher: &recordingPublisher{},
		signer:    payments.NewSignatureVerifier(testKeySecret),
	}
	f.trainer = state.addUser("Tara", models.RoleTrainer)
	f.user = state.addUser("Uma", models.RoleUser)
	f.class = state.addClass(f.trainer.Trainer.ID, "Morning Vinyasa", 50000, time.Now().Add(48*time.Hour))
	f.service = NewBookingService(state.stores(), f.tx, f.gateway, f.signer, f.publisher, cfg)
	return f
}

func (f *bookingFixture) pendingWithOrder(t *testing.T) (*models.Booking, *models.OrderHandle) {
	t.Helper()
	booking, _, err := f.service.CreateBooking(context.Background(), f.user, f.class.ID)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	order, err := f.service.CreatePaymentOrder(context.Background(), f.user, booking.ID)
	if err != nil {
		t.Fatalf("CreatePaymentOrder: %v", err)
	}
	return booking, order
}

func TestCreateBookingUnknownClass(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	_, _, err := f.service.CreateBooking(context.Background(), f.user, 9999)
	if !errors.Is(err, ErrClassNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrClassNotFound, got %v", err)
	}
	if len(f.state.bookings) != 0 {
		t.Fatalf("expected no bookings, got %d", len(f.state.bookings))
	}
}

func TestCreateBookingRequiresClassID(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	_, _, err := f.service.CreateBooking(context.Background(), f.user, 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateBookingReusesPending(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	ctx := context.Background()

	first, created, err := f.service.CreateBooking(ctx, f.user, f.class.ID)
	if err != nil || !created {
		t.Fatalf("first booking: created=%v err=%v", created, err)
	}
	second, created, err := f.service.CreateBooking(ctx, f.user, f.class.ID)
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}
	if created {
		t.Fatal("expected existing booking to be returned")
	}
	if second.ID != first.ID || second.Status != models.BookingPending {
		t.Fatalf("expected pending booking %d, got %+v", first.ID, second)
	}
	if len(f.state.bookings) != 1 {
		t.Fatalf("expected one booking, got %d", len(f.state.bookings))
	}
	if got := f.publisher.types; len(got) != 1 || got[0] != events.RKBookingCreated {
		t.Fatalf("expected a single booking.created event, got %v", got)
	}
}

func TestCreateBookingConflictWhenConfirmed(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)

	_, err := f.service.VerifyPayment(context.Background(), f.user, VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_1"),
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	_, _, err = f.service.CreateBooking(context.Background(), f.user, f.class.ID)
	if !errors.Is(err, ErrAlreadyBooked) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrAlreadyBooked, got %v", err)
	}
	if len(f.state.bookings) != 1 {
		t.Fatalf("expected one booking, got %d", len(f.state.bookings))
	}
}

func TestCreatePaymentOrder(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{Currency: "INR"})
	booking, order := f.pendingWithOrder(t)

	if order.Amount != 50000 || order.Currency != "INR" || order.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected order handle %+v", order)
	}
	if f.gateway.receipts[0] != fmt.Sprintf("receipt_%d", booking.ID) {
		t.Fatalf("unexpected receipt %q", f.gateway.receipts[0])
	}

	stored := f.state.bookings[booking.ID]
	if stored.OrderID == nil || *stored.OrderID != order.OrderID {
		t.Fatalf("expected order to be stored on booking, got %+v", stored)
	}
	if stored.AmountCents == nil || *stored.AmountCents != 50000 {
		t.Fatalf("expected stored amount 50000, got %+v", stored.AmountCents)
	}
}

func TestCreatePaymentOrderErrors(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	ctx := context.Background()
	booking, _, err := f.service.CreateBooking(ctx, f.user, f.class.ID)
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	stranger := f.state.addUser("Sam", models.RoleUser)

	if _, err := f.service.CreatePaymentOrder(ctx, f.user, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.service.CreatePaymentOrder(ctx, f.user, 4242); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
	if _, err := f.service.CreatePaymentOrder(ctx, stranger, booking.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	f.gateway.err = errors.New("timeout")
	if _, err := f.service.CreatePaymentOrder(ctx, f.user, booking.ID); !errors.Is(err, ErrPaymentGateway) {
		t.Fatalf("expected ErrPaymentGateway, got %v", err)
	}
	if f.state.bookings[booking.ID].OrderID != nil {
		t.Fatal("expected no order stored after gateway failure")
	}
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)

	cases := []VerifyPaymentInput{
		{OrderID: order.OrderID, ProviderPaymentID: "pay_1", Signature: "sig"},
		{BookingID: booking.ID, ProviderPaymentID: "pay_1", Signature: "sig"},
		{BookingID: booking.ID, OrderID: order.OrderID, Signature: "sig"},
		{BookingID: booking.ID, OrderID: order.OrderID, ProviderPaymentID: "pay_1"},
	}
	for i, input := range cases {
		if _, err := f.service.VerifyPayment(context.Background(), f.user, input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)
	txCalls := f.tx.calls

	_, err := f.service.VerifyPayment(context.Background(), f.user, VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_other"),
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(f.state.payments) != 0 {
		t.Fatalf("expected no payments, got %d", len(f.state.payments))
	}
	if f.state.bookings[booking.ID].Status != models.BookingPending {
		t.Fatal("expected booking to stay pending")
	}
	if f.tx.calls != txCalls {
		t.Fatal("expected no transaction to start")
	}
}

func TestVerifyPaymentSignatureCheckedBeforeLookup(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})

	_, err := f.service.VerifyPayment(context.Background(), f.user, VerifyPaymentInput{
		BookingID:         777,
		OrderID:           "order_x",
		ProviderPaymentID: "pay_x",
		Signature:         "deadbeef",
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for unknown booking with bad signature, got %v", err)
	}
}

func TestVerifyPaymentOwnershipAndOrder(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)
	stranger := f.state.addUser("Sam", models.RoleUser)
	ctx := context.Background()

	valid := VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_1"),
	}

	if _, err := f.service.VerifyPayment(ctx, stranger, valid); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	missing := valid
	missing.BookingID = 4242
	if _, err := f.service.VerifyPayment(ctx, f.user, missing); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}

	otherOrder := VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           "order_foreign",
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign("order_foreign", "pay_1"),
	}
	if _, err := f.service.VerifyPayment(ctx, f.user, otherOrder); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for foreign order, got %v", err)
	}
	if len(f.state.payments) != 0 {
		t.Fatalf("expected no payments, got %d", len(f.state.payments))
	}
}

func TestVerifyPaymentRollsBackWhenConfirmFails(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)
	f.state.failConfirm = errors.New("connection reset")

	_, err := f.service.VerifyPayment(context.Background(), f.user, VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_1"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.state.payments) != 0 {
		t.Fatalf("expected payment insert to be rolled back, got %d payments", len(f.state.payments))
	}
	stored := f.state.bookings[booking.ID]
	if stored.Status != models.BookingPending || stored.PaymentID != nil {
		t.Fatalf("expected booking untouched, got %+v", stored)
	}
	for _, eventType := range f.publisher.types {
		if eventType == events.RKBookingConfirmed || eventType == events.RKPaymentSucceeded {
			t.Fatalf("unexpected %s event after rollback", eventType)
		}
	}
}

func TestVerifyPaymentPaysClassPrice(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{Currency: "INR"})
	ctx := context.Background()

	booking, created, err := f.service.CreateBooking(ctx, f.user, f.class.ID)
	if err != nil || !created {
		t.Fatalf("CreateBooking: created=%v err=%v", created, err)
	}
	order, err := f.service.CreatePaymentOrder(ctx, f.user, booking.ID)
	if err != nil {
		t.Fatalf("CreatePaymentOrder: %v", err)
	}
	if order.Amount != 50000 || order.Currency != "INR" {
		t.Fatalf("unexpected order %+v", order)
	}

	result, err := f.service.VerifyPayment(ctx, f.user, VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_29QQoUBi66xm2f",
		Signature:         f.signer.Sign(order.OrderID, "pay_29QQoUBi66xm2f"),
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if !result.Success || result.PaymentID == 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	payment := f.state.payments[result.PaymentID]
	if payment.AmountCents != 50000 || payment.Currency != "INR" {
		t.Fatalf("expected 50000 INR, got %d %s", payment.AmountCents, payment.Currency)
	}
	if payment.Provider != models.PaymentProviderRazorpay || payment.Status != models.PaymentSucceeded {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if payment.Metadata.OrderID != order.OrderID || payment.UserID != f.user.ID {
		t.Fatalf("unexpected payment metadata %+v", payment)
	}

	stored := f.state.bookings[booking.ID]
	if stored.Status != models.BookingConfirmed || stored.PaymentID == nil || *stored.PaymentID != payment.ID {
		t.Fatalf("expected confirmed booking linked to payment, got %+v", stored)
	}

	want := []string{events.RKBookingCreated, events.RKBookingConfirmed, events.RKPaymentSucceeded}
	if fmt.Sprint(f.publisher.types) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", f.publisher.types, want)
	}

	list, err := f.service.ListBookings(ctx, f.user)
	if err != nil || len(list) != 1 || list[0].Payment == nil || list[0].YogaClass == nil {
		t.Fatalf("unexpected booking list %+v err=%v", list, err)
	}
}

func TestVerifyPaymentAcceptsEarlierOrder(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{Currency: "INR"})
	ctx := context.Background()
	booking, first := f.pendingWithOrder(t)

	class := f.state.classes[f.class.ID]
	class.PriceCents = 65000
	f.state.classes[f.class.ID] = class

	second, err := f.service.CreatePaymentOrder(ctx, f.user, booking.ID)
	if err != nil {
		t.Fatalf("second CreatePaymentOrder: %v", err)
	}
	if second.OrderID == first.OrderID {
		t.Fatalf("expected a fresh order, got %s twice", first.OrderID)
	}

	result, err := f.service.VerifyPayment(ctx, f.user, VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           first.OrderID,
		ProviderPaymentID: "pay_first",
		Signature:         f.signer.Sign(first.OrderID, "pay_first"),
	})
	if err != nil {
		t.Fatalf("VerifyPayment on earlier order: %v", err)
	}

	payment := f.state.payments[result.PaymentID]
	if payment.AmountCents != 50000 || payment.Metadata.OrderID != first.OrderID {
		t.Fatalf("expected payment for the earlier order at 50000, got %+v", payment)
	}
	if stored := f.state.bookings[booking.ID]; stored.Status != models.BookingConfirmed {
		t.Fatalf("expected confirmed booking, got %s", stored.Status)
	}
}

func TestVerifyPaymentRetryIsIdempotent(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)
	ctx := context.Background()
	input := VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_1"),
	}

	first, err := f.service.VerifyPayment(ctx, f.user, input)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	second, err := f.service.VerifyPayment(ctx, f.user, input)
	if err != nil {
		t.Fatalf("retry verify: %v", err)
	}
	if first.PaymentID != second.PaymentID {
		t.Fatalf("expected same payment id, got %d and %d", first.PaymentID, second.PaymentID)
	}
	if len(f.state.payments) != 1 {
		t.Fatalf("expected one payment, got %d", len(f.state.payments))
	}

	other := VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_2",
		Signature:         f.signer.Sign(order.OrderID, "pay_2"),
	}
	if _, err := f.service.VerifyPayment(ctx, f.user, other); !errors.Is(err, ErrBookingConfirmed) {
		t.Fatalf("expected ErrBookingConfirmed for a second payment, got %v", err)
	}
}

func TestVerifyPaymentRemoteCheck(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{VerifyRemote: true})
	booking, order := f.pendingWithOrder(t)
	input := VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_1"),
	}

	f.gateway.record = &payments.PaymentRecord{ID: "pay_1", OrderID: order.OrderID, Status: "failed"}
	if _, err := f.service.VerifyPayment(context.Background(), f.user, input); !errors.Is(err, ErrPaymentNotCaptured) {
		t.Fatalf("expected ErrPaymentNotCaptured, got %v", err)
	}
	if len(f.state.payments) != 0 {
		t.Fatal("expected no payment for uncaptured gateway payment")
	}

	f.gateway.record.Status = "captured"
	if _, err := f.service.VerifyPayment(context.Background(), f.user, input); err != nil {
		t.Fatalf("expected captured payment to verify, got %v", err)
	}
}

func TestCreatePaymentOrderRejectsConfirmedBooking(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, order := f.pendingWithOrder(t)
	ctx := context.Background()

	if _, err := f.service.VerifyPayment(ctx, f.user, VerifyPaymentInput{
		BookingID:         booking.ID,
		OrderID:           order.OrderID,
		ProviderPaymentID: "pay_1",
		Signature:         f.signer.Sign(order.OrderID, "pay_1"),
	}); err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	if _, err := f.service.CreatePaymentOrder(ctx, f.user, booking.ID); !errors.Is(err, ErrBookingConfirmed) {
		t.Fatalf("expected ErrBookingConfirmed, got %v", err)
	}
}

func TestGetBooking(t *testing.T) {
	f := newBookingFixture(t, BookingConfig{})
	booking, _ := f.pendingWithOrder(t)
	stranger := f.state.addUser("Sam", models.RoleUser)
	ctx := context.Background()

	detail, err := f.service.GetBooking(ctx, f.user, booking.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if detail.YogaClass == nil || detail.YogaClass.ID != f.class.ID || detail.Payment != nil {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if _, err := f.service.GetBooking(ctx, stranger, booking.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
