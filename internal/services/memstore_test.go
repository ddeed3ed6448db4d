package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
)

// memState is an in-memory stand-in for Postgres. memTransactor snapshots it
// before each transaction and restores the snapshot when fn fails.
type memState struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]models.User
	trainers map[int64]models.Trainer
	classes  map[int64]models.YogaClass
	bookings map[int64]models.Booking
	orders   map[string]models.BookingOrder
	payments map[int64]models.Payment

	failConfirm       error
	failPaymentCreate error
}

func newMemState() *memState {
	return &memState{
		users:    map[int64]models.User{},
		trainers: map[int64]models.Trainer{},
		classes:  map[int64]models.YogaClass{},
		bookings: map[int64]models.Booking{},
		orders:   map[string]models.BookingOrder{},
		payments: map[int64]models.Payment{},
	}
}

func (m *memState) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memState) stores() Stores {
	return Stores{
		Users:    memUsers{m},
		Trainers: memTrainers{m},
		Classes:  memClasses{m},
		Bookings: memBookings{m},
		Payments: memPayments{m},
	}
}

type snapshot struct {
	nextID   int64
	users    map[int64]models.User
	trainers map[int64]models.Trainer
	classes  map[int64]models.YogaClass
	bookings map[int64]models.Booking
	orders   map[string]models.BookingOrder
	payments map[int64]models.Payment
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memState) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot{
		nextID:   m.nextID,
		users:    cloneMap(m.users),
		trainers: cloneMap(m.trainers),
		classes:  cloneMap(m.classes),
		bookings: cloneMap(m.bookings),
		orders:   cloneMap(m.orders),
		payments: cloneMap(m.payments),
	}
}

func (m *memState) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.users = s.users
	m.trainers = s.trainers
	m.classes = s.classes
	m.bookings = s.bookings
	m.orders = s.orders
	m.payments = s.payments
}

type memTransactor struct {
	state *memState
	calls int
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error {
	t.calls++
	snap := t.state.snapshot()
	if err := fn(ctx, t.state.stores()); err != nil {
		t.state.restore(snap)
		return err
	}
	return nil
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

type memUsers struct{ m *memState }

func (s memUsers) Create(_ context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.users {
		if existing.Email == user.Email {
			return uniqueViolation()
		}
	}
	user.ID = s.m.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.m.users[user.ID] = *user
	return nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, user := range s.m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	user, ok := s.m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (s memUsers) GetAuthenticated(_ context.Context, id int64) (*models.AuthenticatedUser, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	user, ok := s.m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.PasswordHash = ""
	auth := &models.AuthenticatedUser{User: user}
	for _, trainer := range s.m.trainers {
		if trainer.UserID == id {
			auth.Trainer = &models.TrainerRef{ID: trainer.ID}
		}
	}
	return auth, nil
}

type memTrainers struct{ m *memState }

func (s memTrainers) Create(_ context.Context, userID int64, specialties []string) (*models.Trainer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	user := s.m.users[userID]
	if specialties == nil {
		specialties = []string{}
	}
	trainer := models.Trainer{
		ID:          s.m.id(),
		UserID:      userID,
		Name:        user.Name,
		Email:       user.Email,
		Specialties: specialties,
	}
	s.m.trainers[trainer.ID] = trainer
	return &trainer, nil
}

func (s memTrainers) GetByID(_ context.Context, id int64) (*models.Trainer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	trainer, ok := s.m.trainers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &trainer, nil
}

func (s memTrainers) GetByUserID(_ context.Context, userID int64) (*models.Trainer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, trainer := range s.m.trainers {
		if trainer.UserID == userID {
			t := trainer
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memTrainers) List(_ context.Context) ([]models.Trainer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]models.Trainer, 0, len(s.m.trainers))
	for _, trainer := range s.m.trainers {
		out = append(out, trainer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memTrainers) UpdateSpecialties(_ context.Context, id int64, specialties []string) (*models.Trainer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	trainer, ok := s.m.trainers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	trainer.Specialties = specialties
	s.m.trainers[id] = trainer
	return &trainer, nil
}

type memClasses struct{ m *memState }

func (s memClasses) Create(_ context.Context, input repository.CreateClassInput) (*models.YogaClass, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	class := models.YogaClass{
		ID:          s.m.id(),
		Title:       input.Title,
		Description: input.Description,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
		Location:    input.Location,
		TrainerID:   input.TrainerID,
	}
	s.m.classes[class.ID] = class
	return &class, nil
}

func (s memClasses) GetByID(_ context.Context, id int64) (*models.YogaClass, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	class, ok := s.m.classes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &class, nil
}

func (s memClasses) GetByIDForUpdate(ctx context.Context, id int64) (*models.YogaClass, error) {
	return s.GetByID(ctx, id)
}

func (s memClasses) List(_ context.Context) ([]models.YogaClass, error) {
	return s.filter(func(models.YogaClass) bool { return true }), nil
}

func (s memClasses) ListUpcomingByTrainer(_ context.Context, trainerID int64, after time.Time) ([]models.YogaClass, error) {
	return s.filter(func(c models.YogaClass) bool {
		return c.TrainerID == trainerID && !c.StartAt.Before(after)
	}), nil
}

func (s memClasses) filter(keep func(models.YogaClass) bool) []models.YogaClass {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]models.YogaClass, 0)
	for _, class := range s.m.classes {
		if keep(class) {
			out = append(out, class)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (s memClasses) Update(_ context.Context, id int64, input repository.UpdateClassInput) (*models.YogaClass, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	class, ok := s.m.classes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if input.Title != nil {
		class.Title = *input.Title
	}
	if input.Description != nil {
		class.Description = input.Description
	}
	if input.StartAt != nil {
		class.StartAt = *input.StartAt
	}
	if input.EndAt != nil {
		class.EndAt = *input.EndAt
	}
	if input.Capacity != nil {
		class.Capacity = *input.Capacity
	}
	if input.PriceCents != nil {
		class.PriceCents = *input.PriceCents
	}
	if input.Location != nil {
		class.Location = input.Location
	}
	s.m.classes[id] = class
	return &class, nil
}

func (s memClasses) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.classes[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, booking := range s.m.bookings {
		if booking.ClassID == id {
			return &pgconn.PgError{Code: "23503"}
		}
	}
	delete(s.m.classes, id)
	return nil
}

type memBookings struct{ m *memState }

func (s memBookings) LockUserClass(context.Context, int64, int64) error { return nil }

func (s memBookings) Create(_ context.Context, userID, classID int64) (*models.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, booking := range s.m.bookings {
		if booking.UserID == userID && booking.ClassID == classID && isActive(booking.Status) {
			return nil, pgx.ErrNoRows
		}
	}
	booking := models.Booking{
		ID:        s.m.id(),
		UserID:    userID,
		ClassID:   classID,
		Status:    models.BookingPending,
		CreatedAt: time.Now(),
	}
	s.m.bookings[booking.ID] = booking
	return &booking, nil
}

func (s memBookings) FindActive(_ context.Context, userID, classID int64) (*models.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, booking := range s.m.bookings {
		if booking.UserID == userID && booking.ClassID == classID && isActive(booking.Status) {
			b := booking
			return &b, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memBookings) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	booking, ok := s.m.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &booking, nil
}

func (s memBookings) GetByIDForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	return s.GetByID(ctx, id)
}

func (s memBookings) ListByUserID(_ context.Context, userID int64) ([]models.BookingDetail, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]models.BookingDetail, 0)
	for _, booking := range s.m.bookings {
		if booking.UserID != userID {
			continue
		}
		detail := models.BookingDetail{Booking: booking}
		if class, ok := s.m.classes[booking.ClassID]; ok {
			detail.YogaClass = &class
		}
		if booking.PaymentID != nil {
			if payment, ok := s.m.payments[*booking.PaymentID]; ok {
				detail.Payment = &payment
			}
		}
		out = append(out, detail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s memBookings) AttachOrder(_ context.Context, input repository.AttachOrderInput) (*models.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	booking, ok := s.m.bookings[input.BookingID]
	if !ok || booking.Status != models.BookingPending {
		return nil, pgx.ErrNoRows
	}
	booking.OrderID = &input.OrderID
	booking.AmountCents = &input.AmountCents
	booking.Currency = &input.Currency
	s.m.bookings[booking.ID] = booking
	s.m.orders[input.OrderID] = models.BookingOrder{
		OrderID:     input.OrderID,
		BookingID:   booking.ID,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		CreatedAt:   time.Now(),
	}
	return &booking, nil
}

func (s memBookings) GetOrder(_ context.Context, bookingID int64, orderID string) (*models.BookingOrder, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	order, ok := s.m.orders[orderID]
	if !ok || order.BookingID != bookingID {
		return nil, pgx.ErrNoRows
	}
	return &order, nil
}

func (s memBookings) ConfirmIfPending(_ context.Context, bookingID, paymentID int64) (*models.Booking, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failConfirm != nil {
		return nil, s.m.failConfirm
	}
	booking, ok := s.m.bookings[bookingID]
	if !ok || booking.Status != models.BookingPending {
		return nil, pgx.ErrNoRows
	}
	booking.Status = models.BookingConfirmed
	booking.PaymentID = &paymentID
	s.m.bookings[bookingID] = booking
	return &booking, nil
}

func (s memBookings) CountByClassAndStatus(_ context.Context, classID int64, status string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, booking := range s.m.bookings {
		if booking.ClassID == classID && booking.Status == status {
			count++
		}
	}
	return count, nil
}

func (s memBookings) DeletePendingByClass(_ context.Context, classID int64) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var removed int64
	for id, booking := range s.m.bookings {
		if booking.ClassID == classID && booking.Status == models.BookingPending {
			delete(s.m.bookings, id)
			removed++
		}
	}
	return removed, nil
}

func isActive(status string) bool {
	return status == models.BookingPending || status == models.BookingConfirmed
}

type memPayments struct{ m *memState }

func (s memPayments) Create(_ context.Context, input repository.CreatePaymentInput) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.failPaymentCreate != nil {
		return nil, s.m.failPaymentCreate
	}
	for _, payment := range s.m.payments {
		if payment.ProviderID == input.ProviderID {
			return nil, uniqueViolation()
		}
	}
	payment := models.Payment{
		ID:          s.m.id(),
		Provider:    input.Provider,
		ProviderID:  input.ProviderID,
		UserID:      input.UserID,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		Status:      input.Status,
		Metadata:    input.Metadata,
		CreatedAt:   time.Now(),
	}
	s.m.payments[payment.ID] = payment
	return &payment, nil
}

func (s memPayments) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	payment, ok := s.m.payments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &payment, nil
}

// seed helpers

func (m *memState) addUser(name, role string) *models.AuthenticatedUser {
	user := &models.User{
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
		Role:  role,
	}
	if err := (memUsers{m}).Create(context.Background(), user); err != nil {
		panic(err)
	}
	auth := &models.AuthenticatedUser{User: *user}
	if role == models.RoleTrainer {
		trainer, _ := (memTrainers{m}).Create(context.Background(), user.ID, nil)
		auth.Trainer = &models.TrainerRef{ID: trainer.ID}
	}
	return auth
}

func (m *memState) addClass(trainerID int64, title string, priceCents int64, startAt time.Time) *models.YogaClass {
	class, _ := (memClasses{m}).Create(context.Background(), repository.CreateClassInput{
		Title:      title,
		StartAt:    startAt,
		EndAt:      startAt.Add(time.Hour),
		Capacity:   10,
		PriceCents: priceCents,
		TrainerID:  trainerID,
	})
	return class
}
