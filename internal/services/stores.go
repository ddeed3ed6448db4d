package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Gokul221/mindfulhaven-app/internal/database"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetAuthenticated(ctx context.Context, id int64) (*models.AuthenticatedUser, error)
}

type TrainerStore interface {
	Create(ctx context.Context, userID int64, specialties []string) (*models.Trainer, error)
	GetByID(ctx context.Context, id int64) (*models.Trainer, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Trainer, error)
	List(ctx context.Context) ([]models.Trainer, error)
	UpdateSpecialties(ctx context.Context, id int64, specialties []string) (*models.Trainer, error)
}

type ClassStore interface {
	Create(ctx context.Context, input repository.CreateClassInput) (*models.YogaClass, error)
	GetByID(ctx context.Context, id int64) (*models.YogaClass, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.YogaClass, error)
	List(ctx context.Context) ([]models.YogaClass, error)
	ListUpcomingByTrainer(ctx context.Context, trainerID int64, after time.Time) ([]models.YogaClass, error)
	Update(ctx context.Context, id int64, input repository.UpdateClassInput) (*models.YogaClass, error)
	Delete(ctx context.Context, id int64) error
}

type BookingStore interface {
	LockUserClass(ctx context.Context, userID, classID int64) error
	Create(ctx context.Context, userID, classID int64) (*models.Booking, error)
	FindActive(ctx context.Context, userID, classID int64) (*models.Booking, error)
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Booking, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.BookingDetail, error)
	AttachOrder(ctx context.Context, input repository.AttachOrderInput) (*models.Booking, error)
	GetOrder(ctx context.Context, bookingID int64, orderID string) (*models.BookingOrder, error)
	ConfirmIfPending(ctx context.Context, bookingID, paymentID int64) (*models.Booking, error)
	CountByClassAndStatus(ctx context.Context, classID int64, status string) (int, error)
	DeletePendingByClass(ctx context.Context, classID int64) (int64, error)
}

type PaymentStore interface {
	Create(ctx context.Context, input repository.CreatePaymentInput) (*models.Payment, error)
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
}

// Stores bundles the repositories bound to one connection or transaction.
type Stores struct {
	Users    UserStore
	Trainers TrainerStore
	Classes  ClassStore
	Bookings BookingStore
	Payments PaymentStore
}

func NewStores(db repository.DBTX) Stores {
	return Stores{
		Users:    repository.NewUserRepository(db),
		Trainers: repository.NewTrainerRepository(db),
		Classes:  repository.NewClassRepository(db),
		Bookings: repository.NewBookingRepository(db),
		Payments: repository.NewPaymentRepository(db),
	}
}

// Transactor runs fn against stores bound to a single transaction. Any error
// returned by fn rolls back every write made through those stores.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error
}

type pgTransactor struct {
	db *database.DB
}

func NewTransactor(db *database.DB) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error {
	return t.db.WithinTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, NewStores(tx))
	})
}
