package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Gokul221/mindfulhaven-app/internal/metrics"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
)

type classListCache interface {
	GetClasses(ctx context.Context) ([]models.YogaClass, bool, error)
	SetClasses(ctx context.Context, classes []models.YogaClass) error
	Invalidate(ctx context.Context) error
}

type CatalogService struct {
	stores Stores
	tx     Transactor
	cache  classListCache
}

func NewCatalogService(stores Stores, tx Transactor, cache classListCache) *CatalogService {
	return &CatalogService{stores: stores, tx: tx, cache: cache}
}

type CreateClassInput struct {
	Title       string
	Description *string
	StartAt     time.Time
	EndAt       time.Time
	Capacity    int
	PriceCents  int64
	Location    *string
	TrainerID   *int64
}

type UpdateClassInput struct {
	Title       *string
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	Capacity    *int
	PriceCents  *int64
	Location    *string
}

func (s *CatalogService) ListClasses(ctx context.Context) ([]models.YogaClass, error) {
	if s.cache != nil {
		classes, ok, err := s.cache.GetClasses(ctx)
		if err != nil {
			log.Printf("class cache read failed: %v", err)
		} else if ok {
			return classes, nil
		}
	}

	classes, err := s.stores.Classes.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetClasses(ctx, classes); err != nil {
			log.Printf("class cache write failed: %v", err)
		}
	}
	return classes, nil
}

func (s *CatalogService) GetClass(ctx context.Context, id int64) (*models.YogaClass, error) {
	class, err := s.stores.Classes.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

// CreateClass resolves the owning trainer from the actor: trainers always own
// what they create, admins must name a trainer.
func (s *CatalogService) CreateClass(ctx context.Context, actor *models.AuthenticatedUser, input CreateClassInput) (*models.YogaClass, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := validateClassFields(input.Title, input.Capacity, input.PriceCents, input.StartAt, input.EndAt); err != nil {
		return nil, err
	}

	var trainerID int64
	switch actor.Role {
	case models.RoleTrainer:
		id, ok := actor.TrainerID()
		if !ok {
			return nil, ErrTrainerProfileMissing
		}
		trainerID = id
	case models.RoleAdmin:
		if input.TrainerID == nil || *input.TrainerID <= 0 {
			return nil, invalidInput("trainerId is required when creating a class as admin")
		}
		if _, err := s.stores.Trainers.GetByID(ctx, *input.TrainerID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrTrainerNotFound
			}
			return nil, err
		}
		trainerID = *input.TrainerID
	default:
		return nil, ErrForbidden
	}

	class, err := s.stores.Classes.Create(ctx, repository.CreateClassInput{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		StartAt:     input.StartAt.UTC(),
		EndAt:       input.EndAt.UTC(),
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
		Location:    input.Location,
		TrainerID:   trainerID,
	})
	if err != nil {
		return nil, err
	}

	metrics.IncClassMutation("create")
	s.invalidate(ctx)
	return class, nil
}

// UpdateClass applies a partial update. The ownership check and the write run
// in one transaction against the locked class row.
func (s *CatalogService) UpdateClass(ctx context.Context, actor *models.AuthenticatedUser, id int64, input UpdateClassInput) (*models.YogaClass, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !canManageClasses(actor) {
		return nil, ErrForbidden
	}

	var class *models.YogaClass
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Stores) error {
		existing, err := tx.Classes.GetByIDForUpdate(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrClassNotFound
			}
			return err
		}
		if !ownsClass(actor, existing) {
			return ErrForbidden
		}

		update, err := mergeClassUpdate(existing, input)
		if err != nil {
			return err
		}

		class, err = tx.Classes.Update(ctx, id, update)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrClassNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncClassMutation("update")
	s.invalidate(ctx)
	return class, nil
}

// mergeClassUpdate validates the class as it would look after the update and
// returns the columns to write.
func mergeClassUpdate(existing *models.YogaClass, input UpdateClassInput) (repository.UpdateClassInput, error) {
	merged := *existing
	if input.Title != nil {
		merged.Title = strings.TrimSpace(*input.Title)
	}
	if input.StartAt != nil {
		merged.StartAt = input.StartAt.UTC()
	}
	if input.EndAt != nil {
		merged.EndAt = input.EndAt.UTC()
	}
	if input.Capacity != nil {
		merged.Capacity = *input.Capacity
	}
	if input.PriceCents != nil {
		merged.PriceCents = *input.PriceCents
	}
	if err := validateClassFields(merged.Title, merged.Capacity, merged.PriceCents, merged.StartAt, merged.EndAt); err != nil {
		return repository.UpdateClassInput{}, err
	}

	update := repository.UpdateClassInput{
		Description: input.Description,
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
		Location:    input.Location,
	}
	if input.Title != nil {
		update.Title = &merged.Title
	}
	if input.StartAt != nil {
		update.StartAt = &merged.StartAt
	}
	if input.EndAt != nil {
		update.EndAt = &merged.EndAt
	}
	return update, nil
}

// DeleteClass refuses while any booking is confirmed; pending bookings are
// removed together with the class.
func (s *CatalogService) DeleteClass(ctx context.Context, actor *models.AuthenticatedUser, id int64) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !canManageClasses(actor) {
		return ErrForbidden
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx Stores) error {
		class, err := tx.Classes.GetByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrClassNotFound
			}
			return err
		}
		if !ownsClass(actor, class) {
			return ErrForbidden
		}

		confirmed, err := tx.Bookings.CountByClassAndStatus(ctx, id, models.BookingConfirmed)
		if err != nil {
			return err
		}
		if confirmed > 0 {
			return ErrClassHasBookings
		}
		if _, err := tx.Bookings.DeletePendingByClass(ctx, id); err != nil {
			return err
		}
		if err := tx.Classes.Delete(ctx, id); err != nil {
			if repository.IsNotFound(err) {
				return ErrClassNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IncClassMutation("delete")
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("class cache invalidate failed: %v", err)
	}
}

func canManageClasses(actor *models.AuthenticatedUser) bool {
	return actor.Role == models.RoleTrainer || actor.Role == models.RoleAdmin
}

// ownsClass lets admins manage any class and trainers only their own.
func ownsClass(actor *models.AuthenticatedUser, class *models.YogaClass) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	trainerID, ok := actor.TrainerID()
	return ok && trainerID == class.TrainerID
}

func validateClassFields(title string, capacity int, priceCents int64, startAt, endAt time.Time) error {
	if strings.TrimSpace(title) == "" {
		return invalidInput("title is required")
	}
	if capacity <= 0 {
		return invalidInput("capacity must be a positive integer")
	}
	if priceCents < 0 {
		return invalidInput("priceCents must not be negative")
	}
	if !startAt.Before(endAt) {
		return invalidInput("startAt must be before endAt")
	}
	return nil
}
