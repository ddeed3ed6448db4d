package services

import (
	"context"
	"strings"
	"time"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
)

const maxSpecialties = 20

type TrainerService struct {
	stores Stores
	now    func() time.Time
}

func NewTrainerService(stores Stores) *TrainerService {
	return &TrainerService{stores: stores, now: time.Now}
}

func (s *TrainerService) ListTrainers(ctx context.Context) ([]models.Trainer, error) {
	return s.stores.Trainers.List(ctx)
}

func (s *TrainerService) GetTrainer(ctx context.Context, id int64) (*models.TrainerDetail, error) {
	trainer, err := s.stores.Trainers.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	classes, err := s.stores.Classes.ListUpcomingByTrainer(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	return &models.TrainerDetail{Trainer: *trainer, UpcomingClasses: classes}, nil
}

func (s *TrainerService) UpdateSpecialties(ctx context.Context, actor *models.AuthenticatedUser, specialties []string) (*models.Trainer, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if actor.Role != models.RoleTrainer {
		return nil, ErrForbidden
	}
	trainerID, ok := actor.TrainerID()
	if !ok {
		return nil, ErrTrainerProfileMissing
	}

	cleaned, err := normalizeSpecialties(specialties)
	if err != nil {
		return nil, err
	}

	trainer, err := s.stores.Trainers.UpdateSpecialties(ctx, trainerID, cleaned)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return trainer, nil
}

func normalizeSpecialties(values []string) ([]string, error) {
	if len(values) > maxSpecialties {
		return nil, invalidInput("too many specialties")
	}
	seen := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, invalidInput("specialties must not contain empty values")
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, value)
	}
	return cleaned, nil
}
