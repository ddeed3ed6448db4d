package repository

import (
	"context"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
)

type TrainerRepository struct {
	db DBTX
}

func NewTrainerRepository(db DBTX) *TrainerRepository {
	return &TrainerRepository{db: db}
}

const trainerColumns = `
	t.id, t.user_id, u.name, u.email, t.specialties, t.created_at, t.updated_at
`

func (r *TrainerRepository) Create(ctx context.Context, userID int64, specialties []string) (*models.Trainer, error) {
	if specialties == nil {
		specialties = []string{}
	}
	query := `
		WITH inserted AS (
			INSERT INTO trainers (user_id, specialties)
			VALUES ($1, $2)
			RETURNING id, user_id, specialties, created_at, updated_at
		)
		SELECT ` + trainerColumns + `
		FROM inserted t
		JOIN users u ON u.id = t.user_id
	`
	return scanTrainer(r.db.QueryRow(ctx, query, userID, specialties))
}

func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*models.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1
	`
	return scanTrainer(r.db.QueryRow(ctx, query, id))
}

func (r *TrainerRepository) GetByUserID(ctx context.Context, userID int64) (*models.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1
	`
	return scanTrainer(r.db.QueryRow(ctx, query, userID))
}

func (r *TrainerRepository) List(ctx context.Context) ([]models.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers t
		JOIN users u ON u.id = t.user_id
		ORDER BY u.name ASC, t.id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainers := make([]models.Trainer, 0)
	for rows.Next() {
		trainer, err := scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, *trainer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *TrainerRepository) UpdateSpecialties(ctx context.Context, id int64, specialties []string) (*models.Trainer, error) {
	if specialties == nil {
		specialties = []string{}
	}
	query := `
		WITH updated AS (
			UPDATE trainers
			SET specialties = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, user_id, specialties, created_at, updated_at
		)
		SELECT ` + trainerColumns + `
		FROM updated t
		JOIN users u ON u.id = t.user_id
	`
	return scanTrainer(r.db.QueryRow(ctx, query, id, specialties))
}

func scanTrainer(row rowScanner) (*models.Trainer, error) {
	var trainer models.Trainer
	err := row.Scan(
		&trainer.ID,
		&trainer.UserID,
		&trainer.Name,
		&trainer.Email,
		&trainer.Specialties,
		&trainer.CreatedAt,
		&trainer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if trainer.Specialties == nil {
		trainer.Specialties = []string{}
	}
	return &trainer, nil
}
