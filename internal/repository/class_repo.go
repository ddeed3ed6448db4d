package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
)

type CreateClassInput struct {
	Title       string
	Description *string
	StartAt     time.Time
	EndAt       time.Time
	Capacity    int
	PriceCents  int64
	Location    *string
	TrainerID   int64
}

// UpdateClassInput carries a partial update; nil fields keep their value.
type UpdateClassInput struct {
	Title       *string
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	Capacity    *int
	PriceCents  *int64
	Location    *string
}

type ClassRepository struct {
	db DBTX
}

func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `
	c.id, c.title, c.description, c.start_at, c.end_at, c.capacity, c.price_cents,
	c.location, c.trainer_id, c.created_at, c.updated_at, u.name, u.email
`

const classJoins = `
	JOIN trainers t ON t.id = c.trainer_id
	JOIN users u ON u.id = t.user_id
`

func (r *ClassRepository) Create(ctx context.Context, input CreateClassInput) (*models.YogaClass, error) {
	query := `
		WITH c AS (
			INSERT INTO yoga_classes (title, description, start_at, end_at, capacity, price_cents, location, trainer_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT ` + classColumns + `
		FROM c ` + classJoins
	return scanClass(r.db.QueryRow(ctx, query,
		input.Title,
		input.Description,
		input.StartAt,
		input.EndAt,
		input.Capacity,
		input.PriceCents,
		input.Location,
		input.TrainerID,
	))
}

func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.YogaClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM yoga_classes c ` + classJoins + `
		WHERE c.id = $1
	`
	return scanClass(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate locks the class row until the surrounding transaction ends.
func (r *ClassRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.YogaClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM yoga_classes c ` + classJoins + `
		WHERE c.id = $1
		FOR UPDATE OF c
	`
	return scanClass(r.db.QueryRow(ctx, query, id))
}

func (r *ClassRepository) List(ctx context.Context) ([]models.YogaClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM yoga_classes c ` + classJoins + `
		ORDER BY c.start_at ASC, c.id ASC
	`
	return r.list(ctx, query)
}

func (r *ClassRepository) ListUpcomingByTrainer(ctx context.Context, trainerID int64, after time.Time) ([]models.YogaClass, error) {
	query := `
		SELECT ` + classColumns + `
		FROM yoga_classes c ` + classJoins + `
		WHERE c.trainer_id = $1 AND c.start_at >= $2
		ORDER BY c.start_at ASC, c.id ASC
	`
	return r.list(ctx, query, trainerID, after)
}

func (r *ClassRepository) Update(ctx context.Context, id int64, input UpdateClassInput) (*models.YogaClass, error) {
	query := `
		WITH c AS (
			UPDATE yoga_classes
			SET title = COALESCE($2, title),
				description = COALESCE($3, description),
				start_at = COALESCE($4, start_at),
				end_at = COALESCE($5, end_at),
				capacity = COALESCE($6, capacity),
				price_cents = COALESCE($7, price_cents),
				location = COALESCE($8, location),
				updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + classColumns + `
		FROM c ` + classJoins
	return scanClass(r.db.QueryRow(ctx, query,
		id,
		input.Title,
		input.Description,
		input.StartAt,
		input.EndAt,
		input.Capacity,
		input.PriceCents,
		input.Location,
	))
}

func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM yoga_classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ClassRepository) list(ctx context.Context, query string, args ...any) ([]models.YogaClass, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]models.YogaClass, 0)
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *class)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

func scanClass(row rowScanner) (*models.YogaClass, error) {
	var class models.YogaClass
	var trainer models.ClassTrainer
	err := row.Scan(
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
	)
	if err != nil {
		return nil, err
	}
	trainer.ID = class.TrainerID
	class.Trainer = &trainer
	return &class, nil
}
