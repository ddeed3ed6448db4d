package models

import "time"

type YogaClass struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	StartAt     time.Time     `json:"startAt"`
	EndAt       time.Time     `json:"endAt"`
	Capacity    int           `json:"capacity"`
	PriceCents  int64         `json:"priceCents"`
	Location    *string       `json:"location"`
	TrainerID   int64         `json:"trainerId"`
	Trainer     *ClassTrainer `json:"trainer,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ClassTrainer is the public slice of a trainer embedded in class listings.
type ClassTrainer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
