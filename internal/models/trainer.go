package models

import "time"

type Trainer struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Specialties []string  `json:"specialties"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TrainerDetail struct {
	Trainer
	UpcomingClasses []YogaClass `json:"upcomingClasses"`
}
