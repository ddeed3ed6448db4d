package models

import "time"

const (
	RoleUser    = "USER"
	RoleTrainer = "TRAINER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type TrainerRef struct {
	ID int64 `json:"id"`
}

// AuthenticatedUser is the identity resolved from a bearer token.
type AuthenticatedUser struct {
	User
	Trainer *TrainerRef `json:"trainer"`
}

func (u *AuthenticatedUser) TrainerID() (int64, bool) {
	if u == nil || u.Trainer == nil {
		return 0, false
	}
	return u.Trainer.ID, true
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleTrainer, RoleAdmin:
		return true
	default:
		return false
	}
}
