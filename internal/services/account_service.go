package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
	"github.com/Gokul221/mindfulhaven-app/pkg/utils"
)

type TokenConfig struct {
	Secret    string
	LoginTTL  time.Duration
	SignupTTL time.Duration
}

type AccountService struct {
	stores Stores
	tx     Transactor
	tokens TokenConfig
}

func NewAccountService(stores Stores, tx Transactor, tokens TokenConfig) *AccountService {
	return &AccountService{stores: stores, tx: tx, tokens: tokens}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	Token string                   `json:"token"`
	User  models.AuthenticatedUser `json:"user"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the user and, for trainers, the trainer profile in one
// transaction.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	role := strings.ToUpper(strings.TrimSpace(input.Role))
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleTrainer {
		return nil, invalidInput("role must be USER or TRAINER")
	}
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || input.Password == "" {
		return nil, invalidInput("name, email and password are required")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var created models.AuthenticatedUser
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx Stores) error {
		if _, err := tx.Users.GetByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !repository.IsNotFound(err) {
			return err
		}

		user := &models.User{
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			Role:         role,
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		created = models.AuthenticatedUser{User: *user}

		if role == models.RoleTrainer {
			trainer, err := tx.Trainers.Create(ctx, user.ID, nil)
			if err != nil {
				return err
			}
			created.Trainer = &models.TrainerRef{ID: trainer.ID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(strconv.FormatInt(created.ID, 10), created.Role, s.tokens.Secret, s.tokens.SignupTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: created}, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.stores.Users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	authUser, err := s.stores.Users.GetAuthenticated(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), user.Role, s.tokens.Secret, s.tokens.LoginTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: *authUser}, nil
}

// ResolveToken maps a bearer token to its user. Any failure yields
// ErrUnauthorized so callers cannot tell a bad token from a deleted user.
func (s *AccountService) ResolveToken(ctx context.Context, token string) (*models.AuthenticatedUser, error) {
	claims, err := utils.ValidateToken(token, s.tokens.Secret)
	if err != nil {
		return nil, ErrUnauthorized
	}
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.stores.Users.GetAuthenticated(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
