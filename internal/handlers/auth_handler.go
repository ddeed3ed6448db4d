package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

type AuthHandler struct {
	service accountService
}

type accountService interface {
	Signup(ctx context.Context, input services.SignupInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

func NewAuthHandler(service *services.AccountService) *AuthHandler {
	return &AuthHandler{service: service}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=USER TRAINER"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = services.NormalizeEmail(req.Email)
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	result, err := h.service.Signup(c.UserContext(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to create user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = services.NormalizeEmail(req.Email)
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err, "Failed to log in")
	}

	return c.JSON(fiber.Map{
		"token": result.Token,
		"user":  result.User,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(fiber.Map{"user": user})
}
