package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

type TrainerHandler struct {
	service trainerService
}

type trainerService interface {
	ListTrainers(ctx context.Context) ([]models.Trainer, error)
	GetTrainer(ctx context.Context, id int64) (*models.TrainerDetail, error)
	UpdateSpecialties(ctx context.Context, actor *models.AuthenticatedUser, specialties []string) (*models.Trainer, error)
}

func NewTrainerHandler(service *services.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: service}
}

type updateSpecialtiesRequest struct {
	Specialties []string `json:"specialties" validate:"required,min=1,max=20"`
}

func (h *TrainerHandler) ListTrainers(c *fiber.Ctx) error {
	trainers, err := h.service.ListTrainers(c.UserContext())
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch trainers")
	}
	return c.JSON(trainers)
}

func (h *TrainerHandler) GetTrainer(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid trainer id")
	}

	trainer, err := h.service.GetTrainer(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch trainer")
	}
	return c.JSON(trainer)
}

func (h *TrainerHandler) UpdateMySpecialties(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req updateSpecialtiesRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	trainer, err := h.service.UpdateSpecialties(c.UserContext(), user, req.Specialties)
	if err != nil {
		return mapServiceError(c, err, "Failed to update specialties")
	}
	return c.JSON(trainer)
}
