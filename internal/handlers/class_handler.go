package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

type ClassHandler struct {
	service catalogService
}

type catalogService interface {
	ListClasses(ctx context.Context) ([]models.YogaClass, error)
	GetClass(ctx context.Context, id int64) (*models.YogaClass, error)
	CreateClass(ctx context.Context, actor *models.AuthenticatedUser, input services.CreateClassInput) (*models.YogaClass, error)
	UpdateClass(ctx context.Context, actor *models.AuthenticatedUser, id int64, input services.UpdateClassInput) (*models.YogaClass, error)
	DeleteClass(ctx context.Context, actor *models.AuthenticatedUser, id int64) error
}

func NewClassHandler(service *services.CatalogService) *ClassHandler {
	return &ClassHandler{service: service}
}

type createClassRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	StartAt     string  `json:"startAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt       string  `json:"endAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Capacity    int     `json:"capacity" validate:"gt=0"`
	PriceCents  *int64  `json:"priceCents" validate:"required,gte=0"`
	Location    *string `json:"location"`
	TrainerID   *int64  `json:"trainerId" validate:"omitempty,gt=0"`
}

// updateClassRequest fields are optional; omitnil skips the checks for fields
// the client left out.
type updateClassRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description"`
	StartAt     *string `json:"startAt" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt       *string `json:"endAt" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	Capacity    *int    `json:"capacity" validate:"omitnil,gt=0"`
	PriceCents  *int64  `json:"priceCents" validate:"omitnil,gte=0"`
	Location    *string `json:"location"`
}

func (h *ClassHandler) ListClasses(c *fiber.Ctx) error {
	classes, err := h.service.ListClasses(c.UserContext())
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch classes")
	}
	return c.JSON(classes)
}

func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid class id")
	}

	class, err := h.service.GetClass(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch class")
	}
	return c.JSON(class)
}

func (h *ClassHandler) CreateClass(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req createClassRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	startAt, _ := time.Parse(time.RFC3339, req.StartAt)
	endAt, _ := time.Parse(time.RFC3339, req.EndAt)

	class, err := h.service.CreateClass(c.UserContext(), user, services.CreateClassInput{
		Title:       req.Title,
		Description: req.Description,
		StartAt:     startAt,
		EndAt:       endAt,
		Capacity:    req.Capacity,
		PriceCents:  *req.PriceCents,
		Location:    req.Location,
		TrainerID:   req.TrainerID,
	})
	if err != nil {
		return mapServiceError(c, err, "Failed to create class")
	}
	return c.Status(fiber.StatusCreated).JSON(class)
}

func (h *ClassHandler) UpdateClass(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid class id")
	}

	var req updateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	class, err := h.service.UpdateClass(c.UserContext(), user, id, req.input())
	if err != nil {
		return mapServiceError(c, err, "Failed to update class")
	}
	return c.JSON(class)
}

func (h *ClassHandler) DeleteClass(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid class id")
	}

	if err := h.service.DeleteClass(c.UserContext(), user, id); err != nil {
		return mapServiceError(c, err, "Failed to delete class")
	}
	return c.JSON(fiber.Map{"message": "Class deleted successfully"})
}

// input converts a validated request; timestamps have already passed the
// datetime check.
func (r updateClassRequest) input() services.UpdateClassInput {
	input := services.UpdateClassInput{
		Title:       r.Title,
		Description: r.Description,
		Capacity:    r.Capacity,
		PriceCents:  r.PriceCents,
		Location:    r.Location,
	}
	if r.StartAt != nil {
		startAt, _ := time.Parse(time.RFC3339, *r.StartAt)
		input.StartAt = &startAt
	}
	if r.EndAt != nil {
		endAt, _ := time.Parse(time.RFC3339, *r.EndAt)
		input.EndAt = &endAt
	}
	return input
}
