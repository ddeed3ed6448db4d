package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

type BookingHandler struct {
	service bookingService
}

type bookingService interface {
	CreateBooking(ctx context.Context, user *models.AuthenticatedUser, classID int64) (*models.Booking, bool, error)
	ListBookings(ctx context.Context, user *models.AuthenticatedUser) ([]models.BookingDetail, error)
	GetBooking(ctx context.Context, user *models.AuthenticatedUser, bookingID int64) (*models.BookingDetail, error)
	CreatePaymentOrder(ctx context.Context, user *models.AuthenticatedUser, bookingID int64) (*models.OrderHandle, error)
	VerifyPayment(ctx context.Context, user *models.AuthenticatedUser, input services.VerifyPaymentInput) (*models.VerifyResult, error)
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	ClassID int64 `json:"classId" validate:"required,gt=0"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	booking, created, err := h.service.CreateBooking(c.UserContext(), user, req.ClassID)
	if err != nil {
		return mapServiceError(c, err, "Failed to create booking")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(booking)
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	bookings, err := h.service.ListBookings(c.UserContext(), user)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch bookings")
	}
	return c.JSON(bookings)
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "Invalid booking id")
	}

	booking, err := h.service.GetBooking(c.UserContext(), user, id)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch booking")
	}
	return c.JSON(booking)
}
