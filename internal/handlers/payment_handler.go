package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

// PaymentHandler exposes the checkout half of the booking workflow.
type PaymentHandler struct {
	service bookingService
}

func NewPaymentHandler(service *services.BookingService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createOrderRequest struct {
	BookingID int64 `json:"bookingId" validate:"required,gt=0"`
}

// verifyPaymentRequest also accepts the field names of the Razorpay
// checkout callback.
type verifyPaymentRequest struct {
	BookingID         int64  `json:"bookingId"`
	OrderCreationID   string `json:"orderCreationId"`
	ProviderPaymentID string `json:"providerPaymentId"`
	ProviderSignature string `json:"providerSignature"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

func (r verifyPaymentRequest) input() services.VerifyPaymentInput {
	input := services.VerifyPaymentInput{
		BookingID:         r.BookingID,
		OrderID:           r.OrderCreationID,
		ProviderPaymentID: r.ProviderPaymentID,
		Signature:         r.ProviderSignature,
	}
	if input.OrderID == "" {
		input.OrderID = r.RazorpayOrderID
	}
	if input.ProviderPaymentID == "" {
		input.ProviderPaymentID = r.RazorpayPaymentID
	}
	if input.Signature == "" {
		input.Signature = r.RazorpaySignature
	}
	return input
}

func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if ok, err := validateBody(c, &req); !ok {
		return err
	}

	order, err := h.service.CreatePaymentOrder(c.UserContext(), user, req.BookingID)
	if err != nil {
		return mapServiceError(c, err, "Failed to create payment order")
	}
	return c.JSON(order)
}

func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.service.VerifyPayment(c.UserContext(), user, req.input())
	if err != nil {
		return mapServiceError(c, err, "Failed to verify payment")
	}
	return c.JSON(result)
}
