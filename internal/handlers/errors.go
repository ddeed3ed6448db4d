package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// mapServiceError translates a service failure into its HTTP response.
// fallback is the message used for unexpected errors, which are logged.
func mapServiceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		return respondError(c, fiber.StatusBadRequest, "Invalid signature")
	case errors.Is(err, services.ErrInvalidInput):
		return respondError(c, fiber.StatusBadRequest, services.PublicMessage(err))
	case errors.Is(err, services.ErrUnauthorized):
		return respondError(c, fiber.StatusUnauthorized, messageOr(err, services.ErrUnauthorized, "Unauthorized"))
	case errors.Is(err, services.ErrForbidden):
		return respondError(c, fiber.StatusForbidden, messageOr(err, services.ErrForbidden, "Forbidden"))
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, messageOr(err, services.ErrNotFound, "Not found"))
	case errors.Is(err, services.ErrConflict):
		return respondError(c, fiber.StatusConflict, messageOr(err, services.ErrConflict, "Conflict"))
	case errors.Is(err, services.ErrPaymentGateway):
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return respondError(c, fiber.StatusBadGateway, "Payment provider unavailable")
	default:
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return respondError(c, fiber.StatusInternalServerError, fallback)
	}
}

// messageOr keeps DomainError messages and hides bare sentinel text.
func messageOr(err, kind error, fallback string) string {
	if err == kind {
		return fallback
	}
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return fallback
}
