package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
)

const userLocalKey = "user"

type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.AuthenticatedUser, error)
}

// Authenticate resolves the bearer token, if any, into the current user.
// It never rejects a request; AuthRequired does that.
func Authenticate(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Next()
		}

		user, err := resolver.ResolveToken(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				log.Printf("authenticate: resolve token: %v", err)
			}
			return c.Next()
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}

func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !IsAuthorized(user, roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Next()
	}
}

func IsAuthorized(user *models.AuthenticatedUser, roles ...string) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

func CurrentUser(c *fiber.Ctx) (*models.AuthenticatedUser, bool) {
	user, ok := c.Locals(userLocalKey).(*models.AuthenticatedUser)
	return user, ok && user != nil
}

// SetCurrentUser stores an already resolved user on the request.
func SetCurrentUser(c *fiber.Ctx, user *models.AuthenticatedUser) {
	c.Locals(userLocalKey, user)
}

func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
