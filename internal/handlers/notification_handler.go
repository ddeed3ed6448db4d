package handlers

import (
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	notifyws "github.com/Gokul221/mindfulhaven-app/internal/websocket"
)

const wsUserLocal = "ws_user"

// NotificationHandler upgrades authenticated clients to a websocket that
// receives their own booking and payment events.
type NotificationHandler struct {
	hub      *notifyws.Hub
	resolver middleware.TokenResolver
}

func NewNotificationHandler(hub *notifyws.Hub, resolver middleware.TokenResolver) *NotificationHandler {
	return &NotificationHandler{hub: hub, resolver: resolver}
}

// WebSocketAuth accepts the token from the query string because browsers
// cannot set headers on a websocket handshake.
func (h *NotificationHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return respondError(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return respondError(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		resolved, err := h.resolver.ResolveToken(c.UserContext(), token)
		if err != nil {
			return respondError(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}
		user = resolved
	}

	c.Locals(wsUserLocal, user)
	return c.Next()
}

func (h *NotificationHandler) HandleWebSocket(conn *websocket.Conn) {
	user, ok := conn.Locals(wsUserLocal).(*models.AuthenticatedUser)
	if !ok || user == nil {
		_ = conn.Close()
		return
	}

	client := notifyws.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}
