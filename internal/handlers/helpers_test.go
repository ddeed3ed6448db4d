package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
)

func testUser(id int64, role string) *models.AuthenticatedUser {
	user := &models.AuthenticatedUser{User: models.User{
		ID:    id,
		Email: "member@example.com",
		Name:  "Member",
		Role:  role,
	}}
	if role == models.RoleTrainer {
		user.Trainer = &models.TrainerRef{ID: id + 100}
	}
	return user
}

// newTestApp builds an app whose requests carry user as the resolved caller.
// A nil user leaves requests anonymous.
func newTestApp(user *models.AuthenticatedUser) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			middleware.SetCurrentUser(c, user)
		}
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, payload
}

func decodeBody(t *testing.T, payload []byte, target any) {
	t.Helper()

	if err := json.Unmarshal(payload, target); err != nil {
		t.Fatalf("decode response %q: %v", payload, err)
	}
}

type errorBody struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details"`
}

func expectError(t *testing.T, status int, payload []byte, wantStatus int, wantMessage string) errorBody {
	t.Helper()

	if status != wantStatus {
		t.Fatalf("expected %d, got %d (%s)", wantStatus, status, payload)
	}
	var body errorBody
	decodeBody(t, payload, &body)
	if wantMessage != "" && body.Error != wantMessage {
		t.Fatalf("expected error %q, got %q", wantMessage, body.Error)
	}
	return body
}
