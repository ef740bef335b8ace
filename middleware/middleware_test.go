package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/logger"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("gw-secret", logger.Nop()))
	app.Get("/me", UserContextMiddleware(logger.Nop()), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	app.Get("/admin", UserContextMiddleware(logger.Nop()), RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestGatewayAuth(t *testing.T) {
	app := newTestApp()
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer", "Bearer gw-secret", fiber.StatusOK},
		{"raw", "gw-secret", fiber.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/me", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		req.Header.Set("X-User-ID", "u1")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if resp.StatusCode != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, resp.StatusCode)
		}
	}
}

func TestUserContextAndRoles(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer gw-secret")
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer gw-secret")
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Roles", "member")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 without admin role, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer gw-secret")
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Roles", "member, admin")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 with admin role, got %d", resp.StatusCode)
	}
}
