package handlers

import (
	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/logger"
	"wellness-entitlements/services"
)

// SetupWaitlistRoutes proxies signups to the waitlist service. A nil client
// means the integration is not configured.
func SetupWaitlistRoutes(app *fiber.App, client *services.WaitlistClient, log *logger.Logger) {
	app.Post("/waitlist", func(c *fiber.Ctx) error {
		if client == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "waitlist is not configured"})
		}
		var req struct {
			Email        string `json:"email"`
			ReferralCode string `json:"referral_code"`
			Source       string `json:"source"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if _, err := services.NormalizeEmail(req.Email); err != nil {
			return respondError(c, err)
		}
		if c.QueryBool("async") {
			client.SubmitAsync(req.Email, req.ReferralCode, req.Source)
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "waitlist signup queued"})
		}
		entry, err := client.SubmitEntry(c.UserContext(), req.Email, req.ReferralCode, req.Source)
		if err != nil {
			log.Warn("Waitlist proxy failed", "error", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "waitlist signup failed", "cause": err.Error()})
		}
		return c.JSON(entry)
	})
}
