// handlers/progression_routes.go
package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/logger"
	"wellness-entitlements/middleware"
	"wellness-entitlements/models"
	"wellness-entitlements/services"
)

// maxAdminGrant caps a single manual MP grant.
const maxAdminGrant = 1_000_000

// LedgerHistory reads the durable MP audit trail, which outlives the capped
// in-snapshot feed. Entries appear once the snapshot writer has flushed them.
type LedgerHistory interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error)
}

func SetupProgressionRoutes(app *fiber.App, engine *services.Engine, history LedgerHistory, log *logger.Logger) {
	user := app.Group("/user", middleware.UserContextMiddleware(log))

	user.Get("/progress", func(c *fiber.Ctx) error {
		overview, err := engine.Overview(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(overview)
	})

	user.Get("/progress/achievements", func(c *fiber.Ctx) error {
		snap, err := engine.Tracker.ProgressSnapshot(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(snap)
	})

	user.Post("/progress/achievements/:id", func(c *fiber.Ctx) error {
		var req struct {
			Delta float64 `json:"delta"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		res, err := engine.Tracker.RecordProgress(c.UserContext(), middleware.UserID(c), c.Params("id"), req.Delta)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Post("/progress/achievements/:id/complete", func(c *fiber.Ctx) error {
		res, err := engine.Tracker.Complete(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	user.Post("/activity", func(c *fiber.Ctx) error {
		var ev services.ActivityEvent
		if err := c.BodyParser(&ev); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(string(ev.Kind)) == "" {
			return badRequest(c, "kind is required", nil)
		}
		results, err := engine.Tracker.RecordActivity(c.UserContext(), middleware.UserID(c), ev)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"results": results})
	})

	user.Get("/mp", func(c *fiber.Ctx) error {
		bal, err := engine.Ledger.Balance(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(bal)
	})

	user.Get("/mp/activity", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		entries, err := engine.Ledger.RecentActivity(c.UserContext(), middleware.UserID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		if entries == nil {
			entries = []models.LedgerEntry{}
		}
		return c.JSON(entries)
	})

	user.Get("/mp/history", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		entries, err := history.Recent(c.UserContext(), middleware.UserID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		if entries == nil {
			entries = []models.LedgerEntry{}
		}
		return c.JSON(entries)
	})

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(log), middleware.RequireRole("admin"))

	admin.Post("/mp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if strings.TrimSpace(req.UserID) == "" {
			return badRequest(c, "user_id is required", nil)
		}
		if req.Amount > maxAdminGrant {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "amount exceeds the per-grant limit",
				"code":  "grant_too_large",
				"limit": maxAdminGrant,
			})
		}
		reason := "admin_grant"
		if r := strings.TrimSpace(req.Reason); r != "" {
			reason = "admin_grant:" + r
		}
		bal, err := engine.Ledger.Earn(c.UserContext(), req.UserID, req.Amount, reason)
		if err != nil {
			return respondError(c, err)
		}
		log.Info("MP granted by admin", "admin_id", middleware.UserID(c), "user_id", req.UserID, "amount", req.Amount)
		return c.JSON(fiber.Map{
			"message": "MP granted successfully",
			"user_id": req.UserID,
			"balance": bal,
		})
	})
}
