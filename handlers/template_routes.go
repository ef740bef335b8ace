package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/logger"
	"wellness-entitlements/middleware"
	"wellness-entitlements/models"
	"wellness-entitlements/services"
)

func SetupTemplateRoutes(app *fiber.App, engine *services.Engine, publisher *services.TemplatePublisher, log *logger.Logger) {
	// 🔓 Community library
	app.Get("/templates/published", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		list, err := publisher.ListPublished(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	})

	// 🔐 Authoring
	tpl := app.Group("/templates", middleware.UserContextMiddleware(log))

	tpl.Get("/limits", func(c *fiber.Ctx) error {
		tier, err := publisher.AuthorTier(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(engine.TemplateLimitsFor(tier))
	})

	tpl.Post("/validate", func(c *fiber.Ctx) error {
		var draft models.TemplateDraft
		if err := c.BodyParser(&draft); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		tier, violations, err := publisher.Validate(c.UserContext(), middleware.UserID(c), draft)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"tier":       tier.ID,
			"valid":      len(violations) == 0,
			"violations": violations,
		})
	})

	tpl.Post("/reorder", func(c *fiber.Ctx) error {
		var req struct {
			Draft     models.TemplateDraft `json:"draft"`
			Index     int                  `json:"index"`
			Direction services.Direction   `json:"direction"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.Direction != services.DirectionUp && req.Direction != services.DirectionDown {
			return badRequest(c, "direction must be up or down", nil)
		}
		return c.JSON(services.ReorderStep(req.Draft, req.Index, req.Direction))
	})

	tpl.Post("/publish", func(c *fiber.Ctx) error {
		var draft models.TemplateDraft
		if err := c.BodyParser(&draft); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		published, err := publisher.Publish(c.UserContext(), middleware.UserID(c), draft)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(published)
	})
}
