package handlers

import (
	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/logger"
	"wellness-entitlements/middleware"
	"wellness-entitlements/models"
	"wellness-entitlements/services"
)

func SetupContentRoutes(app *fiber.App, engine *services.Engine, catalog *services.ContentCatalog, log *logger.Logger) {
	content := app.Group("/content", middleware.UserContextMiddleware(log))

	content.Get("/:domain", func(c *fiber.Ctx) error {
		items, err := catalog.List(c.UserContext(), models.ContentDomain(c.Params("domain")))
		if err != nil {
			return respondError(c, err)
		}
		p, err := engine.Repo.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(engine.Access.Annotate(p, items))
	})

	content.Post("/:id/acquire", func(c *fiber.Ctx) error {
		item, err := catalog.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		receipt, err := engine.Access.Acquire(c.UserContext(), middleware.UserID(c), item)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(receipt)
	})
}
