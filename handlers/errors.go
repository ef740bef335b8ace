package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wellness-entitlements/services"
)

// respondError maps engine errors to HTTP responses. Gating failures are
// ordinary outcomes the UI renders as locked/upsell states.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr   *services.ValidationError
		locked *services.TierLockedError
		funds  *services.InsufficientFundsError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      "template validation failed",
			"code":       "validation_failed",
			"violations": verr.Violations,
		})
	case errors.As(err, &locked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":         err.Error(),
			"code":          "tier_locked",
			"required_tier": locked.RequiredTier,
			"current_tier":  locked.CurrentTier,
		})
	case errors.As(err, &funds):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":     err.Error(),
			"code":      "insufficient_funds",
			"required":  funds.Required,
			"available": funds.Available,
		})
	case errors.Is(err, services.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "invalid_amount"})
	case errors.Is(err, services.ErrBalanceOverflow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "balance_overflow"})
	case errors.Is(err, services.ErrInvalidEmail):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "invalid_email"})
	case errors.Is(err, services.ErrUnknownAchievement),
		errors.Is(err, services.ErrUnknownContent),
		errors.Is(err, services.ErrUnknownDomain):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
			"code":  "internal",
			"cause": err.Error(),
		})
	}
}

func badRequest(c *fiber.Ctx, msg string, cause error) error {
	body := fiber.Map{"error": msg, "code": "bad_request"}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
