package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/topcx/autoposter/internal/apperrors"
)

// errorResponse maps the error taxonomy onto HTTP statuses.
func errorResponse(c *fiber.Ctx, err error) error {
	var validation *apperrors.ValidationError
	var publish *apperrors.PublishError

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validation.Message})
	case errors.Is(err, apperrors.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, apperrors.ErrStatusConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotConnected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "LinkedIn not connected"})
	case errors.As(err, &publish):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": publish.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
