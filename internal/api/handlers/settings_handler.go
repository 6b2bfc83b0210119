package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/internal/service"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(s service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: s}
}

func (h *SettingsHandler) GetSchedule(c *fiber.Ctx) error {
	settings, err := h.s.GetScheduleSettings(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) UpdateSchedule(c *fiber.Ctx) error {
	var settings models.ScheduleSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.UpdateScheduleSettings(c.Context(), settings); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) GetAI(c *fiber.Ctx) error {
	settings, err := h.s.GetAISettings(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) UpdateAI(c *fiber.Ctx) error {
	var settings models.AISettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.UpdateAISettings(c.Context(), settings); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}
