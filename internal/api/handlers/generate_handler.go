package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/topcx/autoposter/internal/service"
	"github.com/topcx/autoposter/internal/transfer"
)

type GenerateHandler struct {
	s service.GenerateService
}

func NewGenerateHandler(s service.GenerateService) *GenerateHandler {
	return &GenerateHandler{s: s}
}

func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	variants, err := h.s.Generate(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"variants": variants})
}

func (h *GenerateHandler) Improve(c *fiber.Ctx) error {
	var req transfer.ImproveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	improved, err := h.s.Improve(c.Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"improved": improved})
}
