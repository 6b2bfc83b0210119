package handlers

import (
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"
	config "github.com/topcx/autoposter/configs"
	"github.com/topcx/autoposter/internal/service"
	"github.com/topcx/autoposter/internal/transfer"
)

type AuthHandler struct {
	cfg config.Config
	s   service.AuthService
	ls  service.LinkedinService
}

func NewAuthHandler(cfg config.Config, s service.AuthService, ls service.LinkedinService) *AuthHandler {
	return &AuthHandler{cfg: cfg, s: s, ls: ls}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	token, err := h.s.Login(req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.s.SessionDuration().Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"authenticated": true})
}

func (h *AuthHandler) LinkedinInitiate(c *fiber.Ctx) error {
	authURL, err := h.ls.AuthURL()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": authURL})
}

// LinkedinCallback finishes the OAuth flow and redirects back to the
// frontend either way.
func (h *AuthHandler) LinkedinCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if err := h.ls.HandleCallback(c.Context(), code, state); err != nil {
		slog.Info("LinkedIn callback failed: " + err.Error())
		return c.Redirect(h.cfg.FrontendURL+"?linkedin=error&message="+url.QueryEscape(err.Error()), fiber.StatusFound)
	}

	return c.Redirect(h.cfg.FrontendURL+"?linkedin=connected", fiber.StatusFound)
}

func (h *AuthHandler) LinkedinStatus(c *fiber.Ctx) error {
	status, err := h.ls.ConnectionStatus(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *AuthHandler) LinkedinDisconnect(c *fiber.Ctx) error {
	if err := h.ls.Disconnect(c.Context()); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
