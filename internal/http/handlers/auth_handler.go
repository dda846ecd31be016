package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"continental/internal/auth"
	"continental/internal/errs"
	applog "continental/internal/log"
	"continental/internal/services"
)

type AuthHandler struct {
	Auth         *services.AuthService
	SecureCookie bool
}

type loginInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// POST /api/admin/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "auth.login.fail", err)
	}
	tok, who, err := h.Auth.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		if errs.IsCode(err, errs.CodeUnauthorized) {
			applog.Security(c, "auth.login.fail", map[string]any{"username": in.Username})
		}
		return apiError(c, "auth.login.fail", err)
	}
	h.setCookie(c, tok, who.ExpiresAt)
	auth.Store(c, who)
	applog.Audit(c, "auth.login.success", map[string]any{"username": who.Username})
	return c.JSON(fiber.Map{"success": true, "admin": who})
}

// POST /api/admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.setCookie(c, "", time.Now().Add(-time.Hour))
	applog.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"success": true})
}

// GET /api/admin/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "admin": auth.FromCtx(c)})
}
