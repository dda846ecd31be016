package handlers

import (
	"github.com/gofiber/fiber/v2"

	"continental/internal/auth"
	applog "continental/internal/log"
	"continental/internal/services"
)

// Authenticate resolves the request's token into a session for later handlers.
func Authenticate(svc *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth.Store(c, svc.Session(c.UserContext(), auth.TokenFrom(c)))
		return c.Next()
	}
}

// RequireAdmin lets only Admin sessions through.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch auth.FromCtx(c).(type) {
		case auth.Admin:
			return c.Next()
		default:
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
	}
}
