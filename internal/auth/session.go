package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"continental/internal/config"
)

const (
	CookieName = "admin_token"
	localsKey  = "session"
)

// Session is either Anonymous or Admin.
type Session interface {
	isSession()
}

type Anonymous struct{}

type Admin struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (Anonymous) isSession() {}
func (Admin) isSession()     {}

// Resolve turns a raw token into a session. Any failure is Anonymous.
func Resolve(cfg config.JWTConfig, raw string) Session {
	if raw == "" {
		return Anonymous{}
	}
	claims, err := Parse(cfg, raw)
	if err != nil {
		return Anonymous{}
	}
	id, err := claims.AdminID()
	if err != nil || id <= 0 {
		return Anonymous{}
	}
	return Admin{ID: id, Username: claims.Username, ExpiresAt: claims.ExpiresAt.Time}
}

// TokenFrom prefers the session cookie and falls back to a bearer header.
func TokenFrom(c *fiber.Ctx) string {
	if tok := c.Cookies(CookieName); tok != "" {
		return tok
	}
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func Store(c *fiber.Ctx, s Session) {
	c.Locals(localsKey, s)
	if a, ok := s.(Admin); ok {
		c.Locals("admin_id", a.ID)
	}
}

// FromCtx returns the session set by Store, or Anonymous.
func FromCtx(c *fiber.Ctx) Session {
	if s, ok := c.Locals(localsKey).(Session); ok && s != nil {
		return s
	}
	return Anonymous{}
}
