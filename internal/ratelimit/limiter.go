package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "continental/internal/log"
)

// Rule describes one limiter instance.
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
	// Skip exempts matching requests.
	Skip func(c *fiber.Ctx) bool
}

// New builds a per-IP limiter. A nil storage keeps counters in memory.
func New(rule Rule, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        rule.Max,
		Expiration: rule.Window,
		Next:       rule.Skip,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + rule.Name
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+rule.Name+".hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests. Please try again later."})
		},
	})
}
