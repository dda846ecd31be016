package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"continental/internal/errs"
	applog "continental/internal/log"
)

const friendlyError = "Something went wrong. Please try again."

// apiError writes {"error": msg} with the status mapped from err. Server
// side failures are logged and never echoed.
func apiError(c *fiber.Ctx, action string, err error) error {
	status, msg := errs.Public(err)
	switch {
	case status >= fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
	case status == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// pageError renders the notfound page with the mapped status.
func pageError(c *fiber.Ctx, action string, err error) error {
	status, msg := errs.Public(err)
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
		msg = friendlyError
	}
	c.Status(status)
	return render(c, "notfound", fiber.Map{"Message": msg, "Title": "Not found"})
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.App().Config().Views == nil || strings.HasPrefix(c.Path(), "/api/")
}

// ErrorHandler is the app-wide fallback for errors handlers did not answer.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, msg := fiber.StatusInternalServerError, friendlyError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		if status < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	case errs.As(err) != nil:
		status, msg = errs.Public(err)
	}
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		msg = friendlyError
	}

	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	c.Status(status)
	if rerr := render(c, "notfound", fiber.Map{"Message": msg, "Title": "Error"}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}
