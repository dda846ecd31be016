package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"continental/internal/domain"
	"continental/internal/errs"
	applog "continental/internal/log"
	"continental/internal/services"
	"continental/internal/validate"
)

type EnquiryHandler struct {
	Enquiry *services.EnquiryService
}

// decode parses a JSON (or form) body into dst without validating it.
func decode(c *fiber.Ctx, dst any) error {
	if len(bytes.TrimSpace(c.Body())) == 0 {
		return errs.New(errs.CodeValidation, "request body is required")
	}
	if err := c.BodyParser(dst); err != nil {
		return errs.Wrap(errs.CodeValidation, err, "invalid request body")
	}
	return nil
}

// POST /api/enquiries
func (h *EnquiryHandler) Submit(c *fiber.Ctx) error {
	var in services.EnquiryInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "enquiry.decode.fail", err)
	}
	return h.submit(c, in)
}

// POST /api/contact
func (h *EnquiryHandler) Contact(c *fiber.Ctx) error {
	var in services.ContactInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "contact.decode.fail", err)
	}
	return h.submit(c, in.AsEnquiry())
}

func (h *EnquiryHandler) submit(c *fiber.Ctx, in services.EnquiryInput) error {
	id, err := h.Enquiry.Submit(c.UserContext(), in, c.IP())
	if err != nil {
		return apiError(c, "enquiry.submit.fail", err)
	}
	applog.Audit(c, "enquiry.submit", map[string]any{"enquiry_id": id, "type": in.EnquiryType})
	return c.JSON(fiber.Map{"success": true})
}

// GET /api/admin/enquiries?status=&type=&page=
func (h *EnquiryHandler) List(c *fiber.Ctx) error {
	out, err := h.Enquiry.List(c.UserContext(), domain.EnquiryFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Page:   validate.Page(c.Query("page")),
	})
	if err != nil {
		return apiError(c, "admin.enquiries.list.fail", err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"enquiries":   out.Items,
		"total":       out.Total,
		"page":        out.Page,
		"total_pages": out.Pages,
	})
}

// PATCH /api/admin/enquiries/:id
func (h *EnquiryHandler) Triage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apiError(c, "admin.enquiries.triage.fail", errs.New(errs.CodeValidation, "Invalid enquiry id"))
	}
	var in services.TriageInput
	if err := decode(c, &in); err != nil {
		return apiError(c, "admin.enquiries.triage.fail", err)
	}
	e, err := h.Enquiry.Triage(c.UserContext(), id, in)
	if err != nil {
		return apiError(c, "admin.enquiries.triage.fail", err)
	}
	applog.Audit(c, "admin.enquiries.triage", map[string]any{"enquiry_id": id, "status": e.Status, "priority": e.Priority})
	return c.JSON(fiber.Map{"success": true, "enquiry": e})
}
