package services

import (
	"context"
	"strings"

	"continental/internal/captcha"
	"continental/internal/domain"
	"continental/internal/errs"
	"continental/internal/metrics"
	"continental/internal/repos"
	"continental/internal/validate"
)

// EnquiryInput is the public enquiry form body.
type EnquiryInput struct {
	EnquiryType    string `json:"enquiry_type" validate:"required,oneof=GENERAL PRODUCT"`
	ProductName    string `json:"product_name" validate:"required_if=EnquiryType PRODUCT,max=255"`
	ProductSlug    string `json:"product_slug" validate:"required_if=EnquiryType PRODUCT,max=255"`
	ProductURL     string `json:"product_url" validate:"max=500"`
	FullName       string `json:"full_name" validate:"required,person"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Phone          string `json:"phone" validate:"omitempty,phone"`
	Company        string `json:"company" validate:"max=255"`
	Quantity       *int64 `json:"quantity" validate:"omitempty,gt=0"`
	Subject        string `json:"subject" validate:"max=255"`
	Message        string `json:"message" validate:"required,max=5000"`
	TechnicalSpecs string `json:"technical_specs" validate:"max=5000"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// ContactInput is the short contact-us form.
type ContactInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// AsEnquiry maps the contact form onto a GENERAL enquiry.
func (c ContactInput) AsEnquiry() EnquiryInput {
	return EnquiryInput{
		EnquiryType:    domain.EnquiryGeneral,
		FullName:       c.Name,
		Email:          c.Email,
		Message:        c.Message,
		Subject:        "Contact form",
		RecaptchaToken: c.RecaptchaToken,
	}
}

func (in *EnquiryInput) trim() {
	for _, f := range []*string{&in.EnquiryType, &in.ProductName, &in.ProductSlug, &in.ProductURL, &in.FullName,
		&in.Email, &in.Phone, &in.Company, &in.Subject, &in.Message, &in.TechnicalSpecs, &in.RecaptchaToken} {
		*f = strings.TrimSpace(*f)
	}
	in.EnquiryType = strings.ToUpper(in.EnquiryType)
}

type EnquiryService struct {
	Repo     *repos.EnquiryRepo
	Captcha  captcha.Verifier
	MinScore float64
	Metrics  *metrics.Metrics
}

func NewEnquiryService(repo *repos.EnquiryRepo, verifier captcha.Verifier, minScore float64, m *metrics.Metrics) *EnquiryService {
	return &EnquiryService{Repo: repo, Captcha: verifier, MinScore: minScore, Metrics: m}
}

// Submit verifies the bot token before anything else, then validates and
// stores the enquiry as NEW / MEDIUM.
func (s *EnquiryService) Submit(ctx context.Context, in EnquiryInput, remoteIP string) (int64, error) {
	in.trim()

	if in.RecaptchaToken == "" {
		s.Metrics.EnquiryRejected("captcha_missing")
		return 0, errs.New(errs.CodeValidation, "Recaptcha token missing")
	}
	if s.Captcha == nil {
		s.Metrics.EnquiryRejected("captcha_config")
		return 0, errs.New(errs.CodeConfig, "Server configuration error")
	}
	res, err := s.Captcha.Verify(ctx, in.RecaptchaToken, remoteIP)
	if err != nil {
		switch {
		case errs.IsCode(err, errs.CodeConfig):
			s.Metrics.EnquiryRejected("captcha_config")
		default:
			s.Metrics.EnquiryRejected("captcha_unavailable")
		}
		return 0, err
	}
	if !captcha.Accept(res, s.MinScore) {
		s.Metrics.EnquiryRejected("captcha_failed")
		return 0, errs.New(errs.CodeValidation, "Verification failed. Please try again.")
	}

	if err := validate.Struct(&in); err != nil {
		s.Metrics.EnquiryRejected("validation")
		return 0, err
	}

	e := domain.Enquiry{
		EnquiryType:    in.EnquiryType,
		ProductName:    optional(in.ProductName),
		ProductSlug:    optional(in.ProductSlug),
		ProductURL:     optional(in.ProductURL),
		FullName:       in.FullName,
		Email:          in.Email,
		Phone:          optional(in.Phone),
		Company:        optional(in.Company),
		Quantity:       in.Quantity,
		Subject:        optional(in.Subject),
		Message:        in.Message,
		TechnicalSpecs: optional(in.TechnicalSpecs),
		Status:         domain.EnquiryNew,
		Priority:       domain.PriorityMedium,
	}
	id, err := s.Repo.Create(ctx, e)
	if err != nil {
		return 0, errs.Wrap(errs.CodeInternal, err, "Failed to send enquiry")
	}
	s.Metrics.EnquiryAccepted(e.EnquiryType)
	return id, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type EnquiryList struct {
	Items []domain.Enquiry `json:"enquiries"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Pages int              `json:"total_pages"`
}

func (s *EnquiryService) List(ctx context.Context, f domain.EnquiryFilter) (EnquiryList, error) {
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if f.Status != "" && !domain.ValidEnquiryStatus(f.Status) {
		return EnquiryList{}, errs.Newf(errs.CodeValidation, "Unknown status %q", f.Status)
	}
	if f.Type != "" && !domain.ValidEnquiryType(f.Type) {
		return EnquiryList{}, errs.Newf(errs.CodeValidation, "Unknown enquiry type %q", f.Type)
	}
	f.Page = domain.ClampPage(f.Page)
	items, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return EnquiryList{}, errs.Wrap(errs.CodeInternal, err, "list enquiries")
	}
	return EnquiryList{Items: items, Total: total, Page: f.Page, Pages: pages(total, repos.EnquiryPageSize)}, nil
}

type TriageInput struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// Triage updates status and/or priority and returns the stored enquiry.
func (s *EnquiryService) Triage(ctx context.Context, id int64, in TriageInput) (domain.Enquiry, error) {
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	priority := strings.ToUpper(strings.TrimSpace(in.Priority))
	if status == "" && priority == "" {
		return domain.Enquiry{}, errs.New(errs.CodeValidation, "status or priority is required")
	}
	if status != "" && !domain.ValidEnquiryStatus(status) {
		return domain.Enquiry{}, errs.Newf(errs.CodeValidation, "Unknown status %q", in.Status)
	}
	if priority != "" && !domain.ValidPriority(priority) {
		return domain.Enquiry{}, errs.Newf(errs.CodeValidation, "Unknown priority %q", in.Priority)
	}
	ok, err := s.Repo.UpdateTriage(ctx, id, status, priority)
	if err != nil {
		return domain.Enquiry{}, errs.Wrap(errs.CodeInternal, err, "update enquiry")
	}
	if !ok {
		return domain.Enquiry{}, errs.New(errs.CodeNotFound, "Enquiry not found")
	}
	e, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.Enquiry{}, errs.Wrap(errs.CodeInternal, err, "load enquiry")
	}
	return e, nil
}
