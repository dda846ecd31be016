package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"continental/internal/domain"
	"continental/internal/errs"
)

var (
	rePhone   = regexp.MustCompile(`^[0-9]{10,15}$`)
	rePerson  = regexp.MustCompile(`^[\p{L} .'\-]{1,100}$`)
	reSlug    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	reSection = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = val.RegisterValidation("slug", func(fl validator.FieldLevel) bool { return reSlug.MatchString(fl.Field().String()) })
	_ = val.RegisterValidation("person", func(fl validator.FieldLevel) bool { return rePerson.MatchString(fl.Field().String()) })
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool { return rePhone.MatchString(fl.Field().String()) })
	_ = val.RegisterValidation("section", func(fl validator.FieldLevel) bool {
		return reSection.MatchString(fl.Field().String())
	})
	return val
}

// Struct runs the struct tags and returns a validation error naming the first bad field.
func Struct(dst any) error {
	if err := v.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
			return errs.New(errs.CodeValidation, message(fieldErrs[0]))
		}
		return errs.Wrap(errs.CodeValidation, err, "validation failed")
	}
	return nil
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*out = ve
	}
	return ok
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "phone":
		return "Phone number must be 10-15 digits"
	case "person":
		return "Name may only contain letters, spaces and dots"
	case "slug":
		return "Slug may only contain lowercase letters, digits and single hyphens"
	case "section":
		return "Invalid section key"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be positive", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}

func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 191 && reSlug.MatchString(s)
}

// Page parses a 1-based page number; junk becomes 1 and the result is
// clamped to domain.MaxPage.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 1
	}
	return domain.ClampPage(n)
}

// ID parses a positive row id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n > 0
}

// Money parses a non-negative amount. Malformed input yields nil.
func Money(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// List splits a comma separated query value and drops blanks.
func List(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
