package captcha

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"continental/internal/errs"
)

// Result is the verification service verdict.
type Result struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verifier checks a client token with the bot-verification service.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (Result, error)
}

// Recaptcha talks to a siteverify endpoint with fiber's HTTP client.
type Recaptcha struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

func NewRecaptcha(secret, verifyURL string, timeout time.Duration) *Recaptcha {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recaptcha{Secret: secret, VerifyURL: verifyURL, Timeout: timeout}
}

// Verify returns CodeConfig without a secret and CodeDependency when the
// service cannot be reached or answers garbage.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) (Result, error) {
	if strings.TrimSpace(r.Secret) == "" {
		return Result{}, errs.New(errs.CodeConfig, "Server configuration error")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, errs.Wrap(errs.CodeDependency, err, "verification cancelled")
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("secret", r.Secret)
	args.Set("response", token)
	if remoteIP != "" {
		args.Set("remoteip", remoteIP)
	}

	agent := fiber.Post(r.VerifyURL).Form(args).Timeout(r.Timeout)
	var res Result
	status, _, errList := agent.Struct(&res)
	if len(errList) > 0 {
		return Result{}, errs.Wrap(errs.CodeDependency, errList[0], "Could not reach verification service")
	}
	if status != fiber.StatusOK {
		return Result{}, errs.Wrap(errs.CodeDependency, fmt.Errorf("status %d", status), "Verification service error")
	}
	return res, nil
}

// Accept applies the score floor. A score equal to min passes.
func Accept(res Result, min float64) bool {
	return res.Success && res.Score >= min
}
