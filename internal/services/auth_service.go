package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"continental/internal/auth"
	"continental/internal/config"
	"continental/internal/errs"
	"continental/internal/repos"
)

var ErrBadCreds = errs.New(errs.CodeUnauthorized, "Invalid username or password")

type AuthService struct {
	Admins *repos.AdminRepo
	JWT    config.JWTConfig
	Now    func() time.Time
}

func NewAuthService(admins *repos.AdminRepo, jwt config.JWTConfig) *AuthService {
	return &AuthService{Admins: admins, JWT: jwt, Now: time.Now}
}

// Login checks the bcrypt hash and mints a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, auth.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", auth.Admin{}, errs.New(errs.CodeValidation, "Username and password are required")
	}
	u, err := s.Admins.ByUsername(ctx, username)
	if err != nil {
		if repos.IsNotFound(err) {
			return "", auth.Admin{}, ErrBadCreds
		}
		return "", auth.Admin{}, errs.Wrap(errs.CodeInternal, err, "load admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", auth.Admin{}, ErrBadCreds
	}
	tok, exp, err := auth.Mint(s.JWT, s.Now(), u.ID, u.Username)
	if err != nil {
		return "", auth.Admin{}, errs.Wrap(errs.CodeInternal, err, "issue session")
	}
	return tok, auth.Admin{ID: u.ID, Username: u.Username, ExpiresAt: exp}, nil
}

// Session resolves a raw token. Tokens for deleted admins resolve to Anonymous.
func (s *AuthService) Session(ctx context.Context, raw string) auth.Session {
	sess := auth.Resolve(s.JWT, raw)
	a, ok := sess.(auth.Admin)
	if !ok {
		return sess
	}
	if _, err := s.Admins.ByID(ctx, a.ID); err != nil {
		return auth.Anonymous{}
	}
	return a
}
