package handlers

import (
	"github.com/jmoiron/sqlx"

	"continental/internal/captcha"
	"continental/internal/config"
	"continental/internal/metrics"
	"continental/internal/repos"
	"continental/internal/services"
	"continental/internal/storage"
)

type Deps struct {
	Storefront *StorefrontHandler
	Enquiry    *EnquiryHandler
	Admin      *AdminHandler
	Auth       *AuthHandler

	AuthSvc *services.AuthService
	Media   *storage.Media
}

// NewDeps wires repositories, services and handlers over one database.
func NewDeps(db *sqlx.DB, cfg config.Config, verifier captcha.Verifier, m *metrics.Metrics) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	matRepo := repos.NewMaterialRepo(db)
	prodRepo := repos.NewProductRepo(db)
	homeRepo := repos.NewHomepageRepo(db)
	enqRepo := repos.NewEnquiryRepo(db)
	adminRepo := repos.NewAdminRepo(db)

	media := storage.NewMedia(cfg.Media.Dir, cfg.Media.PublicPrefix, int64(cfg.Media.MaxUploadBytes()))

	catalogSvc := services.NewCatalogService(catRepo, matRepo, prodRepo, homeRepo)
	enquirySvc := services.NewEnquiryService(enqRepo, verifier, cfg.Captcha.MinScore, m)
	adminSvc := services.NewAdminService(catRepo, matRepo, prodRepo, homeRepo, media)
	authSvc := services.NewAuthService(adminRepo, cfg.JWT)

	return &Deps{
		Storefront: &StorefrontHandler{Catalog: catalogSvc, SiteURL: cfg.App.SiteURL, SiteKey: cfg.Captcha.SiteKey},
		Enquiry:    &EnquiryHandler{Enquiry: enquirySvc},
		Admin:      &AdminHandler{Admin: adminSvc},
		Auth:       &AuthHandler{Auth: authSvc, SecureCookie: cfg.App.IsProd()},
		AuthSvc:    authSvc,
		Media:      media,
	}
}
