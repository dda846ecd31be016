package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"continental/internal/domain"
)

// EnquiryPageSize is the admin inbox page size.
const EnquiryPageSize = 25

type EnquiryRepo struct{ db *sqlx.DB }

func NewEnquiryRepo(db *sqlx.DB) *EnquiryRepo { return &EnquiryRepo{db: db} }

const enquiryCols = `id, enquiry_type, product_name, product_slug, product_url, full_name, email, phone,
    company, quantity, subject, message, technical_specs, status, priority, created_at`

func (r *EnquiryRepo) Create(ctx context.Context, e domain.Enquiry) (int64, error) {
	res, err := r.db.NamedExecContext(ctx, `
  INSERT INTO enquiries(enquiry_type, product_name, product_slug, product_url, full_name, email, phone,
    company, quantity, subject, message, technical_specs, status, priority)
  VALUES(:enquiry_type, :product_name, :product_slug, :product_url, :full_name, :email, :phone,
    :company, :quantity, :subject, :message, :technical_specs, :status, :priority)`, e)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *EnquiryRepo) Get(ctx context.Context, id int64) (domain.Enquiry, error) {
	var e domain.Enquiry
	err := r.db.GetContext(ctx, &e, `SELECT `+enquiryCols+` FROM enquiries WHERE id = ?`, id)
	return e, err
}

// List returns a page of enquiries, newest first, with the filtered total.
func (r *EnquiryRepo) List(ctx context.Context, f domain.EnquiryFilter) ([]domain.Enquiry, int, error) {
	var status, kind Pred
	if f.Status != "" {
		status = Eq("status", f.Status)
	}
	if f.Type != "" {
		kind = Eq("enquiry_type", f.Type)
	}
	where, args := Compile(And(status, kind))

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM enquiries WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	page := domain.ClampPage(f.Page)
	out := []domain.Enquiry{}
	pageArgs := append(append([]any{}, args...), EnquiryPageSize, (page-1)*EnquiryPageSize)
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+enquiryCols+` FROM enquiries WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		pageArgs...)
	return out, total, err
}

// UpdateTriage sets status and/or priority; empty values are left alone.
func (r *EnquiryRepo) UpdateTriage(ctx context.Context, id int64, status, priority string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
  UPDATE enquiries SET
    status = COALESCE(NULLIF(?, ''), status),
    priority = COALESCE(NULLIF(?, ''), priority)
  WHERE id = ?`, status, priority, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
