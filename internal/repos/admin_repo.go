package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"continental/internal/domain"
)

type AdminRepo struct{ DB *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) ByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	var u domain.AdminUser
	err := r.DB.GetContext(ctx, &u, `SELECT id,username,password_hash,created_at FROM admin_users WHERE LOWER(username)=LOWER(?)`, username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminRepo) ByID(ctx context.Context, id int64) (*domain.AdminUser, error) {
	var u domain.AdminUser
	err := r.DB.GetContext(ctx, &u, `SELECT id,username,password_hash,created_at FROM admin_users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
