package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"continental/internal/domain"
)

type MaterialRepo struct{ db *sqlx.DB }

func NewMaterialRepo(db *sqlx.DB) *MaterialRepo { return &MaterialRepo{db: db} }

const materialCols = `id, name, grades, created_at, updated_at`

func (r *MaterialRepo) List(ctx context.Context) ([]domain.Material, error) {
	out := []domain.Material{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+materialCols+` FROM materials ORDER BY name`)
	return out, err
}

func (r *MaterialRepo) Get(ctx context.Context, id int64) (domain.Material, error) {
	var m domain.Material
	err := r.db.GetContext(ctx, &m, `SELECT `+materialCols+` FROM materials WHERE id = ?`, id)
	return m, err
}

func (r *MaterialRepo) ByName(ctx context.Context, name string) (domain.Material, error) {
	var m domain.Material
	err := r.db.GetContext(ctx, &m, `SELECT `+materialCols+` FROM materials WHERE LOWER(name) = LOWER(?)`, name)
	return m, err
}

func (r *MaterialRepo) Create(ctx context.Context, name string, grades domain.Grades) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO materials(name, grades) VALUES(?, ?)`, name, grades)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *MaterialRepo) Update(ctx context.Context, id int64, name string, grades domain.Grades) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE materials SET name = ?, grades = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, grades, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *MaterialRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// TierUses counts pricing tiers priced in the material.
func (r *MaterialRepo) TierUses(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM product_pricing WHERE material_id = ?`, id)
	return n, err
}

func (r *MaterialRepo) Names(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `SELECT name FROM materials ORDER BY name`)
	return out, err
}
