package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"continental/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, created_at, updated_at`

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+categoryCols+` FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return c, err
}

// ByIDs returns categories in the order of ids; unknown ids are skipped.
func (r *CategoryRepo) ByIDs(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	q, args, err := sqlx.In(`SELECT `+categoryCols+` FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Category
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Category, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CategoryRepo) Create(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories(name) VALUES(?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update returns false when no row has the id.
func (r *CategoryRepo) Update(ctx context.Context, id int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// InUse counts products that reference the category.
func (r *CategoryRepo) InUse(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE category_id = ?`, id)
	return n, err
}

func (r *CategoryRepo) Names(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `SELECT name FROM categories ORDER BY name`)
	return out, err
}
