package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"continental/internal/domain"
)

type HomepageRepo struct{ db *sqlx.DB }

func NewHomepageRepo(db *sqlx.DB) *HomepageRepo { return &HomepageRepo{db: db} }

func (r *HomepageRepo) All(ctx context.Context) ([]domain.HomepageItem, error) {
	out := []domain.HomepageItem{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT section_key, item_id, sort_order FROM homepage_items ORDER BY section_key, sort_order`)
	return out, err
}

// SectionIDs returns the curated ids of one section in display order.
func (r *HomepageRepo) SectionIDs(ctx context.Context, section string) ([]int64, error) {
	out := []int64{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT item_id FROM homepage_items WHERE section_key = ? ORDER BY sort_order`, section)
	return out, err
}

// ReplaceSection swaps a section's items for ids, with sort_order = index.
func (r *HomepageRepo) ReplaceSection(ctx context.Context, section string, ids []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM homepage_items WHERE section_key = ?`, section); err != nil {
		return err
	}
	if len(ids) > 0 {
		rows := make([]domain.HomepageItem, len(ids))
		for i, id := range ids {
			rows[i] = domain.HomepageItem{SectionKey: section, ItemID: id, SortOrder: i}
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO homepage_items(section_key, item_id, sort_order) VALUES(:section_key, :item_id, :sort_order)`,
			rows); err != nil {
			return err
		}
	}
	return tx.Commit()
}
