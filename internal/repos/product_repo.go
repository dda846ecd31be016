package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"continental/internal/domain"
)

// CatalogPageSize is the fixed listing page size.
const CatalogPageSize = 12

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `p.id, p.title, p.slug, p.category_id, p.material_id, p.sku,
    p.short_description, p.full_description, p.image1_url, p.image2_url, p.image3_url,
    p.og_title, p.og_description, p.twitter_title, p.twitter_description,
    p.facebook_title, p.facebook_description, p.stock_status, p.base_price,
    p.is_offer, p.discount_type, p.discount_value, p.created_at, p.updated_at`

const minTierExpr = `(SELECT MIN(pp.price) FROM product_pricing pp WHERE pp.product_id = p.id)`

const cardFrom = `
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id
  LEFT JOIN materials m ON m.id = p.material_id`

const cardSelect = `SELECT ` + productCols + `,
    COALESCE(c.name, '') AS category_name,
    COALESCE(m.name, '') AS material_name,
    ` + minTierExpr + ` AS min_tier_price` + cardFrom

// tierMaterial matches products with a pricing tier whose material satisfies where.
func tierMaterial(where Pred) Pred {
	return Exists("product_pricing pp JOIN materials pm ON pm.id = pp.material_id", "pp.product_id = p.id", where)
}

func catalogWhere(f domain.CatalogFilter) Pred {
	var search Pred
	if q := strings.TrimSpace(f.Search); q != "" {
		search = Or(
			ContainsFold(q, "p.title", "p.short_description", "c.name", "m.name"),
			tierMaterial(ContainsFold(q, "pm.name")),
		)
	}

	var material Pred
	if len(f.Materials) > 0 {
		material = Or(InStrings("m.name", f.Materials), tierMaterial(InStrings("pm.name", f.Materials)))
	}

	// both bounds must hold on the same tier
	var price Pred
	if f.MinPrice != nil || f.MaxPrice != nil {
		var lo, hi Pred
		if f.MinPrice != nil {
			lo = Gte("pp.price", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			hi = Lte("pp.price", *f.MaxPrice)
		}
		price = Exists("product_pricing pp", "pp.product_id = p.id", And(lo, hi))
	}

	return And(
		search,
		InStrings("c.name", f.Categories),
		material,
		InStrings("p.stock_status", f.Stock),
		price,
	)
}

func catalogOrder(sort string) string {
	display := `COALESCE(` + minTierExpr + `, p.base_price)`
	switch sort {
	case domain.SortNameAsc:
		return `LOWER(p.title) ASC, p.created_at ASC, p.id ASC`
	case domain.SortNameDesc:
		return `LOWER(p.title) DESC, p.created_at ASC, p.id ASC`
	case domain.SortPriceAsc:
		return `CASE WHEN ` + display + ` IS NULL THEN 1 ELSE 0 END, ` + display + ` ASC, p.created_at ASC, p.id ASC`
	case domain.SortPriceDesc:
		return `CASE WHEN ` + display + ` IS NULL THEN 1 ELSE 0 END, ` + display + ` DESC, p.created_at ASC, p.id ASC`
	}
	return `p.created_at DESC, p.id DESC`
}

func pageOffset(page int) int {
	return (domain.ClampPage(page) - 1) * CatalogPageSize
}

// Catalog returns one page of the filtered listing plus the filtered total.
func (r *ProductRepo) Catalog(ctx context.Context, f domain.CatalogFilter) ([]domain.ProductCard, int, error) {
	where, args := Compile(catalogWhere(f))

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+cardFrom+` WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	out := []domain.ProductCard{}
	q := cardSelect + ` WHERE ` + where + ` ORDER BY ` + catalogOrder(f.Sort) + ` LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), CatalogPageSize, pageOffset(f.Page))
	if err := r.db.SelectContext(ctx, &out, q, pageArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ByMaterial lists products whose own or tier material is materialID, by title.
func (r *ProductRepo) ByMaterial(ctx context.Context, materialID int64, page int) ([]domain.ProductCard, int, error) {
	where, args := Compile(Or(
		Eq("p.material_id", materialID),
		Exists("product_pricing pp", "pp.product_id = p.id", Eq("pp.material_id", materialID)),
	))

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+cardFrom+` WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	out := []domain.ProductCard{}
	q := cardSelect + ` WHERE ` + where + ` ORDER BY LOWER(p.title) ASC, p.id ASC LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), CatalogPageSize, pageOffset(page))
	if err := r.db.SelectContext(ctx, &out, q, pageArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ProductRepo) BySlug(ctx context.Context, slug string) (domain.ProductCard, error) {
	var c domain.ProductCard
	err := r.db.GetContext(ctx, &c, cardSelect+` WHERE p.slug = ?`, slug)
	return c, err
}

func (r *ProductRepo) Card(ctx context.Context, id int64) (domain.ProductCard, error) {
	var c domain.ProductCard
	err := r.db.GetContext(ctx, &c, cardSelect+` WHERE p.id = ?`, id)
	return c, err
}

// Tiers returns a product's tiers with material names, ordered for display.
func (r *ProductRepo) Tiers(ctx context.Context, productID int64) ([]domain.PricingTier, error) {
	out := []domain.PricingTier{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT pp.id, pp.product_id, pp.material_id, m.name AS material_name, pp.grade, pp.size, pp.price
  FROM product_pricing pp
  JOIN materials m ON m.id = pp.material_id
  WHERE pp.product_id = ?
  ORDER BY m.name, pp.size, pp.grade, pp.id`, productID)
	return out, err
}

func (r *ProductRepo) Related(ctx context.Context, categoryID, excludeID int64, limit int) ([]domain.ProductCard, error) {
	out := []domain.ProductCard{}
	err := r.db.SelectContext(ctx, &out,
		cardSelect+` WHERE p.category_id = ? AND p.id <> ? ORDER BY p.created_at DESC, p.id DESC LIMIT ?`,
		categoryID, excludeID, limit)
	return out, err
}

func (r *ProductRepo) Offers(ctx context.Context) ([]domain.ProductCard, error) {
	out := []domain.ProductCard{}
	err := r.db.SelectContext(ctx, &out, cardSelect+` WHERE p.is_offer = 1 ORDER BY p.created_at DESC, p.id DESC`)
	return out, err
}

func (r *ProductRepo) Newest(ctx context.Context, limit int) ([]domain.ProductCard, error) {
	out := []domain.ProductCard{}
	err := r.db.SelectContext(ctx, &out, cardSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit)
	return out, err
}

// AdminList returns every product, newest first.
func (r *ProductRepo) AdminList(ctx context.Context) ([]domain.ProductCard, error) {
	out := []domain.ProductCard{}
	err := r.db.SelectContext(ctx, &out, cardSelect+` ORDER BY p.created_at DESC, p.id DESC`)
	return out, err
}

// CardsByIDs returns cards in the order of ids; unknown ids are skipped.
func (r *ProductRepo) CardsByIDs(ctx context.Context, ids []int64) ([]domain.ProductCard, error) {
	if len(ids) == 0 {
		return []domain.ProductCard{}, nil
	}
	q, args, err := sqlx.In(cardSelect+` WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.ProductCard
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.ProductCard, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]domain.ProductCard, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ProductRepo) Suggestions(ctx context.Context, q string, limit int) ([]domain.SearchSuggestion, error) {
	out := []domain.SearchSuggestion{}
	where, args := Compile(ContainsFold(q, "p.title", "c.name"))
	args = append(args, limit)
	err := r.db.SelectContext(ctx, &out, `
  SELECT p.title, p.slug, COALESCE(c.name, '') AS category_name, p.image1_url
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id
  WHERE `+where+`
  ORDER BY LOWER(p.title), p.id
  LIMIT ?`, args...)
	return out, err
}

// SlugExists reports whether another product (not excludeID) uses slug.
func (r *ProductRepo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE slug = ? AND id <> ?`, slug, excludeID)
	return n > 0, err
}

const productInsert = `
  INSERT INTO products(title, slug, category_id, material_id, sku, short_description, full_description,
    image1_url, image2_url, image3_url, og_title, og_description, twitter_title, twitter_description,
    facebook_title, facebook_description, stock_status, base_price, is_offer, discount_type, discount_value)
  VALUES(:title, :slug, :category_id, :material_id, :sku, :short_description, :full_description,
    :image1_url, :image2_url, :image3_url, :og_title, :og_description, :twitter_title, :twitter_description,
    :facebook_title, :facebook_description, :stock_status, :base_price, :is_offer, :discount_type, :discount_value)`

const productUpdate = `
  UPDATE products SET
    title = :title, slug = :slug, category_id = :category_id, material_id = :material_id, sku = :sku,
    short_description = :short_description, full_description = :full_description,
    image1_url = :image1_url, image2_url = :image2_url, image3_url = :image3_url,
    og_title = :og_title, og_description = :og_description,
    twitter_title = :twitter_title, twitter_description = :twitter_description,
    facebook_title = :facebook_title, facebook_description = :facebook_description,
    stock_status = :stock_status, base_price = :base_price, is_offer = :is_offer,
    discount_type = :discount_type, discount_value = :discount_value,
    updated_at = CURRENT_TIMESTAMP
  WHERE id = :id`

// Create inserts the product and its tiers in one transaction and returns the new id.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product, tiers []domain.PricingTier) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NamedExecContext(ctx, productInsert, p)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertTiers(ctx, tx, id, tiers); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// Update rewrites the product row and replaces its tier set atomically.
// Returns false when the product does not exist.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product, tiers []domain.PricingTier) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NamedExecContext(ctx, productUpdate, p)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_pricing WHERE product_id = ?`, p.ID); err != nil {
		return false, err
	}
	if err := insertTiers(ctx, tx, p.ID, tiers); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func insertTiers(ctx context.Context, tx *sqlx.Tx, productID int64, tiers []domain.PricingTier) error {
	for _, t := range tiers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_pricing(product_id, material_id, grade, size, price) VALUES(?,?,?,?,?)`,
			productID, t.MaterialID, t.Grade, t.Size, t.Price); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the product, its tiers and any homepage slots pointing at it.
func (r *ProductRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_pricing WHERE product_id = ?`, id); err != nil {
		return false, err
	}
	q, args, err := sqlx.In(`DELETE FROM homepage_items WHERE item_id = ? AND section_key IN (?)`,
		id, []string{domain.SectionFeaturedSolutions, domain.SectionSupplyOffers})
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	return true, tx.Commit()
}
