package services

import (
	"context"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"continental/internal/domain"
	"continental/internal/errs"
	"continental/internal/pricing"
	"continental/internal/repos"
	"continental/internal/storage"
	"continental/internal/validate"
)

type AdminService struct {
	Cats  *repos.CategoryRepo
	Mats  *repos.MaterialRepo
	Prods *repos.ProductRepo
	Home  *repos.HomepageRepo
	Media *storage.Media
}

func NewAdminService(cats *repos.CategoryRepo, mats *repos.MaterialRepo, prods *repos.ProductRepo, home *repos.HomepageRepo, media *storage.Media) *AdminService {
	return &AdminService{Cats: cats, Mats: mats, Prods: prods, Home: home, Media: media}
}

// ---------- Categories ----------

type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (s *AdminService) Categories(ctx context.Context) ([]domain.Category, error) {
	out, err := s.Cats.List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "Failed to fetch categories")
	}
	return out, nil
}

func (s *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(&in); err != nil {
		return domain.Category{}, err
	}
	id, err := s.Cats.Create(ctx, in.Name)
	if err != nil {
		return domain.Category{}, categoryWriteErr(err)
	}
	return s.category(ctx, id)
}

func (s *AdminService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(&in); err != nil {
		return domain.Category{}, err
	}
	ok, err := s.Cats.Update(ctx, id, in.Name)
	if err != nil {
		return domain.Category{}, categoryWriteErr(err)
	}
	if !ok {
		return domain.Category{}, errs.New(errs.CodeNotFound, "Category not found")
	}
	return s.category(ctx, id)
}

func (s *AdminService) category(ctx context.Context, id int64) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if err != nil {
		if repos.IsNotFound(err) {
			return domain.Category{}, errs.New(errs.CodeNotFound, "Category not found")
		}
		return domain.Category{}, errs.Wrap(errs.CodeInternal, err, "load category")
	}
	return c, nil
}

func categoryWriteErr(err error) error {
	if repos.IsUniqueViolation(err) {
		return errs.Wrap(errs.CodeConflict, err, "Category with this name already exists")
	}
	return errs.Wrap(errs.CodeInternal, err, "Failed to save category")
}

// DeleteCategory refuses while products reference the category. The foreign
// key covers a product added between the check and the delete.
func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	n, err := s.Cats.InUse(ctx, id)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "Failed to delete category")
	}
	if n > 0 {
		return errs.New(errs.CodeValidation, "Cannot delete category because it is being used by products")
	}
	ok, err := s.Cats.Delete(ctx, id)
	if err != nil {
		if repos.IsForeignKeyViolation(err) {
			return errs.Wrap(errs.CodeValidation, err, "Cannot delete category because it is being used by products")
		}
		return errs.Wrap(errs.CodeInternal, err, "Failed to delete category")
	}
	if !ok {
		return errs.New(errs.CodeNotFound, "Category not found")
	}
	return nil
}

// ---------- Materials ----------

type MaterialInput struct {
	Name   string        `json:"name" validate:"required,max=100"`
	Grades domain.Grades `json:"grades"`
}

// check trims the input; blank grades are dropped and at least one must remain.
func (in *MaterialInput) check() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Grades = in.Grades.Clean()
	if err := validate.Struct(in); err != nil {
		return err
	}
	if len(in.Grades) == 0 {
		return errs.New(errs.CodeValidation, "grades must contain at least one grade")
	}
	return nil
}

func (s *AdminService) Materials(ctx context.Context) ([]domain.Material, error) {
	out, err := s.Mats.List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "Failed to fetch materials")
	}
	return out, nil
}

func (s *AdminService) Material(ctx context.Context, id int64) (domain.Material, error) {
	m, err := s.Mats.Get(ctx, id)
	if err != nil {
		if repos.IsNotFound(err) {
			return domain.Material{}, errs.New(errs.CodeNotFound, "Material not found")
		}
		return domain.Material{}, errs.Wrap(errs.CodeInternal, err, "Failed to fetch material")
	}
	return m, nil
}

func (s *AdminService) CreateMaterial(ctx context.Context, in MaterialInput) (domain.Material, error) {
	if err := in.check(); err != nil {
		return domain.Material{}, err
	}
	id, err := s.Mats.Create(ctx, in.Name, in.Grades)
	if err != nil {
		return domain.Material{}, materialWriteErr(err)
	}
	return s.Material(ctx, id)
}

func (s *AdminService) UpdateMaterial(ctx context.Context, id int64, in MaterialInput) (domain.Material, error) {
	if err := in.check(); err != nil {
		return domain.Material{}, err
	}
	ok, err := s.Mats.Update(ctx, id, in.Name, in.Grades)
	if err != nil {
		return domain.Material{}, materialWriteErr(err)
	}
	if !ok {
		return domain.Material{}, errs.New(errs.CodeNotFound, "Material not found")
	}
	return s.Material(ctx, id)
}

func materialWriteErr(err error) error {
	if repos.IsUniqueViolation(err) {
		return errs.Wrap(errs.CodeConflict, err, "Material with this name already exists")
	}
	return errs.Wrap(errs.CodeInternal, err, "Failed to save material")
}

// DeleteMaterial refuses while pricing tiers are priced in the material.
// Products that only name it directly lose the reference.
func (s *AdminService) DeleteMaterial(ctx context.Context, id int64) error {
	n, err := s.Mats.TierUses(ctx, id)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "Failed to delete material")
	}
	if n > 0 {
		return errs.New(errs.CodeValidation, "Cannot delete material because product pricing uses it")
	}
	ok, err := s.Mats.Delete(ctx, id)
	if err != nil {
		if repos.IsForeignKeyViolation(err) {
			return errs.Wrap(errs.CodeValidation, err, "Cannot delete material because product pricing uses it")
		}
		return errs.Wrap(errs.CodeInternal, err, "Failed to delete material")
	}
	if !ok {
		return errs.New(errs.CodeNotFound, "Material not found")
	}
	return nil
}

// ---------- Products ----------

type TierInput struct {
	MaterialID *int64          `json:"material_id"`
	Grade      string          `json:"grade"`
	Size       string          `json:"size"`
	Price      decimal.Decimal `json:"price"`
}

type ProductInput struct {
	Title               string           `json:"title" validate:"required,max=255"`
	Slug                string           `json:"slug" validate:"required,max=191,slug"`
	CategoryID          *int64           `json:"category_id"`
	MaterialID          *int64           `json:"material_id"`
	SKU                 string           `json:"sku" validate:"max=100"`
	ShortDescription    string           `json:"short_description" validate:"max=1000"`
	FullDescription     string           `json:"full_description"`
	Image1URL           string           `json:"image1_url" validate:"max=500"`
	Image2URL           string           `json:"image2_url" validate:"max=500"`
	Image3URL           string           `json:"image3_url" validate:"max=500"`
	OGTitle             string           `json:"og_title" validate:"max=255"`
	OGDescription       string           `json:"og_description"`
	TwitterTitle        string           `json:"twitter_title" validate:"max=255"`
	TwitterDescription  string           `json:"twitter_description"`
	FacebookTitle       string           `json:"facebook_title" validate:"max=255"`
	FacebookDescription string           `json:"facebook_description"`
	StockStatus         string           `json:"stock_status" validate:"oneof=IN_STOCK OUT_OF_STOCK"`
	BasePrice           *decimal.Decimal `json:"base_price"`
	IsOffer             bool             `json:"is_offer"`
	DiscountType        string           `json:"discount_type" validate:"oneof=PERCENTAGE FIXED"`
	DiscountValue       decimal.Decimal  `json:"discount_value"`
	Pricing             []TierInput      `json:"pricing"`
}

// normalize applies defaults and drops tiers without a material.
func (in *ProductInput) normalize() []domain.PricingTier {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.StockStatus = strings.ToUpper(strings.TrimSpace(in.StockStatus))
	if in.StockStatus == "" {
		in.StockStatus = domain.StockInStock
	}
	in.DiscountType = strings.ToUpper(strings.TrimSpace(in.DiscountType))
	if in.DiscountType == "" {
		in.DiscountType = domain.DiscountPercentage
	}
	if in.CategoryID != nil && *in.CategoryID <= 0 {
		in.CategoryID = nil
	}
	if in.MaterialID != nil && *in.MaterialID <= 0 {
		in.MaterialID = nil
	}

	tiers := make([]domain.PricingTier, 0, len(in.Pricing))
	for _, t := range in.Pricing {
		if t.MaterialID == nil || *t.MaterialID <= 0 {
			continue
		}
		tiers = append(tiers, domain.PricingTier{
			MaterialID: *t.MaterialID,
			Grade:      orPlaceholder(t.Grade),
			Size:       orPlaceholder(t.Size),
			Price:      t.Price,
		})
	}
	return tiers
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.TierPlaceholder
	}
	return s
}

func (in ProductInput) product(id int64) domain.Product {
	p := domain.Product{
		ID:                  id,
		Title:               in.Title,
		Slug:                in.Slug,
		CategoryID:          in.CategoryID,
		MaterialID:          in.MaterialID,
		SKU:                 strings.TrimSpace(in.SKU),
		ShortDescription:    in.ShortDescription,
		FullDescription:     in.FullDescription,
		Image1URL:           strings.TrimSpace(in.Image1URL),
		Image2URL:           strings.TrimSpace(in.Image2URL),
		Image3URL:           strings.TrimSpace(in.Image3URL),
		OGTitle:             in.OGTitle,
		OGDescription:       in.OGDescription,
		TwitterTitle:        in.TwitterTitle,
		TwitterDescription:  in.TwitterDescription,
		FacebookTitle:       in.FacebookTitle,
		FacebookDescription: in.FacebookDescription,
		StockStatus:         in.StockStatus,
		IsOffer:             in.IsOffer,
		DiscountType:        in.DiscountType,
		DiscountValue:       in.DiscountValue,
	}
	if in.BasePrice != nil {
		p.BasePrice = decimal.NullDecimal{Decimal: *in.BasePrice, Valid: true}
	}
	return p
}

// checkProduct validates the normalized input and the offer against the
// price it would discount.
func checkProduct(in *ProductInput, tiers []domain.PricingTier) (domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Product{}, err
	}
	if in.BasePrice != nil && in.BasePrice.IsNegative() {
		return domain.Product{}, errs.New(errs.CodeValidation, "base_price must not be negative")
	}
	for _, t := range tiers {
		if t.Price.IsNegative() {
			return domain.Product{}, errs.New(errs.CodeValidation, "Tier price must not be negative")
		}
	}
	p := in.product(0)
	display := pricing.MinTier(tiers)
	if !display.Valid {
		display = p.BasePrice
	}
	if err := pricing.OfferOf(p).Validate(display); err != nil {
		return domain.Product{}, errs.Wrap(errs.CodeValidation, err, capitalize(err.Error()))
	}
	return p, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func productWriteErr(err error) error {
	switch {
	case repos.IsUniqueViolation(err):
		return errs.Wrap(errs.CodeConflict, err, "Product with this slug already exists")
	case repos.IsForeignKeyViolation(err):
		return errs.Wrap(errs.CodeValidation, err, "Referenced category or material does not exist")
	}
	return errs.Wrap(errs.CodeInternal, err, "Failed to save product")
}

func (s *AdminService) Products(ctx context.Context) ([]Card, error) {
	rows, err := s.Prods.AdminList(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "Failed to fetch products")
	}
	return toCards(rows), nil
}

func (s *AdminService) Product(ctx context.Context, id int64) (domain.ProductDetail, error) {
	card, err := s.Prods.Card(ctx, id)
	if err != nil {
		if repos.IsNotFound(err) {
			return domain.ProductDetail{}, errs.New(errs.CodeNotFound, "Product not found")
		}
		return domain.ProductDetail{}, errs.Wrap(errs.CodeInternal, err, "Failed to fetch product")
	}
	tiers, err := s.Prods.Tiers(ctx, id)
	if err != nil {
		return domain.ProductDetail{}, errs.Wrap(errs.CodeInternal, err, "Failed to fetch product")
	}
	return domain.ProductDetail{ProductCard: card, Tiers: tiers, MaterialGrades: domain.Grades{}}, nil
}

// CreateProduct stores the product and its tiers in one transaction.
func (s *AdminService) CreateProduct(ctx context.Context, in ProductInput) (int64, error) {
	tiers := in.normalize()
	p, err := checkProduct(&in, tiers)
	if err != nil {
		return 0, err
	}
	id, err := s.Prods.Create(ctx, p, tiers)
	if err != nil {
		return 0, productWriteErr(err)
	}
	return id, nil
}

// UpdateProduct rewrites the product and replaces its whole tier set.
func (s *AdminService) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	tiers := in.normalize()
	p, err := checkProduct(&in, tiers)
	if err != nil {
		return err
	}
	p.ID = id
	ok, err := s.Prods.Update(ctx, p, tiers)
	if err != nil {
		return productWriteErr(err)
	}
	if !ok {
		return errs.New(errs.CodeNotFound, "Product not found")
	}
	return nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id int64) error {
	ok, err := s.Prods.Delete(ctx, id)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "Failed to delete product")
	}
	if !ok {
		return errs.New(errs.CodeNotFound, "Product not found")
	}
	return nil
}

// SlugTaken is advisory: the unique index decides on write.
func (s *AdminService) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return false, errs.New(errs.CodeValidation, "slug is required")
	}
	exists, err := s.Prods.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return false, errs.Wrap(errs.CodeInternal, err, "Failed to check slug")
	}
	return exists, nil
}

// ---------- Homepage ----------

type HomepageInput struct {
	SectionKey string  `json:"sectionKey" validate:"required,section"`
	ItemIDs    []int64 `json:"itemIds"`
}

func (s *AdminService) HomepageItems(ctx context.Context) ([]domain.HomepageItem, error) {
	out, err := s.Home.All(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "Failed to fetch homepage items")
	}
	return out, nil
}

// ReplaceSection validates the ids and swaps the section atomically.
// Repeated ids keep their first position.
func (s *AdminService) ReplaceSection(ctx context.Context, in HomepageInput) error {
	in.SectionKey = strings.TrimSpace(in.SectionKey)
	if err := validate.Struct(&in); err != nil {
		return err
	}
	if in.ItemIDs == nil {
		return errs.New(errs.CodeValidation, "itemIds must be an array")
	}
	seen := make(map[int64]struct{}, len(in.ItemIDs))
	ids := make([]int64, 0, len(in.ItemIDs))
	for _, id := range in.ItemIDs {
		if id <= 0 {
			return errs.Newf(errs.CodeValidation, "Invalid item id %d", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := s.Home.ReplaceSection(ctx, in.SectionKey, ids); err != nil {
		return errs.Wrap(errs.CodeInternal, err, "Failed to update homepage section")
	}
	return nil
}

// ---------- Uploads ----------

func (s *AdminService) Upload(name string, r io.Reader) (storage.Saved, error) {
	if s.Media == nil {
		return storage.Saved{}, errs.New(errs.CodeConfig, "Uploads are not configured")
	}
	return s.Media.Save(name, r)
}
