package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"continental/internal/domain"
	"continental/internal/errs"
	"continental/internal/pricing"
	"continental/internal/repos"
)

const (
	relatedLimit     = 12
	suggestionLimit  = 5
	featuredFallback = 6
)

type CatalogService struct {
	Cats     *repos.CategoryRepo
	Mats     *repos.MaterialRepo
	Prods    *repos.ProductRepo
	Sections *repos.HomepageRepo
}

func NewCatalogService(cats *repos.CategoryRepo, mats *repos.MaterialRepo, prods *repos.ProductRepo, home *repos.HomepageRepo) *CatalogService {
	return &CatalogService{Cats: cats, Mats: mats, Prods: prods, Sections: home}
}

// Card is a listing row with its resolved price.
type Card struct {
	domain.ProductCard
	Price pricing.Quote `json:"price"`
}

func toCards(rows []domain.ProductCard) []Card {
	out := make([]Card, len(rows))
	for i, r := range rows {
		out[i] = Card{ProductCard: r, Price: pricing.ResolveCard(r)}
	}
	return out
}

type ShopPage struct {
	Items   []Card               `json:"products"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"total_pages"`
	Filter  domain.CatalogFilter `json:"-"`
	Options domain.FilterOptions `json:"filters"`
}

func pages(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

func normalizeSort(s string) string {
	switch s {
	case domain.SortNewest, domain.SortNameAsc, domain.SortNameDesc, domain.SortPriceAsc, domain.SortPriceDesc:
		return s
	}
	return domain.SortRelevance
}

// Shop runs the storefront listing query and loads the sidebar options.
func (s *CatalogService) Shop(ctx context.Context, f domain.CatalogFilter) (ShopPage, error) {
	f.Page = domain.ClampPage(f.Page)
	f.Sort = normalizeSort(f.Sort)

	rows, total, err := s.Prods.Catalog(ctx, f)
	if err != nil {
		return ShopPage{}, errs.Wrap(errs.CodeInternal, err, "list products")
	}
	opts, err := s.FilterOptions(ctx)
	if err != nil {
		return ShopPage{}, err
	}
	return ShopPage{
		Items:   toCards(rows),
		Total:   total,
		Page:    f.Page,
		Pages:   pages(total, repos.CatalogPageSize),
		Filter:  f,
		Options: opts,
	}, nil
}

func (s *CatalogService) FilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	cats, err := s.Cats.Names(ctx)
	if err != nil {
		return domain.FilterOptions{}, errs.Wrap(errs.CodeInternal, err, "list category names")
	}
	mats, err := s.Mats.Names(ctx)
	if err != nil {
		return domain.FilterOptions{}, errs.Wrap(errs.CodeInternal, err, "list material names")
	}
	return domain.FilterOptions{Categories: cats, Materials: mats}, nil
}

type ProductPage struct {
	Product   domain.ProductDetail `json:"product"`
	Price     pricing.Quote        `json:"price"`
	Related   []Card               `json:"related"`
	Materials []string             `json:"materials"`
}

func (s *CatalogService) detail(ctx context.Context, slug string) (domain.ProductDetail, error) {
	card, err := s.Prods.BySlug(ctx, slug)
	if err != nil {
		if repos.IsNotFound(err) {
			return domain.ProductDetail{}, errs.New(errs.CodeNotFound, "Product not found")
		}
		return domain.ProductDetail{}, errs.Wrap(errs.CodeInternal, err, "load product")
	}
	tiers, err := s.Prods.Tiers(ctx, card.ID)
	if err != nil {
		return domain.ProductDetail{}, errs.Wrap(errs.CodeInternal, err, "load pricing")
	}
	out := domain.ProductDetail{ProductCard: card, Tiers: tiers, MaterialGrades: domain.Grades{}}
	if card.MaterialID != nil {
		m, err := s.Mats.Get(ctx, *card.MaterialID)
		if err != nil && !repos.IsNotFound(err) {
			return domain.ProductDetail{}, errs.Wrap(errs.CodeInternal, err, "load material")
		}
		if err == nil {
			out.MaterialGrades = m.Grades
		}
	}
	return out, nil
}

// Product loads the detail page: product, tiers, resolved price and related items.
func (s *CatalogService) Product(ctx context.Context, slug string) (ProductPage, error) {
	d, err := s.detail(ctx, slug)
	if err != nil {
		return ProductPage{}, err
	}
	related := []Card{}
	if d.CategoryID != nil {
		rows, err := s.Prods.Related(ctx, *d.CategoryID, d.ID, relatedLimit)
		if err != nil {
			return ProductPage{}, errs.Wrap(errs.CodeInternal, err, "load related products")
		}
		related = toCards(rows)
	}
	return ProductPage{
		Product:   d,
		Price:     pricing.ResolveProduct(d.Product, d.Tiers),
		Related:   related,
		Materials: pricing.NewSelector(d.Tiers).Materials(),
	}, nil
}

// Configuration is the state of the material/grade/size picker.
type Configuration struct {
	Materials  []string            `json:"materials"`
	Grades     []string            `json:"grades"`
	Sizes      []string            `json:"sizes"`
	Material   string              `json:"material"`
	Grade      string              `json:"grade"`
	Size       string              `json:"size"`
	Price      decimal.NullDecimal `json:"price"`
	OfferPrice decimal.NullDecimal `json:"offer_price"`
}

// Configure walks the tier cascade for a product. A level is only applied
// when every level above it is set.
func (s *CatalogService) Configure(ctx context.Context, slug, material, grade, size string) (Configuration, error) {
	d, err := s.detail(ctx, slug)
	if err != nil {
		return Configuration{}, err
	}
	sel := pricing.NewSelector(d.Tiers)
	if material = strings.TrimSpace(material); material != "" {
		sel.SelectMaterial(material)
		if grade = strings.TrimSpace(grade); grade != "" {
			sel.SelectGrade(grade)
			if size = strings.TrimSpace(size); size != "" {
				sel.SelectSize(size)
			}
		}
	}
	out := Configuration{
		Materials: sel.Materials(),
		Grades:    orEmpty(sel.Grades()),
		Sizes:     orEmpty(sel.Sizes()),
		Material:  sel.Material(),
		Grade:     sel.Grade(),
		Size:      sel.Size(),
	}
	if p, ok := sel.Price(); ok {
		out.Price = decimal.NullDecimal{Decimal: p, Valid: true}
		offer := pricing.OfferOf(d.Product)
		if offer.Active {
			out.OfferPrice = decimal.NullDecimal{Decimal: offer.ApplyTo(p), Valid: true}
		}
	}
	return out, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *CatalogService) Offers(ctx context.Context) ([]Card, error) {
	rows, err := s.Prods.Offers(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "list offers")
	}
	return toCards(rows), nil
}

func (s *CatalogService) Materials(ctx context.Context) ([]domain.Material, error) {
	out, err := s.Mats.List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "list materials")
	}
	return out, nil
}

type MaterialPage struct {
	Material domain.Material `json:"material"`
	Items    []Card          `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Pages    int             `json:"total_pages"`
}

// MaterialProducts lists products made of, or priced in, the named material.
func (s *CatalogService) MaterialProducts(ctx context.Context, name string, page int) (MaterialPage, error) {
	m, err := s.Mats.ByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if repos.IsNotFound(err) {
			return MaterialPage{}, errs.New(errs.CodeNotFound, "Material not found")
		}
		return MaterialPage{}, errs.Wrap(errs.CodeInternal, err, "load material")
	}
	page = domain.ClampPage(page)
	rows, total, err := s.Prods.ByMaterial(ctx, m.ID, page)
	if err != nil {
		return MaterialPage{}, errs.Wrap(errs.CodeInternal, err, "list material products")
	}
	return MaterialPage{
		Material: m,
		Items:    toCards(rows),
		Total:    total,
		Page:     page,
		Pages:    pages(total, repos.CatalogPageSize),
	}, nil
}

// Suggestions is the typeahead: an empty query yields nothing.
func (s *CatalogService) Suggestions(ctx context.Context, q string) ([]domain.SearchSuggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.SearchSuggestion{}, nil
	}
	out, err := s.Prods.Suggestions(ctx, q, suggestionLimit)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "search suggestions")
	}
	return out, nil
}

// Featured returns the curated FEATURED_SOLUTIONS products, or the newest
// products when nothing is curated.
func (s *CatalogService) Featured(ctx context.Context) ([]Card, error) {
	ids, err := s.Sections.SectionIDs(ctx, domain.SectionFeaturedSolutions)
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "load featured ids")
	}
	var rows []domain.ProductCard
	if len(ids) > 0 {
		rows, err = s.Prods.CardsByIDs(ctx, ids)
	}
	if err == nil && len(rows) == 0 {
		rows, err = s.Prods.Newest(ctx, featuredFallback)
	}
	if err != nil {
		return nil, errs.Wrap(errs.CodeInternal, err, "load featured products")
	}
	return toCards(rows), nil
}

type HomePage struct {
	Categories []domain.Category `json:"categories"`
	Featured   []Card            `json:"featured"`
	Offers     []Card            `json:"offers"`
}

// Home assembles the curated home sections in their stored order.
func (s *CatalogService) Home(ctx context.Context) (HomePage, error) {
	catIDs, err := s.Sections.SectionIDs(ctx, domain.SectionMainCategories)
	if err != nil {
		return HomePage{}, errs.Wrap(errs.CodeInternal, err, "load home categories")
	}
	cats, err := s.Cats.ByIDs(ctx, catIDs)
	if err != nil {
		return HomePage{}, errs.Wrap(errs.CodeInternal, err, "load home categories")
	}
	featured, err := s.Featured(ctx)
	if err != nil {
		return HomePage{}, err
	}
	offerIDs, err := s.Sections.SectionIDs(ctx, domain.SectionSupplyOffers)
	if err != nil {
		return HomePage{}, errs.Wrap(errs.CodeInternal, err, "load home offers")
	}
	offers, err := s.Prods.CardsByIDs(ctx, offerIDs)
	if err != nil {
		return HomePage{}, errs.Wrap(errs.CodeInternal, err, "load home offers")
	}
	return HomePage{Categories: cats, Featured: featured, Offers: toCards(offers)}, nil
}
