package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StockInStock    = "IN_STOCK"
	StockOutOfStock = "OUT_OF_STOCK"

	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"

	// TierPlaceholder fills grade/size when a tier leaves them blank.
	TierPlaceholder = "-"
)

type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Material struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grades    Grades    `db:"grades" json:"grades"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Product mirrors a products row. Optional text columns are stored as ''.
type Product struct {
	ID                  int64               `db:"id" json:"id"`
	Title               string              `db:"title" json:"title"`
	Slug                string              `db:"slug" json:"slug"`
	CategoryID          *int64              `db:"category_id" json:"category_id"`
	MaterialID          *int64              `db:"material_id" json:"material_id"`
	SKU                 string              `db:"sku" json:"sku"`
	ShortDescription    string              `db:"short_description" json:"short_description"`
	FullDescription     string              `db:"full_description" json:"full_description"`
	Image1URL           string              `db:"image1_url" json:"image1_url"`
	Image2URL           string              `db:"image2_url" json:"image2_url"`
	Image3URL           string              `db:"image3_url" json:"image3_url"`
	OGTitle             string              `db:"og_title" json:"og_title"`
	OGDescription       string              `db:"og_description" json:"og_description"`
	TwitterTitle        string              `db:"twitter_title" json:"twitter_title"`
	TwitterDescription  string              `db:"twitter_description" json:"twitter_description"`
	FacebookTitle       string              `db:"facebook_title" json:"facebook_title"`
	FacebookDescription string              `db:"facebook_description" json:"facebook_description"`
	StockStatus         string              `db:"stock_status" json:"stock_status"`
	BasePrice           decimal.NullDecimal `db:"base_price" json:"base_price"`
	IsOffer             bool                `db:"is_offer" json:"is_offer"`
	DiscountType        string              `db:"discount_type" json:"discount_type"`
	DiscountValue       decimal.Decimal     `db:"discount_value" json:"discount_value"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

type PricingTier struct {
	ID           int64           `db:"id" json:"id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	MaterialID   int64           `db:"material_id" json:"material_id"`
	MaterialName string          `db:"material_name" json:"material_name"`
	Grade        string          `db:"grade" json:"grade"`
	Size         string          `db:"size" json:"size"`
	Price        decimal.Decimal `db:"price" json:"price"`
}

// ProductCard is a listing row: the product plus joined names and the cheapest tier.
type ProductCard struct {
	Product
	CategoryName string              `db:"category_name" json:"category_name"`
	MaterialName string              `db:"material_name" json:"material_name"`
	MinTierPrice decimal.NullDecimal `db:"min_tier_price" json:"min_tier_price"`
}

// ProductDetail is what the product page renders.
type ProductDetail struct {
	ProductCard
	MaterialGrades Grades        `json:"material_grades"`
	Tiers          []PricingTier `json:"pricing"`
}

const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// MaxPage bounds 1-based page numbers so offsets stay far from overflow.
const MaxPage = 10000

// ClampPage maps any page number into [1, MaxPage].
func ClampPage(page int) int {
	return min(max(page, 1), MaxPage)
}

// CatalogFilter is the storefront listing input. Empty sets do not constrain.
type CatalogFilter struct {
	Search     string
	Categories []string
	Materials  []string
	Stock      []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Page       int
}

type FilterOptions struct {
	Categories []string `json:"categories"`
	Materials  []string `json:"materials"`
}

type SearchSuggestion struct {
	Title        string `db:"title" json:"title"`
	Slug         string `db:"slug" json:"slug"`
	CategoryName string `db:"category_name" json:"category_name"`
	Image1URL    string `db:"image1_url" json:"image1_url"`
}
