package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"continental/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Apply returns the discounted price rounded to cents. Results are not
// clamped; callers that accept offers reject discounts that would go negative.
func Apply(price decimal.Decimal, kind string, value decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch kind {
	case domain.DiscountFixed:
		out = price.Sub(value)
	default:
		out = price.Sub(price.Mul(value.Div(hundred)))
	}
	return out.Round(2)
}

// Offer is the promotional state of a product.
type Offer struct {
	Active bool
	Kind   string
	Value  decimal.Decimal
}

func OfferOf(p domain.Product) Offer {
	return Offer{Active: p.IsOffer, Kind: p.DiscountType, Value: p.DiscountValue}
}

// ApplyTo leaves the price untouched unless the offer is active.
func (o Offer) ApplyTo(price decimal.Decimal) decimal.Decimal {
	if !o.Active {
		return price
	}
	return Apply(price, o.Kind, o.Value)
}

// Badge is the short label shown on offer cards.
func (o Offer) Badge() string {
	if !o.Active || o.Value.IsZero() {
		return ""
	}
	if o.Kind == domain.DiscountFixed {
		return fmt.Sprintf("$%s OFF", o.Value.StringFixed(2))
	}
	return fmt.Sprintf("%s%% OFF", o.Value.String())
}

// Validate rejects offers that cannot yield a sensible price against display.
// A zero display means the product has no price to discount yet.
func (o Offer) Validate(display decimal.NullDecimal) error {
	if !o.Active {
		return nil
	}
	if o.Kind != domain.DiscountPercentage && o.Kind != domain.DiscountFixed {
		return fmt.Errorf("discount type must be %s or %s", domain.DiscountPercentage, domain.DiscountFixed)
	}
	if o.Value.IsNegative() {
		return fmt.Errorf("discount value must not be negative")
	}
	if o.Kind == domain.DiscountPercentage && o.Value.GreaterThan(hundred) {
		return fmt.Errorf("percentage discount must not exceed 100")
	}
	if o.Kind == domain.DiscountFixed && display.Valid && o.Value.GreaterThan(display.Decimal) {
		return fmt.Errorf("fixed discount must not exceed the display price")
	}
	return nil
}
