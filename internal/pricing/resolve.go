package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"continental/internal/domain"
)

type Source string

const (
	SourceTier  Source = "tier"
	SourceBase  Source = "base"
	SourceQuote Source = "quote"
)

// Quote is the resolved display price of a product.
type Quote struct {
	Source Source
	// Price is the undiscounted display price; zero when Source is SourceQuote.
	Price      decimal.Decimal
	OfferPrice decimal.NullDecimal
	Badge      string
}

func (q Quote) HasPrice() bool { return q.Source != SourceQuote }

// Label is the caption printed above the price.
func (q Quote) Label() string {
	switch q.Source {
	case SourceTier:
		return "Starting at"
	case SourceBase:
		return "Standard Price"
	}
	return "Price on Request"
}

// Effective is what the customer pays: the offer price if any, else the display price.
func (q Quote) Effective() decimal.NullDecimal {
	if !q.HasPrice() {
		return decimal.NullDecimal{}
	}
	if q.OfferPrice.Valid {
		return q.OfferPrice
	}
	return decimal.NullDecimal{Decimal: q.Price, Valid: true}
}

// MarshalJSON renders a quote-only product with a null price rather than 0.
func (q Quote) MarshalJSON() ([]byte, error) {
	var price decimal.NullDecimal
	if q.HasPrice() {
		price = decimal.NullDecimal{Decimal: q.Price, Valid: true}
	}
	return json.Marshal(struct {
		Source     Source              `json:"source"`
		Label      string              `json:"label"`
		Price      decimal.NullDecimal `json:"price"`
		OfferPrice decimal.NullDecimal `json:"offer_price"`
		Badge      string              `json:"badge,omitempty"`
	}{q.Source, q.Label(), price, q.OfferPrice, q.Badge})
}

// Resolve picks the tier minimum, then the base price, else quote only.
func Resolve(minTier, base decimal.NullDecimal, offer Offer) Quote {
	var q Quote
	switch {
	case minTier.Valid:
		q = Quote{Source: SourceTier, Price: minTier.Decimal}
	case base.Valid:
		q = Quote{Source: SourceBase, Price: base.Decimal}
	default:
		return Quote{Source: SourceQuote}
	}
	if offer.Active {
		q.OfferPrice = decimal.NullDecimal{Decimal: offer.ApplyTo(q.Price), Valid: true}
		q.Badge = offer.Badge()
	}
	return q
}

// MinTier returns the cheapest tier price, invalid when tiers is empty.
func MinTier(tiers []domain.PricingTier) decimal.NullDecimal {
	var out decimal.NullDecimal
	for _, t := range tiers {
		if !out.Valid || t.Price.LessThan(out.Decimal) {
			out = decimal.NullDecimal{Decimal: t.Price, Valid: true}
		}
	}
	return out
}

func ResolveProduct(p domain.Product, tiers []domain.PricingTier) Quote {
	return Resolve(MinTier(tiers), p.BasePrice, OfferOf(p))
}

// ResolveCard resolves a listing row whose tier minimum came from SQL.
func ResolveCard(c domain.ProductCard) Quote {
	return Resolve(c.MinTierPrice, c.BasePrice, OfferOf(c.Product))
}
