package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"continental/internal/domain"
)

// Selector narrows a fetched tier list by material, then grade, then size.
// Choosing a level clears everything below it.
type Selector struct {
	tiers    []domain.PricingTier
	material string
	grade    string
	size     string
}

func NewSelector(tiers []domain.PricingTier) *Selector {
	return &Selector{tiers: tiers}
}

func (s *Selector) Material() string { return s.material }
func (s *Selector) Grade() string    { return s.grade }
func (s *Selector) Size() string     { return s.size }

func (s *Selector) Materials() []string {
	return distinct(s.tiers, func(t domain.PricingTier) (string, bool) { return t.MaterialName, true })
}

func (s *Selector) SelectMaterial(m string) {
	s.material, s.grade, s.size = m, "", ""
}

func (s *Selector) Grades() []string {
	if s.material == "" {
		return nil
	}
	return distinct(s.tiers, func(t domain.PricingTier) (string, bool) {
		return t.Grade, t.MaterialName == s.material
	})
}

func (s *Selector) SelectGrade(g string) {
	s.grade, s.size = g, ""
}

func (s *Selector) Sizes() []string {
	if s.material == "" || s.grade == "" {
		return nil
	}
	return distinct(s.tiers, func(t domain.PricingTier) (string, bool) {
		return t.Size, t.MaterialName == s.material && t.Grade == s.grade
	})
}

func (s *Selector) SelectSize(z string) { s.size = z }

// Price returns the price of the tier matching all three selections.
func (s *Selector) Price() (decimal.Decimal, bool) {
	if s.material == "" || s.grade == "" || s.size == "" {
		return decimal.Zero, false
	}
	for _, t := range s.tiers {
		if t.MaterialName == s.material && t.Grade == s.grade && t.Size == s.size {
			return t.Price, true
		}
	}
	return decimal.Zero, false
}

func distinct(tiers []domain.PricingTier, pick func(domain.PricingTier) (string, bool)) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, t := range tiers {
		v, ok := pick(t)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
