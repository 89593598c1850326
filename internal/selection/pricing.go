package selection

import (
	"fmt"
	"sort"

	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/models"

	"github.com/shopspring/decimal"
)

const DefaultTemperatureSurcharge = 0.05

// PricingOptions carries configured pricing rules.
type PricingOptions struct {
	TemperatureSurcharge float64 // fraction added to the unit price for coded temperatures
}

// PriceBreakdown is the commercial half of a result item.
type PriceBreakdown struct {
	BasePrice       float64
	PriceAdjustment float64
	UnitPrice       float64
	ManualOverride  *models.ManualOverrideSummary
	TotalPrice      float64
}

// ResolvePrice returns the base unit price for quantity. A tiered record
// without standard tiers yields a DATA_INTEGRITY_WARNING error.
func ResolvePrice(rec *models.ActuatorRecord, quantity int) (float64, error) {
	if quantity < 1 {
		quantity = 1
	}

	switch rec.Pricing {
	case models.PricingFixed:
		return rec.BasePrice, nil

	case models.PricingTiered:
		tiers := standardTiers(rec.PriceTiers)
		if len(tiers) == 0 {
			return 0, errors.NewDataIntegrityWarning(rec.ID, "tiered pricing without standard price tiers")
		}
		// highest minQuantity first
		sort.SliceStable(tiers, func(i, j int) bool {
			return tiers[i].MinQuantity > tiers[j].MinQuantity
		})
		for _, t := range tiers {
			if t.MinQuantity <= quantity {
				return t.UnitPrice, nil
			}
		}
		return rec.BasePrice, nil

	default:
		return 0, errors.NewDataIntegrityWarning(rec.ID, fmt.Sprintf("unknown pricing model %q", rec.Pricing))
	}
}

// PriceCandidate applies the temperature surcharge and the cheapest compatible
// manual override on top of ResolvePrice.
func PriceCandidate(rec *models.ActuatorRecord, req *models.SelectionRequest, overrides []models.ManualOverrideRecord, opts PricingOptions) (PriceBreakdown, error) {
	base, err := ResolvePrice(rec, req.Quantity)
	if err != nil {
		return PriceBreakdown{}, err
	}

	baseDec := decimal.NewFromFloat(base).Round(2)
	unitDec := baseDec
	if req.TemperatureCode != models.TempNoCode && req.TemperatureCode != "" {
		factor := decimal.NewFromFloat(1).Add(decimal.NewFromFloat(opts.TemperatureSurcharge))
		unitDec = baseDec.Mul(factor).Round(2)
	}
	totalDec := unitDec

	var summary *models.ManualOverrideSummary
	if req.NeedsManualOverride {
		if mo, ok := CheapestOverride(overrides, rec.BodySize); ok {
			summary = &models.ManualOverrideSummary{ID: mo.ID, Model: mo.Model, Price: mo.Price}
			totalDec = totalDec.Add(decimal.NewFromFloat(mo.Price).Round(2))
		}
	}

	b := PriceBreakdown{ManualOverride: summary}
	b.BasePrice, _ = baseDec.Float64()
	b.UnitPrice, _ = unitDec.Float64()
	b.PriceAdjustment, _ = unitDec.Sub(baseDec).Float64()
	b.TotalPrice, _ = totalDec.Round(2).Float64()
	return b, nil
}

// CheapestOverride picks the lowest-priced override that fits bodySize.
// Ties go to the record listed first.
func CheapestOverride(overrides []models.ManualOverrideRecord, bodySize string) (models.ManualOverrideRecord, bool) {
	var (
		best  models.ManualOverrideRecord
		found bool
	)
	for _, mo := range overrides {
		if !mo.FitsBodySize(bodySize) {
			continue
		}
		if !found || mo.Price < best.Price {
			best, found = mo, true
		}
	}
	return best, found
}

// WithinBudget reports whether total respects the optional ceiling.
func WithinBudget(total float64, maxBudget *float64) bool {
	return maxBudget == nil || total <= *maxBudget
}

// ValidatePriceTiers lists tier-table violations: duplicate minQuantity within a
// price type, or a unit price that rises with quantity. Violations are tolerated.
func ValidatePriceTiers(tiers []models.PriceTier) []string {
	byType := make(map[string][]models.PriceTier)
	var order []string
	for _, t := range tiers {
		key := t.PriceType
		if t.IsStandard() {
			key = models.PriceTypeStandard
		}
		if _, ok := byType[key]; !ok {
			order = append(order, key)
		}
		byType[key] = append(byType[key], t)
	}

	var issues []string
	for _, priceType := range order {
		group := append([]models.PriceTier(nil), byType[priceType]...)
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].MinQuantity < group[j].MinQuantity
		})
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			if prev.MinQuantity == cur.MinQuantity {
				issues = append(issues, fmt.Sprintf("%s: duplicate minQuantity %d", priceType, cur.MinQuantity))
				continue
			}
			if cur.UnitPrice > prev.UnitPrice {
				issues = append(issues, fmt.Sprintf("%s: unit price rises from %v to %v at minQuantity %d",
					priceType, prev.UnitPrice, cur.UnitPrice, cur.MinQuantity))
			}
		}
	}
	return issues
}

func standardTiers(tiers []models.PriceTier) []models.PriceTier {
	out := make([]models.PriceTier, 0, len(tiers))
	for _, t := range tiers {
		if t.IsStandard() {
			out = append(out, t)
		}
	}
	return out
}
