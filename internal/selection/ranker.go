package selection

import (
	"sort"
	"strings"

	"actuator-workers/internal/models"

	"github.com/shopspring/decimal"
)

// NoMatchSuggestions is returned with every NO_MATCHING_ACTUATOR outcome.
var NoMatchSuggestions = []string{
	"Lower the required torque or the safety factor",
	"Raise the supply pressure",
	"Consider the other valve type (ball or butterfly)",
	"Raise the budget ceiling",
}

// TorqueMargin returns (actual - required) / required * 100, unrounded.
func TorqueMargin(actual, required float64) float64 {
	if required <= 0 {
		return 0
	}
	return (actual - required) / required * 100
}

// RoundMargin rounds a margin to one decimal for display.
func RoundMargin(m float64) float64 {
	v, _ := decimal.NewFromFloat(m).Round(1).Float64()
	return v
}

// RecommendationTier classifies a margin; the first matching rule wins.
// A margin of exactly 10 and anything above 50 fall through to Optional.
func RecommendationTier(margin float64) models.RecommendationTier {
	switch {
	case margin >= 20 && margin <= 50:
		return models.TierStronglyRecommended
	case margin > 10 && margin < 20:
		return models.TierRecommended
	case margin < 10:
		return models.TierBarelyUsable
	default:
		return models.TierOptional
	}
}

// FinalModelName appends the upper-cased temperature code unless it is NoCode.
func FinalModelName(fragment string, code models.TemperatureCode) string {
	if code == "" || code == models.TempNoCode {
		return fragment
	}
	return fragment + "-" + strings.ToUpper(string(code))
}

// Rank sorts items by total price, keeping the incoming body-size order for
// ties, and returns the best choice.
func Rank(items []models.SelectionResultItem) *models.SelectionResultItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].TotalPrice < items[j].TotalPrice
	})
	if len(items) == 0 {
		return nil
	}
	best := items[0]
	return &best
}
