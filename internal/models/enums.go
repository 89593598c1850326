package models

import "strings"

// Mechanism is the mechanical family of an actuator.
type Mechanism string

const (
	MechanismScotchYoke Mechanism = "ScotchYoke"
	MechanismRackPinion Mechanism = "RackPinion"
)

// ValveType is the valve the actuator drives.
type ValveType string

const (
	ValveBall      ValveType = "Ball"
	ValveButterfly ValveType = "Butterfly"
)

// ActionType values match the labels stored in the catalog.
type ActionType string

const (
	ActionDoubleActing ActionType = "DA"
	ActionSpringReturn ActionType = "SR"
)

// FailSafePosition is where a spring-return actuator parks on air loss.
type FailSafePosition string

const (
	FailClose     FailSafePosition = "FailClose"
	FailOpen      FailSafePosition = "FailOpen"
	NotApplicable FailSafePosition = "NotApplicable"
)

// Tag returns the model-name suffix for the position, empty for NotApplicable.
func (f FailSafePosition) Tag() string {
	switch f {
	case FailClose:
		return "STC"
	case FailOpen:
		return "STO"
	default:
		return ""
	}
}

type TemperatureCode string

const (
	TempNoCode TemperatureCode = "NoCode"
	TempT1     TemperatureCode = "T1"
	TempT2     TemperatureCode = "T2"
	TempT3     TemperatureCode = "T3"
	TempM      TemperatureCode = "M"
)

type TemperatureUsage string

const (
	UsageNormal TemperatureUsage = "normal"
	UsageLow    TemperatureUsage = "low"
	UsageHigh   TemperatureUsage = "high"
)

// Variant is the yoke geometry of a Scotch-Yoke result.
type Variant string

const (
	VariantSymmetric Variant = "Symmetric"
	VariantCanted    Variant = "Canted"
)

type RecommendationTier string

const (
	TierStronglyRecommended RecommendationTier = "StronglyRecommended"
	TierRecommended         RecommendationTier = "Recommended"
	TierBarelyUsable        RecommendationTier = "BarelyUsable"
	TierOptional            RecommendationTier = "Optional"
)

type PricingModel string

const (
	PricingFixed  PricingModel = "fixed"
	PricingTiered PricingModel = "tiered"
)

// Catalog status and price type values.
const (
	StatusPublished   = "published"
	PriceTypeStandard = "standard"
)

var mechanismAliases = aliasTable(map[Mechanism][]string{
	MechanismScotchYoke: {"ScotchYoke", "Scotch Yoke", "scotch_yoke", "SY", "拨叉式"},
	MechanismRackPinion: {"RackPinion", "Rack & Pinion", "Rack&Pinion", "Rack and Pinion", "rack_pinion", "RP", "AT", "齿轮齿条式"},
})

var valveAliases = aliasTable(map[ValveType][]string{
	ValveBall:      {"Ball", "Ball Valve", "球阀"},
	ValveButterfly: {"Butterfly", "Butterfly Valve", "蝶阀"},
})

var actionAliases = aliasTable(map[ActionType][]string{
	ActionDoubleActing: {"DA", "DoubleActing", "Double Acting", "double_acting", "双作用"},
	ActionSpringReturn: {"SR", "SpringReturn", "Spring Return", "spring_return", "单作用", "弹簧复位"},
})

var failSafeAliases = aliasTable(map[FailSafePosition][]string{
	FailClose:     {"FailClose", "Fail Close", "fail_close", "STC", "Spring To Close", "故障关"},
	FailOpen:      {"FailOpen", "Fail Open", "fail_open", "STO", "Spring To Open", "故障开"},
	NotApplicable: {"NotApplicable", "Not Applicable", "N/A", "NA"},
})

var temperatureCodeAliases = aliasTable(map[TemperatureCode][]string{
	TempNoCode: {"", "NoCode", "No Code", "None", "N", "无"},
	TempT1:     {"T1"},
	TempT2:     {"T2"},
	TempT3:     {"T3"},
	TempM:      {"M"},
})

var temperatureUsageAliases = aliasTable(map[TemperatureUsage][]string{
	UsageNormal: {"", "normal", "常温"},
	UsageLow:    {"low", "低温"},
	UsageHigh:   {"high", "高温"},
})

func aliasTable[T comparable](groups map[T][]string) map[string]T {
	out := make(map[string]T)
	for canonical, names := range groups {
		for _, name := range names {
			out[aliasKey(name)] = canonical
		}
	}
	return out
}

func aliasKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ParseMechanism(s string) (Mechanism, bool) {
	m, ok := mechanismAliases[aliasKey(s)]
	return m, ok
}

func ParseValveType(s string) (ValveType, bool) {
	v, ok := valveAliases[aliasKey(s)]
	return v, ok
}

func ParseActionType(s string) (ActionType, bool) {
	a, ok := actionAliases[aliasKey(s)]
	return a, ok
}

func ParseFailSafePosition(s string) (FailSafePosition, bool) {
	f, ok := failSafeAliases[aliasKey(s)]
	return f, ok
}

func ParseTemperatureCode(s string) (TemperatureCode, bool) {
	c, ok := temperatureCodeAliases[aliasKey(s)]
	return c, ok
}

func ParseTemperatureUsage(s string) (TemperatureUsage, bool) {
	u, ok := temperatureUsageAliases[aliasKey(s)]
	return u, ok
}
