package models

// RawSelectionRequest is the wire shape of a selection request. Every field
// is accepted under its camelCase name and its legacy snake_case name.
type RawSelectionRequest struct {
	RequestID string `json:"requestId,omitempty"`

	ValveTorque       *float64 `json:"valveTorque,omitempty"`
	ValveTorqueLegacy *float64 `json:"valve_torque,omitempty"`

	SafetyFactor       *float64 `json:"safetyFactor,omitempty"`
	SafetyFactorLegacy *float64 `json:"safety_factor,omitempty"`

	RequiredTorque       *float64 `json:"requiredTorque,omitempty"`
	RequiredTorqueLegacy *float64 `json:"required_torque,omitempty"`

	WorkingPressure       *float64 `json:"workingPressure,omitempty"`
	WorkingPressureLegacy *float64 `json:"working_pressure,omitempty"`

	WorkingAngle       *float64 `json:"workingAngle,omitempty"`
	WorkingAngleLegacy *float64 `json:"working_angle,omitempty"`

	Mechanism string `json:"mechanism,omitempty"`

	ValveType       string `json:"valveType,omitempty"`
	ValveTypeLegacy string `json:"valve_type,omitempty"`

	ActionType       string `json:"actionType,omitempty"`
	ActionTypeLegacy string `json:"action_type,omitempty"`

	FailSafePosition       string `json:"failSafePosition,omitempty"`
	FailSafePositionLegacy string `json:"fail_safe_position,omitempty"`

	RequiredOpeningTorque       *float64 `json:"requiredOpeningTorque,omitempty"`
	RequiredOpeningTorqueLegacy *float64 `json:"required_opening_torque,omitempty"`

	RequiredClosingTorque       *float64 `json:"requiredClosingTorque,omitempty"`
	RequiredClosingTorqueLegacy *float64 `json:"required_closing_torque,omitempty"`

	BodySize       string `json:"bodySize,omitempty"`
	BodySizeLegacy string `json:"body_size,omitempty"`

	Material string `json:"material,omitempty"`

	TemperatureCode       string `json:"temperatureCode,omitempty"`
	TemperatureCodeLegacy string `json:"temperature_code,omitempty"`

	TemperatureType       string `json:"temperatureType,omitempty"`
	TemperatureTypeLegacy string `json:"temperature_type,omitempty"`

	NeedsManualOverride       *bool `json:"needsManualOverride,omitempty"`
	NeedsManualOverrideLegacy *bool `json:"needs_manual_override,omitempty"`

	MaxBudget       *float64 `json:"maxBudget,omitempty"`
	MaxBudgetLegacy *float64 `json:"max_budget,omitempty"`

	Quantity *int `json:"quantity,omitempty"`
}

// SelectionRequest is a normalized requirement. It is not modified after normalization.
type SelectionRequest struct {
	RequestID             string           `json:"requestId"`
	ValveTorque           float64          `json:"valveTorque,omitempty"`
	SafetyFactor          float64          `json:"safetyFactor,omitempty"`
	RequiredTorque        float64          `json:"requiredTorque"`
	WorkingPressure       float64          `json:"workingPressure"`
	WorkingAngle          int              `json:"workingAngle"`
	Mechanism             Mechanism        `json:"mechanism"`
	ValveType             ValveType        `json:"valveType"`
	ActionType            ActionType       `json:"actionType,omitempty"`
	FailSafePosition      FailSafePosition `json:"failSafePosition,omitempty"`
	RequiredOpeningTorque float64          `json:"requiredOpeningTorque,omitempty"`
	RequiredClosingTorque float64          `json:"requiredClosingTorque,omitempty"`
	BodySize              string           `json:"bodySize,omitempty"`
	Material              string           `json:"material,omitempty"`
	TemperatureCode       TemperatureCode  `json:"temperatureCode"`
	TemperatureUsage      TemperatureUsage `json:"temperatureType"`
	NeedsManualOverride   bool             `json:"needsManualOverride"`
	MaxBudget             *float64         `json:"maxBudget,omitempty"`
	Quantity              int              `json:"quantity"`
}

// HasSpringReturnParams reports whether spring-return candidates can be evaluated.
func (r SelectionRequest) HasSpringReturnParams() bool {
	return r.FailSafePosition != ""
}

type ManualOverrideSummary struct {
	ID    string  `json:"id"`
	Model string  `json:"model"`
	Price float64 `json:"price"`
}

type SelectionResultItem struct {
	ActuatorID       string                 `json:"actuatorId"`
	ModelBase        string                 `json:"modelBase"`
	BodySize         string                 `json:"bodySize"`
	ActionType       ActionType             `json:"actionType"`
	Variant          Variant                `json:"variant,omitempty"`
	FailSafeTag      string                 `json:"failSafeTag,omitempty"`
	FinalModelName   string                 `json:"finalModelName"`
	ActualTorque     float64                `json:"actualTorque"`
	RequiredTorque   float64                `json:"requiredTorque"`
	TorqueMargin     float64                `json:"torqueMargin"`
	Recommendation   RecommendationTier     `json:"recommendation"`
	BasePrice        float64                `json:"basePrice"`
	PriceAdjustment  float64                `json:"priceAdjustment"`
	UnitPrice        float64                `json:"unitPrice"`
	ManualOverride   *ManualOverrideSummary `json:"manualOverride,omitempty"`
	TotalPrice       float64                `json:"totalPrice"`
	TemperatureUsage TemperatureUsage       `json:"temperatureType,omitempty"`
}

// DataIntegrityWarning names a catalog record that was excluded because its data is unusable.
type DataIntegrityWarning struct {
	ActuatorID string `json:"actuatorId"`
	Reason     string `json:"reason"`
}

type SelectionResult struct {
	RequestID      string                 `json:"requestId"`
	Request        SelectionRequest       `json:"request"`
	Results        []SelectionResultItem  `json:"results"`
	BestChoice     *SelectionResultItem   `json:"bestChoice,omitempty"`
	Warnings       []DataIntegrityWarning `json:"warnings,omitempty"`
	CandidateCount int                    `json:"candidateCount"`
}

type BatchSuccess struct {
	Index     int              `json:"index"`
	RequestID string           `json:"requestId"`
	Result    *SelectionResult `json:"result"`
}

type BatchFailure struct {
	Index       int      `json:"index"`
	RequestID   string   `json:"requestId,omitempty"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type BatchResult struct {
	Succeeded []BatchSuccess `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
	Total     int            `json:"total"`
}
