package selection

import (
	"encoding/json"
	"fmt"
	"strings"

	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/validation"
	"actuator-workers/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultSafetyFactor = 1.3
	FixedWorkingAngle   = 90
)

// requestSchema only checks JSON types; semantic rules live in Normalize.
const requestSchema = `{
  "type": "object",
  "properties": {
    "requestId":                {"type": "string"},
    "valveTorque":              {"type": "number"},
    "valve_torque":             {"type": "number"},
    "safetyFactor":             {"type": "number"},
    "safety_factor":            {"type": "number"},
    "requiredTorque":           {"type": "number"},
    "required_torque":          {"type": "number"},
    "workingPressure":          {"type": "number"},
    "working_pressure":         {"type": "number"},
    "workingAngle":             {"type": "number"},
    "working_angle":            {"type": "number"},
    "mechanism":                {"type": "string"},
    "valveType":                {"type": "string"},
    "valve_type":               {"type": "string"},
    "actionType":               {"type": "string"},
    "action_type":              {"type": "string"},
    "failSafePosition":         {"type": "string"},
    "fail_safe_position":       {"type": "string"},
    "requiredOpeningTorque":    {"type": "number"},
    "required_opening_torque":  {"type": "number"},
    "requiredClosingTorque":    {"type": "number"},
    "required_closing_torque":  {"type": "number"},
    "bodySize":                 {"type": "string"},
    "body_size":                {"type": "string"},
    "material":                 {"type": "string"},
    "temperatureCode":          {"type": "string"},
    "temperature_code":         {"type": "string"},
    "temperatureType":          {"type": "string"},
    "temperature_type":         {"type": "string"},
    "needsManualOverride":      {"type": "boolean"},
    "needs_manual_override":    {"type": "boolean"},
    "maxBudget":                {"type": "number"},
    "max_budget":               {"type": "number"},
    "quantity":                 {"type": "integer"}
  }
}`

var compiledRequestSchema = validation.MustCompile(requestSchema)

// NormalizeOptions carries configured defaults.
type NormalizeOptions struct {
	DefaultSafetyFactor float64
}

// DecodeRequest type-checks a JSON payload and decodes it into the wire shape.
func DecodeRequest(payload []byte) (*models.RawSelectionRequest, error) {
	result, err := compiledRequestSchema.ValidateBytes(payload)
	if err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("malformed request: %v", err))
	}
	if !result.Valid {
		return nil, errors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var raw models.RawSelectionRequest
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("malformed request: %v", err))
	}
	return &raw, nil
}

// Normalize resolves aliases and legacy field names, derives the required
// torque and validates mandatory combinations.
func Normalize(raw *models.RawSelectionRequest, opts NormalizeOptions) (*models.SelectionRequest, error) {
	if raw == nil {
		return nil, errors.NewInvalidRequestError("request is empty")
	}

	var problems []string
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	req := &models.SelectionRequest{
		RequestID:    strings.TrimSpace(raw.RequestID),
		WorkingAngle: FixedWorkingAngle,
		BodySize:     strings.TrimSpace(pickString(raw.BodySize, raw.BodySizeLegacy)),
		Quantity:     1,
	}

	if p := pickFloat(raw.WorkingPressure, raw.WorkingPressureLegacy); p == nil {
		fail("workingPressure is required")
	} else if *p <= 0 {
		fail("workingPressure must be > 0, got %v", *p)
	} else {
		req.WorkingPressure = *p
	}

	if s := strings.TrimSpace(raw.Mechanism); s == "" {
		fail("mechanism is required")
	} else if m, ok := models.ParseMechanism(s); !ok {
		fail("unknown mechanism %q", s)
	} else {
		req.Mechanism = m
	}

	if s := strings.TrimSpace(pickString(raw.ValveType, raw.ValveTypeLegacy)); s == "" {
		fail("valveType is required")
	} else if v, ok := models.ParseValveType(s); !ok {
		fail("unknown valveType %q", s)
	} else {
		req.ValveType = v
	}

	if s := strings.TrimSpace(pickString(raw.ActionType, raw.ActionTypeLegacy)); s != "" {
		if a, ok := models.ParseActionType(s); ok {
			req.ActionType = a
		} else {
			fail("unknown actionType %q", s)
		}
	}

	failSafe := strings.TrimSpace(pickString(raw.FailSafePosition, raw.FailSafePositionLegacy))
	if failSafe != "" {
		if f, ok := models.ParseFailSafePosition(failSafe); ok {
			req.FailSafePosition = f
		} else {
			fail("unknown failSafePosition %q", failSafe)
		}
	} else if req.ActionType == models.ActionSpringReturn {
		fail("failSafePosition is required for spring-return actuators")
	}

	if req.ActionType == models.ActionSpringReturn || (req.ActionType == "" && failSafe != "") {
		opening := pickFloat(raw.RequiredOpeningTorque, raw.RequiredOpeningTorqueLegacy)
		closing := pickFloat(raw.RequiredClosingTorque, raw.RequiredClosingTorqueLegacy)
		if opening == nil || closing == nil {
			fail("requiredOpeningTorque and requiredClosingTorque are both required for spring-return actuators")
		} else if *opening <= 0 || *closing <= 0 {
			fail("requiredOpeningTorque and requiredClosingTorque must be > 0")
		} else {
			req.RequiredOpeningTorque = *opening
			req.RequiredClosingTorque = *closing
		}
	}

	if required, sf, valveTorque, problem := resolveRequiredTorque(raw, opts); problem != "" {
		fail("%s", problem)
	} else {
		req.RequiredTorque = required
		req.SafetyFactor = sf
		req.ValveTorque = valveTorque
	}

	code := pickString(raw.TemperatureCode, raw.TemperatureCodeLegacy)
	if c, ok := models.ParseTemperatureCode(code); ok {
		req.TemperatureCode = c
	} else {
		fail("unknown temperatureCode %q", code)
	}

	usage := pickString(raw.TemperatureType, raw.TemperatureTypeLegacy)
	if u, ok := models.ParseTemperatureUsage(usage); ok {
		req.TemperatureUsage = u
	} else {
		fail("unknown temperatureType %q", usage)
	}

	if req.Mechanism == models.MechanismRackPinion {
		req.Material = strings.TrimSpace(raw.Material)
	}

	if b := pickBool(raw.NeedsManualOverride, raw.NeedsManualOverrideLegacy); b != nil {
		req.NeedsManualOverride = *b
	}

	if budget := pickFloat(raw.MaxBudget, raw.MaxBudgetLegacy); budget != nil {
		if *budget <= 0 {
			fail("maxBudget must be > 0, got %v", *budget)
		} else {
			v := *budget
			req.MaxBudget = &v
		}
	}

	if raw.Quantity != nil {
		if *raw.Quantity < 1 {
			fail("quantity must be >= 1, got %d", *raw.Quantity)
		} else {
			req.Quantity = *raw.Quantity
		}
	}

	if len(problems) > 0 {
		return nil, errors.NewInvalidRequestError(strings.Join(problems, "; "))
	}
	return req, nil
}

// resolveRequiredTorque prefers valveTorque × safetyFactor over a precomputed value.
func resolveRequiredTorque(raw *models.RawSelectionRequest, opts NormalizeOptions) (required, safetyFactor, valveTorque float64, problem string) {
	if vt := pickFloat(raw.ValveTorque, raw.ValveTorqueLegacy); vt != nil {
		if *vt <= 0 {
			return 0, 0, 0, fmt.Sprintf("valveTorque must be > 0, got %v", *vt)
		}
		sf := opts.DefaultSafetyFactor
		if sf <= 0 {
			sf = DefaultSafetyFactor
		}
		if given := pickFloat(raw.SafetyFactor, raw.SafetyFactorLegacy); given != nil {
			if *given <= 0 {
				return 0, 0, 0, fmt.Sprintf("safetyFactor must be > 0, got %v", *given)
			}
			sf = *given
		}
		required, _ = decimal.NewFromFloat(*vt).Mul(decimal.NewFromFloat(sf)).Round(2).Float64()
		return required, sf, *vt, ""
	}

	if rt := pickFloat(raw.RequiredTorque, raw.RequiredTorqueLegacy); rt != nil {
		if *rt <= 0 {
			return 0, 0, 0, fmt.Sprintf("requiredTorque must be > 0, got %v", *rt)
		}
		return *rt, 0, 0, ""
	}

	return 0, 0, 0, "either valveTorque or requiredTorque is required"
}

func pickFloat(current, legacy *float64) *float64 {
	if current != nil {
		return current
	}
	return legacy
}

func pickBool(current, legacy *bool) *bool {
	if current != nil {
		return current
	}
	return legacy
}

func pickString(current, legacy string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	return legacy
}
