package selection

import (
	"fmt"
	"strconv"
	"strings"

	"actuator-workers/internal/models"
)

const pressureUnit = "MPa"

// matchRackPinion evaluates rack-and-pinion records. Results carry no yoke variant.
func matchRackPinion(req *models.SelectionRequest, rec *models.ActuatorRecord) (torqueMatch, matchOutcome, string) {
	switch rec.ActionType {
	case models.ActionDoubleActing:
		if _, _, bad := lookupStrict(rec.Torque, "pressure", rec.Torque.Pressure, pressureLabelKeys(req.WorkingPressure)...); bad != "" {
			return torqueMatch{}, matchDataMissing, fmt.Sprintf("torque at %s is not numeric", bad)
		}
		actual, ok := lookupPressureTorque(rec.Torque.Pressure, req.WorkingPressure)
		if !ok {
			return torqueMatch{}, matchDataMissing, fmt.Sprintf("no torque at or below %v MPa", req.WorkingPressure)
		}
		if actual < req.RequiredTorque {
			return torqueMatch{}, matchInsufficient, ""
		}
		return torqueMatch{actual: actual, fragment: rec.ModelBase}, matchAdmissible, ""

	case models.ActionSpringReturn:
		if len(rec.Torque.Spring) == 0 {
			return torqueMatch{}, matchDataMissing, "no spring torque table"
		}
		air, ok := lookupAirTable(rec.Torque.Air, req.WorkingPressure)
		if !ok {
			return torqueMatch{}, matchDataMissing, fmt.Sprintf("no air torque at %v MPa", req.WorkingPressure)
		}

		var t springReturnTorques
		t.springStart, t.hasSST = rec.Torque.Spring.Lookup("SST")
		t.springEnd, t.hasSET = rec.Torque.Spring.Lookup("SET")
		t.airStart, t.hasAST = air.Lookup("AST")
		t.airEnd, t.hasAET = air.Lookup("AET")

		actual, outcome, reason := evaluateSpringReturn(req, t)
		if outcome != matchAdmissible {
			return torqueMatch{}, outcome, reason
		}
		name, tag := withFailSafeSuffix(rec.ModelBase, req, rec)
		return torqueMatch{actual: actual, failSafeTag: tag, fragment: name}, matchAdmissible, ""

	default:
		return torqueMatch{}, matchDataMissing, fmt.Sprintf("unknown action type %q", rec.ActionType)
	}
}

// lookupPressureTorque tries the exact label, then falls back to the highest
// tabulated pressure not above p. It never extrapolates upward.
func lookupPressureTorque(table models.TorqueTable, p float64) (float64, bool) {
	if len(table) == 0 {
		return 0, false
	}
	if v, ok := table.Lookup(pressureLabelKeys(p)...); ok {
		return v, true
	}

	var (
		best      float64
		bestLabel string
		found     bool
	)
	for label := range table {
		lp, ok := ParsePressureLabel(label)
		if !ok || lp > p {
			continue
		}
		if !found || lp > best || (lp == best && label < bestLabel) {
			best, bestLabel, found = lp, label, true
		}
	}
	if !found {
		return 0, false
	}
	return table[bestLabel], true
}

// lookupAirTable only accepts an exact pressure label.
func lookupAirTable(air map[string]models.TorqueTable, p float64) (models.TorqueTable, bool) {
	for _, k := range pressureLabelKeys(p) {
		if t, ok := air[k]; ok && len(t) > 0 {
			return t, true
		}
	}
	return nil, false
}

func pressureLabelKeys(p float64) []string {
	labels := pressureLabels(p)
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = l + pressureUnit
	}
	return keys
}

// ParsePressureLabel reads "0.4MPa", "0.4 mpa" or "0.4" as 0.4.
func ParsePressureLabel(label string) (float64, bool) {
	s := strings.TrimSpace(label)
	if len(s) >= len(pressureUnit) && strings.EqualFold(s[len(s)-len(pressureUnit):], pressureUnit) {
		s = strings.TrimSpace(s[:len(s)-len(pressureUnit)])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
