package selection

import (
	"fmt"
	"strconv"
	"strings"

	"actuator-workers/internal/models"
)

// matchScotchYoke reads the symmetric table for ball valves and the canted
// table for butterfly valves.
func matchScotchYoke(req *models.SelectionRequest, rec *models.ActuatorRecord) (torqueMatch, matchOutcome, string) {
	table, tableName, variant, fragment := rec.Torque.Symmetric, "symmetric", models.VariantSymmetric, rec.ModelBase
	if req.ValveType == models.ValveButterfly {
		table, tableName, variant, fragment = rec.Torque.Canted, "canted", models.VariantCanted, rec.ModelBase+"/C"
	}

	if len(table) == 0 {
		return torqueMatch{}, matchDataMissing, fmt.Sprintf("no %s torque table", strings.ToLower(string(variant)))
	}

	switch rec.ActionType {
	case models.ActionDoubleActing:
		actual, ok, bad := lookupStrict(rec.Torque, tableName, table, scotchYokeKeys(req.WorkingPressure)...)
		if bad != "" {
			return torqueMatch{}, matchDataMissing, fmt.Sprintf("%s torque %s is not numeric", strings.ToLower(string(variant)), bad)
		}
		if !ok {
			return torqueMatch{}, matchDataMissing,
				fmt.Sprintf("no %s torque at %v MPa", strings.ToLower(string(variant)), req.WorkingPressure)
		}
		if actual < req.RequiredTorque {
			return torqueMatch{}, matchInsufficient, ""
		}
		return torqueMatch{actual: actual, variant: variant, fragment: fragment}, matchAdmissible, ""

	case models.ActionSpringReturn:
		var t springReturnTorques
		t.springStart, t.hasSST = table.Lookup("SST")
		t.springEnd, t.hasSET = table.Lookup("SET")
		t.airStart, t.hasAST = table.Lookup(scotchYokeAirKeys("AST", req.WorkingPressure)...)
		t.airEnd, t.hasAET = table.Lookup(scotchYokeAirKeys("AET", req.WorkingPressure)...)

		actual, outcome, reason := evaluateSpringReturn(req, t)
		if outcome != matchAdmissible {
			return torqueMatch{}, outcome, reason
		}
		name, tag := withFailSafeSuffix(fragment, req, rec)
		return torqueMatch{actual: actual, variant: variant, failSafeTag: tag, fragment: name}, matchAdmissible, ""

	default:
		return torqueMatch{}, matchDataMissing, fmt.Sprintf("unknown action type %q", rec.ActionType)
	}
}

// scotchYokeKeys returns "<p>_90" keys, then "<p>_0" keys for tables that
// only carry the stroke-start value.
func scotchYokeKeys(p float64) []string {
	labels := pressureLabels(p)
	keys := make([]string, 0, len(labels)*2)
	for _, angle := range []int{FixedWorkingAngle, 0} {
		for _, l := range labels {
			keys = append(keys, strings.ReplaceAll(l, ".", "_")+"_"+strconv.Itoa(angle))
		}
	}
	return keys
}

// scotchYokeAirKeys returns AST_0.4 / AST_0_4 style keys.
func scotchYokeAirKeys(prefix string, p float64) []string {
	labels := pressureLabels(p)
	keys := make([]string, 0, len(labels)*2)
	for _, l := range labels {
		keys = append(keys, prefix+"_"+l)
		if u := strings.ReplaceAll(l, ".", "_"); u != l {
			keys = append(keys, prefix+"_"+u)
		}
	}
	return keys
}
