package selection

import (
	"fmt"
	"strconv"
	"strings"

	"actuator-workers/internal/models"
)

type matchOutcome int

const (
	matchAdmissible matchOutcome = iota
	matchInsufficient
	matchDataMissing
)

// torqueMatch is the torque-side half of a result item.
type torqueMatch struct {
	actual      float64
	variant     models.Variant
	failSafeTag string
	fragment    string // model name before the temperature suffix
}

// matchTorque dispatches on the requested mechanism. A matchDataMissing outcome
// carries the reason reported as a data-integrity warning.
func matchTorque(req *models.SelectionRequest, rec *models.ActuatorRecord) (torqueMatch, matchOutcome, string) {
	switch req.Mechanism {
	case models.MechanismScotchYoke:
		return matchScotchYoke(req, rec)
	case models.MechanismRackPinion:
		return matchRackPinion(req, rec)
	default:
		return torqueMatch{}, matchDataMissing, fmt.Sprintf("unsupported mechanism %q", req.Mechanism)
	}
}

// springReturnTorques holds the values the fail-safe rules read, shared by both families.
type springReturnTorques struct {
	springStart, springEnd float64 // SST, SET
	airStart, airEnd       float64 // AST, AET
	hasSST, hasSET         bool
	hasAST, hasAET         bool
}

// evaluateSpringReturn checks FailClose as SET >= closing and AST >= opening,
// FailOpen as SST >= opening and AET >= closing. Actual torque is the smaller of the two.
func evaluateSpringReturn(req *models.SelectionRequest, t springReturnTorques) (float64, matchOutcome, string) {
	switch req.FailSafePosition {
	case models.FailOpen:
		if !t.hasSST || !t.hasAET {
			return 0, matchDataMissing, missingComponents(map[string]bool{"SST": t.hasSST, "AET": t.hasAET})
		}
		if t.springStart < req.RequiredOpeningTorque || t.airEnd < req.RequiredClosingTorque {
			return 0, matchInsufficient, ""
		}
		return min(t.springStart, t.airEnd), matchAdmissible, ""
	default:
		// FailClose, and NotApplicable evaluated like FailClose
		if !t.hasSET || !t.hasAST {
			return 0, matchDataMissing, missingComponents(map[string]bool{"SET": t.hasSET, "AST": t.hasAST})
		}
		if t.springEnd < req.RequiredClosingTorque || t.airStart < req.RequiredOpeningTorque {
			return 0, matchInsufficient, ""
		}
		return min(t.springEnd, t.airStart), matchAdmissible, ""
	}
}

func missingComponents(present map[string]bool) string {
	var missing []string
	for _, name := range []string{"SST", "SET", "AST", "AET"} {
		if ok, tracked := present[name]; tracked && !ok {
			missing = append(missing, name)
		}
	}
	return "missing spring-return torque " + strings.Join(missing, ", ")
}

// withFailSafeSuffix appends -STC/-STO for spring-return results.
func withFailSafeSuffix(fragment string, req *models.SelectionRequest, rec *models.ActuatorRecord) (string, string) {
	if rec.ActionType != models.ActionSpringReturn {
		return fragment, ""
	}
	tag := req.FailSafePosition.Tag()
	if tag == "" {
		return fragment, ""
	}
	return fragment + "-" + tag, tag
}

// pressureLabels renders a pressure the ways catalog keys spell it,
// keeping only spellings that parse back to the same value.
func pressureLabels(p float64) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, prec := range []int{-1, 1, 2} {
		s := strconv.FormatFloat(p, 'f', prec, 64)
		if v, err := strconv.ParseFloat(s, 64); err != nil || v != p || seen[s] {
			continue
		}
		seen[s] = true
		labels = append(labels, s)
	}
	return labels
}

// lookupStrict returns the first key present in t. A key that was ingested as
// non-numeric ends the walk and is returned as bad, so no later fallback key
// is read in its place.
func lookupStrict(td models.TorqueData, name string, t models.TorqueTable, keys ...string) (value float64, ok bool, bad string) {
	for _, k := range keys {
		if v, found := t[k]; found {
			return v, true, ""
		}
		if td.IsInvalid(name, k) {
			return 0, false, k
		}
	}
	return 0, false, ""
}
