package selection

import (
	"sort"
	"strconv"
	"unicode"

	"actuator-workers/internal/models"
)

// Catalog spellings per mechanism. Records were imported under both names.
var mechanismSynonyms = map[models.Mechanism][]string{
	models.MechanismScotchYoke: {"Scotch Yoke", "拨叉式"},
	models.MechanismRackPinion: {"Rack & Pinion", "齿轮齿条式"},
}

var materialSynonyms = map[string][]string{
	"AluminumAlloy":  {"AluminumAlloy", "铝合金"},
	"StainlessSteel": {"StainlessSteel", "不锈钢"},
	"DuctileIron":    {"DuctileIron", "球墨铸铁"},
	"CarbonSteel":    {"CarbonSteel", "碳钢"},
}

// MechanismSynonyms returns the catalog spellings of a mechanism.
func MechanismSynonyms(m models.Mechanism) []string {
	return append([]string(nil), mechanismSynonyms[m]...)
}

// MaterialSynonyms maps a material preference to every catalog spelling.
// Unknown materials are matched verbatim.
func MaterialSynonyms(material string) []string {
	for canonical, names := range materialSynonyms {
		for _, n := range names {
			if n == material {
				return append([]string(nil), materialSynonyms[canonical]...)
			}
		}
	}
	return []string{material}
}

// BuildFilter translates a normalized request into a catalog query.
func BuildFilter(req *models.SelectionRequest) models.CatalogQuery {
	q := models.CatalogQuery{
		Mechanisms: MechanismSynonyms(req.Mechanism),
		BodySize:   req.BodySize,
		Status:     models.StatusPublished,
	}

	switch {
	case req.ActionType != "":
		q.ActionType = string(req.ActionType)
	case !req.HasSpringReturnParams():
		// spring-return candidates cannot be evaluated without a fail-safe position
		q.ActionType = string(models.ActionDoubleActing)
	}

	if req.Mechanism == models.MechanismRackPinion && req.Material != "" {
		q.Materials = MaterialSynonyms(req.Material)
	}

	return q
}

// SortByBodySize orders records by body size using natural order (SF10 < SF12 < SF100).
func SortByBodySize(records []models.ActuatorRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return NaturalLess(records[i].BodySize, records[j].BodySize)
	})
}

// NaturalLess compares strings treating digit runs as numbers.
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na, _ := strconv.ParseUint(string(ra[si:i]), 10, 64)
			nb, _ := strconv.ParseUint(string(rb[sj:j]), 10, 64)
			if na != nb {
				return na < nb
			}
			continue
		}
		if ra[i] != rb[j] {
			return ra[i] < rb[j]
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}
