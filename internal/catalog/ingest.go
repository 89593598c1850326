// Package catalog loads actuator and manual-override records from the
// supported backends and adapts legacy document shapes into models.ActuatorRecord.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"actuator-workers/internal/models"
)

const pressureUnit = "MPa"

// DecodeRecord converts a stored row or document into an ActuatorRecord.
// Both camelCase and snake_case field names are accepted.
func DecodeRecord(raw map[string]interface{}) (models.ActuatorRecord, error) {
	var rec models.ActuatorRecord

	rec.ID = stringField(raw, "id", "_id")
	if rec.ID == "" {
		return rec, fmt.Errorf("actuator record without id")
	}

	mech, ok := models.ParseMechanism(stringField(raw, "mechanism"))
	if !ok {
		return rec, fmt.Errorf("actuator %s: unknown mechanism %q", rec.ID, stringField(raw, "mechanism"))
	}
	action, ok := models.ParseActionType(stringField(raw, "actionType"))
	if !ok {
		return rec, fmt.Errorf("actuator %s: unknown action type %q", rec.ID, stringField(raw, "actionType"))
	}
	pricing, err := parsePricingModel(stringField(raw, "pricingModel"))
	if err != nil {
		return rec, fmt.Errorf("actuator %s: %w", rec.ID, err)
	}

	rec.Mechanism = mech
	rec.ActionType = action
	rec.Pricing = pricing
	rec.ModelBase = stringField(raw, "modelBase", "model")
	rec.BodySize = stringField(raw, "bodySize")
	rec.Material = stringField(raw, "material")
	rec.Status = strings.ToLower(stringField(raw, "status"))

	if v, found := field(raw, "basePrice"); found {
		if rec.BasePrice, ok = toFloat(v); !ok {
			return rec, fmt.Errorf("actuator %s: base price %v is not numeric", rec.ID, v)
		}
	}

	// torque may sit under a wrapper key or at the top level of the document
	torqueRaw, found := field(raw, "torqueData")
	if !found {
		torqueRaw = raw
	}
	if rec.Torque, err = DecodeTorqueData(torqueRaw, mech, action); err != nil {
		return rec, fmt.Errorf("actuator %s: %w", rec.ID, err)
	}

	if v, found := field(raw, "priceTiers"); found && v != nil {
		if rec.PriceTiers, err = DecodePriceTiers(v); err != nil {
			return rec, fmt.Errorf("actuator %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// DecodeTorqueData normalizes a torque document for the given family and
// action type. raw may be a decoded map or a JSON payload.
func DecodeTorqueData(raw interface{}, mech models.Mechanism, action models.ActionType) (models.TorqueData, error) {
	var td torqueDecoder

	m, err := asDocument(raw)
	if err != nil {
		return td.TorqueData, fmt.Errorf("torque data: %w", err)
	}
	if m == nil {
		return td.TorqueData, nil
	}
	if inner, found := field(m, "torqueData"); found {
		if m, err = asDocument(inner); err != nil {
			return td.TorqueData, fmt.Errorf("torque data: %w", err)
		}
	}

	switch mech {
	case models.MechanismScotchYoke:
		if v, ok := field(m, "symmetric"); ok {
			td.Symmetric = td.decodeTable("symmetric", v, canonicalTorqueKey)
		}
		if v, ok := field(m, "canted"); ok {
			td.Canted = td.decodeTable("canted", v, canonicalTorqueKey)
		}

	case models.MechanismRackPinion:
		if action == models.ActionSpringReturn {
			if v, ok := field(m, "springTorque", "spring"); ok {
				td.Spring = td.decodeTable("spring", v, canonicalTorqueKey)
			}
			if v, ok := field(m, "airTorque", "air"); ok {
				td.Air = td.decodeAirTables(v)
			}
			break
		}
		src := interface{}(m)
		if v, ok := field(m, "pressure", "torque"); ok {
			src = v
		}
		td.Pressure = td.decodeTable("pressure", src, canonicalPressureLabel)

	default:
		return td.TorqueData, fmt.Errorf("unsupported mechanism %q", mech)
	}
	sort.Strings(td.Invalid)
	return td.TorqueData, nil
}

// DecodePriceTiers reads a tier list from a decoded slice or a JSON payload.
func DecodePriceTiers(raw interface{}) ([]models.PriceTier, error) {
	if b, ok := payloadBytes(raw); ok {
		if len(b) == 0 || string(b) == "null" {
			return nil, nil
		}
		var list []interface{}
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("price tiers: %w", err)
		}
		raw = list
	}

	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("price tiers: expected a list, got %T", raw)
	}

	tiers := make([]models.PriceTier, 0, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("price tier %d: expected an object, got %T", i, item)
		}
		minQty, okQty := toFloat(fieldValue(m, "minQuantity"))
		price, okPrice := toFloat(fieldValue(m, "unitPrice", "price"))
		if !okQty || !okPrice {
			return nil, fmt.Errorf("price tier %d: minQuantity and unitPrice must be numeric", i)
		}
		tiers = append(tiers, models.PriceTier{
			MinQuantity: int(minQty),
			UnitPrice:   price,
			PriceType:   strings.ToLower(stringField(m, "priceType")),
			Notes:       stringField(m, "notes"),
		})
	}
	return tiers, nil
}

// DecodeOverride converts a stored manual-override row or document.
func DecodeOverride(raw map[string]interface{}) (models.ManualOverrideRecord, error) {
	mo := models.ManualOverrideRecord{
		ID:    stringField(raw, "id", "_id"),
		Model: stringField(raw, "model", "modelName"),
	}
	if mo.ID == "" {
		return mo, fmt.Errorf("manual override without id")
	}
	price, ok := toFloat(fieldValue(raw, "price"))
	if !ok {
		return mo, fmt.Errorf("manual override %s: price is not numeric", mo.ID)
	}
	mo.Price = price

	if sizes, ok := fieldValue(raw, "compatibleBodySizes").([]interface{}); ok {
		for _, s := range sizes {
			if str := strings.TrimSpace(fmt.Sprint(s)); str != "" {
				mo.CompatibleBodySizes = append(mo.CompatibleBodySizes, str)
			}
		}
	}
	return mo, nil
}

func parsePricingModel(s string) (models.PricingModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed", "flat":
		return models.PricingFixed, nil
	case "tiered", "tier", "volume":
		return models.PricingTiered, nil
	default:
		return "", fmt.Errorf("unknown pricing model %q", s)
	}
}

// torqueDecoder records entries it had to drop in Invalid so the matcher can
// exclude the candidate instead of reading a neighbouring value.
type torqueDecoder struct {
	models.TorqueData
}

// decodeTable keeps numeric entries only.
func (d *torqueDecoder) decodeTable(name string, raw interface{}, canonical func(string) (string, bool)) models.TorqueTable {
	m, ok := asMap(raw)
	if !ok {
		return nil
	}
	out := make(models.TorqueTable, len(m))
	for k, v := range m {
		key, ok := canonical(k)
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			out[key] = f
		} else {
			d.Invalid = append(d.Invalid, name+"/"+key)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (d *torqueDecoder) decodeAirTables(raw interface{}) map[string]models.TorqueTable {
	m, ok := asMap(raw)
	if !ok {
		return nil
	}
	out := make(map[string]models.TorqueTable, len(m))
	for label, v := range m {
		key, ok := canonicalPressureLabel(label)
		if !ok {
			continue
		}
		if t := d.decodeTable("air/"+key, v, canonicalTorqueKey); t != nil {
			out[key] = t
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// canonicalTorqueKey upper-cases letter components: "ast_0.4" -> "AST_0.4".
func canonicalTorqueKey(k string) (string, bool) {
	k = strings.ToUpper(strings.TrimSpace(k))
	return k, k != ""
}

// canonicalPressureLabel turns "0.4mpa", "0.4 MPa" or "0.4" into "0.4MPa",
// keeping the numeric spelling. Keys that are not pressures are rejected.
func canonicalPressureLabel(k string) (string, bool) {
	s := strings.TrimSpace(k)
	if len(s) >= len(pressureUnit) && strings.EqualFold(s[len(s)-len(pressureUnit):], pressureUnit) {
		s = strings.TrimSpace(s[:len(s)-len(pressureUnit)])
	}
	if v, err := strconv.ParseFloat(s, 64); err != nil || v <= 0 {
		return "", false
	}
	return s + pressureUnit, true
}

// field looks a key up case-insensitively, ignoring underscores, so
// "spring_torque", "springTorque" and "SpringTorque" all match.
func field(m map[string]interface{}, names ...string) (interface{}, bool) {
	for _, name := range names {
		if v, ok := m[name]; ok {
			return v, true
		}
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[foldKey(name)] = true
	}
	// sorted so duplicates under different spellings resolve the same way every time
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if want[foldKey(k)] {
			return m[k], true
		}
	}
	return nil, false
}

func fieldValue(m map[string]interface{}, names ...string) interface{} {
	v, _ := field(m, names...)
	return v
}

func stringField(m map[string]interface{}, names ...string) string {
	v, ok := field(m, names...)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func foldKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asMap accepts both map shapes yaml.v3 may produce.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asDocument(raw interface{}) (map[string]interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := payloadBytes(raw); ok {
		if len(b) == 0 || string(b) == "null" {
			return nil, nil
		}
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}
	return m, nil
}

func payloadBytes(raw interface{}) ([]byte, bool) {
	switch b := raw.(type) {
	case []byte:
		return b, true
	case json.RawMessage:
		return b, true
	case string:
		return []byte(b), true
	default:
		return nil, false
	}
}
