package models

// TorqueTable maps a canonical torque key to a torque value in N·m.
type TorqueTable map[string]float64

// Lookup returns the first key present in the table.
func (t TorqueTable) Lookup(keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := t[k]; ok {
			return v, true
		}
	}
	return 0, false
}

// TorqueData is the normalized torque representation of an actuator.
//
// Scotch-Yoke double-acting models fill Symmetric and Canted with
// "<pressure>_<angle>" keys. Scotch-Yoke spring-return models fill the same
// two tables with SST, SET, AST_<p> and AET_<p>. Rack-and-pinion double-acting
// models fill Pressure with "<p>MPa" labels; spring-return ones fill Spring
// (SST, SRT, SET) and Air keyed by pressure label (AST, ART, AET).
type TorqueData struct {
	Symmetric TorqueTable            `json:"symmetric,omitempty"`
	Canted    TorqueTable            `json:"canted,omitempty"`
	Pressure  TorqueTable            `json:"pressure,omitempty"`
	Spring    TorqueTable            `json:"spring,omitempty"`
	Air       map[string]TorqueTable `json:"air,omitempty"`

	// Invalid lists entries that were present but not numeric, as
	// "<table>/<key>" (e.g. "pressure/0.4MPa", "symmetric/0_4_90").
	Invalid []string `json:"invalid,omitempty"`
}

// IsInvalid reports whether key of table was ingested as a non-numeric value.
func (d TorqueData) IsInvalid(table, key string) bool {
	want := table + "/" + key
	for _, k := range d.Invalid {
		if k == want {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no torque value was ingested at all.
func (d TorqueData) IsEmpty() bool {
	return len(d.Symmetric) == 0 && len(d.Canted) == 0 && len(d.Pressure) == 0 &&
		len(d.Spring) == 0 && len(d.Air) == 0
}

type PriceTier struct {
	MinQuantity int     `json:"minQuantity"`
	UnitPrice   float64 `json:"unitPrice"`
	PriceType   string  `json:"priceType,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// IsStandard reports whether the tier applies to standard sales pricing.
func (t PriceTier) IsStandard() bool {
	return t.PriceType == "" || t.PriceType == PriceTypeStandard
}

// ActuatorRecord is a catalog entry after ingestion.
type ActuatorRecord struct {
	ID         string       `json:"id"`
	ModelBase  string       `json:"modelBase"`
	Mechanism  Mechanism    `json:"mechanism"`
	ActionType ActionType   `json:"actionType"`
	BodySize   string       `json:"bodySize"`
	Material   string       `json:"material,omitempty"`
	Status     string       `json:"status"`
	Torque     TorqueData   `json:"torqueData"`
	Pricing    PricingModel `json:"pricingModel"`
	BasePrice  float64      `json:"basePrice"`
	PriceTiers []PriceTier  `json:"priceTiers,omitempty"`
}

// ManualOverrideRecord is a manual handwheel/gearbox add-on.
type ManualOverrideRecord struct {
	ID                  string   `json:"id"`
	Model               string   `json:"model"`
	Price               float64  `json:"price"`
	CompatibleBodySizes []string `json:"compatibleBodySizes"`
}

// FitsBodySize reports whether the override mounts on the given body size.
func (m ManualOverrideRecord) FitsBodySize(bodySize string) bool {
	for _, s := range m.CompatibleBodySizes {
		if s == bodySize {
			return true
		}
	}
	return false
}

// CatalogQuery is the store-agnostic candidate filter.
type CatalogQuery struct {
	Mechanisms []string `json:"mechanisms"`
	ActionType string   `json:"actionType,omitempty"`
	BodySize   string   `json:"bodySize,omitempty"`
	Materials  []string `json:"materials,omitempty"`
	Status     string   `json:"status"`
}
