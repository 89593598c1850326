package catalog

import (
	"testing"

	"actuator-workers/internal/models"
	"actuator-workers/internal/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDecodeTorqueData_ScotchYoke(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{
			name: "camelCase wrapper",
			raw: map[string]interface{}{
				"torqueData": map[string]interface{}{
					"symmetric": map[string]interface{}{"0_4_90": 412.0, "0_5_90": "520"},
					"canted":    map[string]interface{}{"0_4_90": 380},
				},
			},
		},
		{
			name: "snake_case wrapper with capitalised tables",
			raw: map[string]interface{}{
				"torque_data": map[string]interface{}{
					"Symmetric": map[string]interface{}{"0_4_90": 412, "0_5_90": 520.0},
					"Canted":    map[string]interface{}{"0_4_90": "380"},
				},
			},
		},
		{
			name: "json payload",
			raw:  []byte(`{"symmetric": {"0_4_90": 412, "0_5_90": 520}, "canted": {"0_4_90": 380}}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td, err := DecodeTorqueData(tt.raw, models.MechanismScotchYoke, models.ActionDoubleActing)
			require.NoError(t, err)
			assert.Equal(t, models.TorqueTable{"0_4_90": 412, "0_5_90": 520}, td.Symmetric)
			assert.Equal(t, models.TorqueTable{"0_4_90": 380}, td.Canted)
		})
	}
}

func TestDecodeTorqueData_ScotchYokeSpringReturnKeysUpperCased(t *testing.T) {
	raw := map[string]interface{}{
		"symmetric": map[string]interface{}{"sst": 600, "Set": 420, "ast_0.4": 500, "aet_0.4": 350, "bad": "n/a"},
	}
	td, err := DecodeTorqueData(raw, models.MechanismScotchYoke, models.ActionSpringReturn)
	require.NoError(t, err)
	assert.Equal(t, models.TorqueTable{"SST": 600, "SET": 420, "AST_0.4": 500, "AET_0.4": 350}, td.Symmetric)
	assert.Nil(t, td.Canted)
}

func TestDecodeTorqueData_RackPinion(t *testing.T) {
	t.Run("double acting flat labels", func(t *testing.T) {
		raw := map[string]interface{}{"0.4mpa": 60, "0.5 MPa": "75", "0.6": 90, "note": 12}
		td, err := DecodeTorqueData(raw, models.MechanismRackPinion, models.ActionDoubleActing)
		require.NoError(t, err)
		assert.Equal(t, models.TorqueTable{"0.4MPa": 60, "0.5MPa": 75, "0.6MPa": 90}, td.Pressure)
	})

	t.Run("spring return snake_case", func(t *testing.T) {
		raw := map[string]interface{}{
			"spring_torque": map[string]interface{}{"sst": 90, "srt": 70, "set": 60},
			"air_torque": map[string]interface{}{
				"0.5mpa": map[string]interface{}{"ast": 110, "art": 80, "aet": 75},
			},
		}
		td, err := DecodeTorqueData(raw, models.MechanismRackPinion, models.ActionSpringReturn)
		require.NoError(t, err)
		assert.Equal(t, models.TorqueTable{"SST": 90, "SRT": 70, "SET": 60}, td.Spring)
		require.Contains(t, td.Air, "0.5MPa")
		assert.Equal(t, 110.0, td.Air["0.5MPa"]["AST"])
		assert.Nil(t, td.Pressure)
	})

	t.Run("spring return camelCase", func(t *testing.T) {
		raw := map[string]interface{}{
			"springTorque": map[string]interface{}{"SST": 90, "SET": 60},
			"airTorque": map[string]interface{}{
				"0.6MPa": map[string]interface{}{"AST": 140, "AET": 95},
			},
		}
		td, err := DecodeTorqueData(raw, models.MechanismRackPinion, models.ActionSpringReturn)
		require.NoError(t, err)
		assert.Equal(t, 95.0, td.Air["0.6MPa"]["AET"])
	})
}

func TestDecodeTorqueData_RecordsNonNumericEntries(t *testing.T) {
	raw := map[string]interface{}{
		"symmetric": map[string]interface{}{"0_4_90": "n/a", "0_4_0": 500},
		"canted":    map[string]interface{}{"0_4_90": 380},
	}
	td, err := DecodeTorqueData(raw, models.MechanismScotchYoke, models.ActionDoubleActing)
	require.NoError(t, err)
	assert.Equal(t, models.TorqueTable{"0_4_0": 500}, td.Symmetric)
	assert.Equal(t, []string{"symmetric/0_4_90"}, td.Invalid)
	assert.True(t, td.IsInvalid("symmetric", "0_4_90"))
	assert.False(t, td.IsInvalid("canted", "0_4_90"))

	air := map[string]interface{}{
		"springTorque": map[string]interface{}{"SST": 90, "SET": "?"},
		"airTorque":    map[string]interface{}{"0.5MPa": map[string]interface{}{"AST": 110, "AET": "-"}},
	}
	td, err = DecodeTorqueData(air, models.MechanismRackPinion, models.ActionSpringReturn)
	require.NoError(t, err)
	assert.Equal(t, []string{"air/0.5MPa/AET", "spring/SET"}, td.Invalid)
}

func TestDecodeRecord_NonNumericTorqueAtRequestedPressureIsExcluded(t *testing.T) {
	rec, err := DecodeRecord(map[string]interface{}{
		"id":            "rp-bad",
		"model_base":    "AT075DA",
		"mechanism":     "RackPinion",
		"action_type":   "DA",
		"body_size":     "AT075",
		"status":        "published",
		"pricing_model": "fixed",
		"base_price":    900,
		"torqueData":    map[string]interface{}{"0.3MPa": 500, "0.4MPa": "n/a"},
	})
	require.NoError(t, err)

	req := &models.SelectionRequest{
		RequiredTorque:   450,
		WorkingPressure:  0.4,
		WorkingAngle:     selection.FixedWorkingAngle,
		Mechanism:        models.MechanismRackPinion,
		ValveType:        models.ValveBall,
		ActionType:       models.ActionDoubleActing,
		TemperatureCode:  models.TempNoCode,
		TemperatureUsage: models.UsageNormal,
		Quantity:         1,
	}
	ev := selection.Evaluate(req, []models.ActuatorRecord{rec}, nil, selection.PricingOptions{})

	assert.Empty(t, ev.Results)
	require.Len(t, ev.Warnings, 1)
	assert.Equal(t, "rp-bad", ev.Warnings[0].ActuatorID)
	assert.Contains(t, ev.Warnings[0].Reason, "0.4MPa")
}

func TestDecodeTorqueData_Errors(t *testing.T) {
	_, err := DecodeTorqueData([]byte(`{not json`), models.MechanismScotchYoke, models.ActionDoubleActing)
	assert.Error(t, err)

	_, err = DecodeTorqueData(42, models.MechanismScotchYoke, models.ActionDoubleActing)
	assert.Error(t, err)

	td, err := DecodeTorqueData(nil, models.MechanismScotchYoke, models.ActionDoubleActing)
	require.NoError(t, err)
	assert.True(t, td.IsEmpty())
}

func TestDecodeRecord(t *testing.T) {
	raw := map[string]interface{}{
		"id":            "sy-10",
		"model_base":    "SF10-150DA",
		"mechanism":     "拨叉式",
		"action_type":   "DA",
		"body_size":     "SF10",
		"status":        "Published",
		"pricing_model": "tiered",
		"base_price":    "1000",
		"price_tiers": []interface{}{
			map[string]interface{}{"min_quantity": 1, "unit_price": 1000},
			map[string]interface{}{"minQuantity": 10, "unitPrice": 900.0, "price_type": "Standard"},
		},
		"torque_data": map[string]interface{}{
			"symmetric": map[string]interface{}{"0_4_0": 412},
		},
	}

	rec, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "sy-10", rec.ID)
	assert.Equal(t, "SF10-150DA", rec.ModelBase)
	assert.Equal(t, models.MechanismScotchYoke, rec.Mechanism)
	assert.Equal(t, models.ActionDoubleActing, rec.ActionType)
	assert.Equal(t, models.StatusPublished, rec.Status)
	assert.Equal(t, models.PricingTiered, rec.Pricing)
	assert.Equal(t, 1000.0, rec.BasePrice)
	require.Len(t, rec.PriceTiers, 2)
	assert.Equal(t, 10, rec.PriceTiers[1].MinQuantity)
	assert.Equal(t, models.PriceTypeStandard, rec.PriceTiers[1].PriceType)
	assert.Equal(t, 412.0, rec.Torque.Symmetric["0_4_0"])
}

func TestDecodeRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"missing id", map[string]interface{}{"mechanism": "SY", "actionType": "DA"}},
		{"unknown mechanism", map[string]interface{}{"id": "x", "mechanism": "vane", "actionType": "DA"}},
		{"unknown action", map[string]interface{}{"id": "x", "mechanism": "SY", "actionType": "??"}},
		{"unknown pricing", map[string]interface{}{"id": "x", "mechanism": "SY", "actionType": "DA", "pricingModel": "auction"}},
		{"bad base price", map[string]interface{}{"id": "x", "mechanism": "SY", "actionType": "DA", "basePrice": "cheap"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestDecodeRecord_FromYAML(t *testing.T) {
	doc := `
id: rp-63
modelBase: AT063SR
mechanism: Rack & Pinion
actionType: SR
bodySize: AT063
material: 铝合金
status: published
basePrice: 800
torqueData:
  spring_torque: {SST: 90, SET: 60}
  air_torque:
    0.5MPa: {AST: 110, AET: 75}
`
	var raw map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))

	rec, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, models.MechanismRackPinion, rec.Mechanism)
	assert.Equal(t, "铝合金", rec.Material)
	assert.Equal(t, 800.0, rec.BasePrice)
	assert.Equal(t, 60.0, rec.Torque.Spring["SET"])
	assert.Equal(t, 75.0, rec.Torque.Air["0.5MPa"]["AET"])
}

func TestDecodePriceTiers(t *testing.T) {
	tiers, err := DecodePriceTiers(`[{"minQuantity": 1, "unitPrice": 100}, {"min_quantity": "10", "unit_price": "90"}]`)
	require.NoError(t, err)
	assert.Equal(t, []models.PriceTier{
		{MinQuantity: 1, UnitPrice: 100},
		{MinQuantity: 10, UnitPrice: 90},
	}, tiers)

	tiers, err = DecodePriceTiers([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, tiers)

	_, err = DecodePriceTiers([]interface{}{map[string]interface{}{"minQuantity": 1}})
	assert.Error(t, err)

	_, err = DecodePriceTiers(map[string]interface{}{})
	assert.Error(t, err)
}

func TestDecodeOverride(t *testing.T) {
	mo, err := DecodeOverride(map[string]interface{}{
		"id":                    "mo-1",
		"model":                 "HW-10",
		"price":                 250,
		"compatible_body_sizes": []interface{}{"SF10", "SF12", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SF10", "SF12"}, mo.CompatibleBodySizes)
	assert.Equal(t, 250.0, mo.Price)

	_, err = DecodeOverride(map[string]interface{}{"id": "mo-2", "price": "free"})
	assert.Error(t, err)
}
