package selection

import (
	"actuator-workers/internal/models"
)

func ptr[T any](v T) *T {
	return &v
}

func syDoubleActing(id, bodySize string, symmetric, canted models.TorqueTable, price float64) models.ActuatorRecord {
	return models.ActuatorRecord{
		ID:         id,
		ModelBase:  bodySize + "-150DA",
		Mechanism:  models.MechanismScotchYoke,
		ActionType: models.ActionDoubleActing,
		BodySize:   bodySize,
		Status:     models.StatusPublished,
		Torque:     models.TorqueData{Symmetric: symmetric, Canted: canted},
		Pricing:    models.PricingFixed,
		BasePrice:  price,
	}
}

func sySpringReturn(id string) models.ActuatorRecord {
	return models.ActuatorRecord{
		ID:         id,
		ModelBase:  "SF10-150SR3",
		Mechanism:  models.MechanismScotchYoke,
		ActionType: models.ActionSpringReturn,
		BodySize:   "SF10",
		Status:     models.StatusPublished,
		Torque: models.TorqueData{
			Symmetric: models.TorqueTable{"SST": 600, "SET": 420, "AST_0.4": 500, "AET_0.4": 350},
			Canted:    models.TorqueTable{"SST": 560, "SET": 400, "AST_0_4": 480, "AET_0_4": 330},
		},
		Pricing:   models.PricingFixed,
		BasePrice: 2400,
	}
}

func rpDoubleActing(id, bodySize string, pressure models.TorqueTable, price float64) models.ActuatorRecord {
	return models.ActuatorRecord{
		ID:         id,
		ModelBase:  "AT" + bodySize[2:] + "DA",
		Mechanism:  models.MechanismRackPinion,
		ActionType: models.ActionDoubleActing,
		BodySize:   bodySize,
		Material:   "AluminumAlloy",
		Status:     models.StatusPublished,
		Torque:     models.TorqueData{Pressure: pressure},
		Pricing:    models.PricingFixed,
		BasePrice:  price,
	}
}

func rpSpringReturn(id string) models.ActuatorRecord {
	return models.ActuatorRecord{
		ID:         id,
		ModelBase:  "AT063SR",
		Mechanism:  models.MechanismRackPinion,
		ActionType: models.ActionSpringReturn,
		BodySize:   "AT063",
		Material:   "AluminumAlloy",
		Status:     models.StatusPublished,
		Torque: models.TorqueData{
			Spring: models.TorqueTable{"SST": 90, "SRT": 70, "SET": 60},
			Air: map[string]models.TorqueTable{
				"0.5MPa": {"AST": 110, "ART": 80, "AET": 75},
				"0.6MPa": {"AST": 140, "ART": 100, "AET": 95},
			},
		},
		Pricing:   models.PricingFixed,
		BasePrice: 800,
	}
}

func daRequest(mech models.Mechanism, valve models.ValveType, required, pressure float64) *models.SelectionRequest {
	return &models.SelectionRequest{
		RequiredTorque:   required,
		WorkingPressure:  pressure,
		WorkingAngle:     FixedWorkingAngle,
		Mechanism:        mech,
		ValveType:        valve,
		ActionType:       models.ActionDoubleActing,
		TemperatureCode:  models.TempNoCode,
		TemperatureUsage: models.UsageNormal,
		Quantity:         1,
	}
}

func srRequest(mech models.Mechanism, valve models.ValveType, fs models.FailSafePosition, opening, closing float64) *models.SelectionRequest {
	req := daRequest(mech, valve, 300, 0.4)
	req.ActionType = models.ActionSpringReturn
	req.FailSafePosition = fs
	req.RequiredOpeningTorque = opening
	req.RequiredClosingTorque = closing
	return req
}
