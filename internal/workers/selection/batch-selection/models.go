// internal/workers/selection/batch-selection/models.go
package batchselection

import (
	"encoding/json"

	"actuator-workers/internal/models"
)

type Input struct {
	Requests []json.RawMessage `json:"requests"`
}

// Output carries {succeeded, failed, total} into the process variables.
type Output struct {
	models.BatchResult
}
