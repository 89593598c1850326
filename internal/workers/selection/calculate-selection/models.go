// internal/workers/selection/calculate-selection/models.go
package calculateselection

import "actuator-workers/internal/models"

// Output is merged into the process variables. Input is the raw selection
// request document itself.
type Output struct {
	Success        bool                          `json:"success"`
	RequestID      string                        `json:"requestId,omitempty"`
	Results        []models.SelectionResultItem  `json:"results"`
	BestChoice     *models.SelectionResultItem   `json:"bestChoice,omitempty"`
	Suggestions    []string                      `json:"suggestions,omitempty"`
	Warnings       []models.DataIntegrityWarning `json:"warnings,omitempty"`
	CandidateCount int                           `json:"candidateCount"`
	Message        string                        `json:"message,omitempty"`
}
