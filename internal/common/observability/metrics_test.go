package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservability_ZeroValueIsNoOp(t *testing.T) {
	var nilObs *Observability
	assert.NotPanics(t, func() {
		nilObs.RecordJobProcessed(context.Background(), "calculate-selection", "completed")
		nilObs.RecordJobDuration(context.Background(), "calculate-selection", time.Second, "completed")
		assert.NoError(t, nilObs.Shutdown(context.Background()))
	})

	empty := &Observability{}
	assert.NotPanics(t, func() {
		empty.RecordJobProcessed(context.Background(), "batch-selection", "failed")
	})
}

func TestObservability_RecordsAndShutsDown(t *testing.T) {
	obs, err := New("selection-test")
	if err != nil {
		t.Skipf("prometheus exporter unavailable: %v", err)
	}

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "calculate-selection", "completed")
	obs.RecordJobDuration(ctx, "calculate-selection", 15*time.Millisecond, "completed")

	assert.NoError(t, obs.Shutdown(ctx))
}
