//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actuator-workers/internal/catalog"
	"actuator-workers/internal/common/camunda"
	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/selection"

	bs "actuator-workers/internal/workers/selection/batch-selection"
	cs "actuator-workers/internal/workers/selection/calculate-selection"
)

// Run with a broker listening on ZEEBE_ADDRESS (default localhost:26500):
//
//	go test -tags e2e ./test/e2e/...
var zeebeClient zbc.Client

func TestMain(m *testing.M) {
	address := os.Getenv("ZEEBE_ADDRESS")
	if address == "" {
		cfg, err := config.LoadFromFile("../../configs/config.yaml")
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		address = cfg.Camunda.BrokerAddress
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect to Zeebe: %v", err))
	}

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func TestSelectionProcesses(t *testing.T) {
	log := logger.NewTestLogger(t)

	deployBPMN(t)

	fs, err := catalog.LoadFile("../../configs/catalog.yaml")
	require.NoError(t, err)
	engine := selection.NewEngine(fs, fs, selection.Options{BatchConcurrency: 2}, log)

	csWorker := camunda.NewWorker(zeebeClient, camunda.WorkerOptions{TaskType: cs.TaskType},
		cs.NewHandler(cs.DefaultConfig(), engine, nil, log), log)
	defer csWorker.Close()

	bsWorker := camunda.NewWorker(zeebeClient, camunda.WorkerOptions{TaskType: bs.TaskType},
		bs.NewHandler(bs.DefaultConfig(), engine, nil, log), log)
	defer bsWorker.Close()

	t.Run("calculate-selection", func(t *testing.T) {
		vars := runProcess(t, "actuator-selection", `{
			"requestId": "e2e-1",
			"requiredTorque": 300, "workingPressure": 0.4,
			"mechanism": "SY", "valveType": "Ball"
		}`)

		assert.Equal(t, true, vars["success"])
		assert.Equal(t, "e2e-1", vars["requestId"])
		best, ok := vars["bestChoice"].(map[string]interface{})
		require.True(t, ok, "bestChoice missing: %v", vars)
		assert.NotEmpty(t, best["finalModelName"])
	})

	t.Run("calculate-selection without a match", func(t *testing.T) {
		vars := runProcess(t, "actuator-selection", `{
			"requestId": "e2e-2",
			"requiredTorque": 100000, "workingPressure": 0.4,
			"mechanism": "SY", "valveType": "Ball"
		}`)

		assert.Equal(t, false, vars["success"])
		assert.NotEmpty(t, vars["suggestions"])
	})

	t.Run("calculate-selection rejects invalid request", func(t *testing.T) {
		vars := runProcess(t, "actuator-selection", `{"workingPressure": 0.4}`)

		assert.Equal(t, "INVALID_REQUEST", vars["errorCode"])
	})

	t.Run("batch-selection", func(t *testing.T) {
		vars := runProcess(t, "actuator-batch-selection", `{"requests": [
			{"requestId": "b-1", "requiredTorque": 300, "workingPressure": 0.4, "mechanism": "SY", "valveType": "Ball"},
			{"requestId": "b-2", "mechanism": "SY"}
		]}`)

		assert.EqualValues(t, 2, vars["total"])
		assert.Len(t, vars["succeeded"], 1)
		assert.Len(t, vars["failed"], 1)
	})
}

func deployBPMN(t *testing.T) {
	t.Helper()

	files, err := filepath.Glob("../../bpmn/*.bpmn")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no BPMN files found")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, path := range files {
		_, err := zeebeClient.NewDeployResourceCommand().AddResourceFile(path).Send(ctx)
		require.NoError(t, err, "deploy %s", path)
		t.Logf("deployed %s", filepath.Base(path))
	}
}

// runProcess starts an instance and waits for it to finish, returning its
// final variables.
func runProcess(t *testing.T, processID, variables string) map[string]interface{} {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cmd, err := zeebeClient.NewCreateInstanceCommand().
		BPMNProcessId(processID).
		LatestVersion().
		VariablesFromString(strings.TrimSpace(variables))
	require.NoError(t, err)

	resp, err := cmd.WithResult().Send(ctx)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.GetVariables()), &vars))
	return vars
}
