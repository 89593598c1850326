package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"actuator-workers/internal/models"
)

const fixtureCatalog = "../../internal/catalog/testdata/catalog.yaml"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSelect_FromStdin(t *testing.T) {
	out, err := run(t, `{
		"requestId": "cli-1",
		"required_torque": 300, "working_pressure": 0.4,
		"mechanism": "拨叉式", "valve_type": "蝶阀",
		"action_type": "SR", "fail_safe_position": "STC",
		"required_opening_torque": 350, "required_closing_torque": 300,
		"temperature_code": "T1"
	}`, "select", "-", "--catalog", fixtureCatalog)

	require.NoError(t, err)
	var result models.SelectionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "cli-1", result.RequestID)
	assert.Equal(t, "SF10-150SR3/C-STC-T1", result.BestChoice.FinalModelName)
}

func TestSelect_FromFileAsYAML(t *testing.T) {
	path := writeFile(t, "req.json", `{"requestId": "cli-2", "requiredTorque": 300, "workingPressure": 0.4, "mechanism": "SY", "valveType": "Ball"}`)

	out, err := run(t, "", "select", path, "--catalog", fixtureCatalog, "-o", "yaml")

	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "cli-2", doc["requestId"])
	best := doc["bestChoice"].(map[string]interface{})
	assert.Equal(t, "sy-sf10-da", best["actuatorId"])
}

func TestSelect_NoMatchPrintsResultAndSuggestions(t *testing.T) {
	out, err := run(t, `{"requestId": "cli-3", "requiredTorque": 100000, "workingPressure": 0.4, "mechanism": "SY", "valveType": "Ball"}`,
		"select", "-", "--catalog", fixtureCatalog)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_MATCHING_ACTUATOR")
	assert.Contains(t, err.Error(), "\n  - ")
	assert.Contains(t, out, `"requestId": "cli-3"`)
}

func TestSelect_InvalidRequest(t *testing.T) {
	out, err := run(t, `{"workingPressure": 0.4}`, "select", "-", "--catalog", fixtureCatalog)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
	assert.Empty(t, out)
}

func TestSelect_BadOutputFormat(t *testing.T) {
	_, err := run(t, `{}`, "select", "-", "--catalog", fixtureCatalog, "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output")
}

func TestSelect_MissingCatalog(t *testing.T) {
	_, err := run(t, `{}`, "select", "-", "--catalog", "nope.yaml")
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"array", `[
			{"requestId": "a", "requiredTorque": 300, "workingPressure": 0.4, "mechanism": "SY", "valveType": "Ball"},
			{"requestId": "b", "requiredTorque": 50, "workingPressure": 0.55, "mechanism": "RP", "valveType": "Ball", "material": "铝合金"}
		]`},
		{"job document", `{"requests": [
			{"requestId": "a", "requiredTorque": 300, "workingPressure": 0.4, "mechanism": "SY", "valveType": "Ball"},
			{"requestId": "b", "requiredTorque": 50, "workingPressure": 0.55, "mechanism": "RP", "valveType": "Ball", "material": "铝合金"}
		]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.payload, "batch", "-", "--catalog", fixtureCatalog, "--concurrency", "2")

			require.NoError(t, err)
			var result models.BatchResult
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			assert.Equal(t, 2, result.Total)
			require.Len(t, result.Succeeded, 2)
			assert.Equal(t, "a", result.Succeeded[0].RequestID)
			assert.Equal(t, "b", result.Succeeded[1].RequestID)
		})
	}
}

func TestBatch_PartialFailure(t *testing.T) {
	out, err := run(t, `[{"requestId": "a", "requiredTorque": 300, "workingPressure": 0.4, "mechanism": "SY", "valveType": "Ball"}, {"mechanism": "SY"}]`,
		"batch", "-", "--catalog", fixtureCatalog)

	assert.EqualError(t, err, "1 of 2 requests failed")
	var result models.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
}

func TestDecodeBatch_Errors(t *testing.T) {
	for _, payload := range []string{``, `{"items": []}`, `[1,`, `"text"`} {
		_, err := decodeBatch([]byte(payload))
		assert.Error(t, err, payload)
	}
}

func TestValidateCatalog(t *testing.T) {
	t.Run("fixture with problems", func(t *testing.T) {
		out, err := run(t, "", "validate-catalog", "--catalog", fixtureCatalog)

		require.Error(t, err)
		var report catalogReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Equal(t, 8, report.Actuators)
		assert.Len(t, report.Skipped, 1)
		require.Len(t, report.Issues, 1)
		assert.Contains(t, report.Issues[0], "rp-at075-sr")
	})

	t.Run("sample catalog is clean", func(t *testing.T) {
		out, err := run(t, "", "validate-catalog", "--catalog", "../../configs/catalog.yaml")

		require.NoError(t, err)
		assert.Contains(t, out, `"actuators": 8`)
	})
}
