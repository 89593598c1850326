package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"

	"actuator-workers/internal/models"
	"actuator-workers/internal/selection"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout read by FileStore.
type catalogFile struct {
	Actuators       []map[string]interface{} `yaml:"actuators"`
	ManualOverrides []map[string]interface{} `yaml:"manual_overrides"`
}

// FileStore is an in-memory catalog loaded from YAML, used by the CLI and fixtures.
type FileStore struct {
	actuators []models.ActuatorRecord
	overrides []models.ManualOverrideRecord
	skipped   []string
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes a YAML catalog. Undecodable actuator entries are skipped
// and listed by Skipped; a malformed document is an error.
func ParseFile(data []byte) (*FileStore, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	fs := &FileStore{}
	for i, raw := range doc.Actuators {
		rec, err := DecodeRecord(raw)
		if err != nil {
			fs.skipped = append(fs.skipped, fmt.Sprintf("actuators[%d]: %v", i, err))
			continue
		}
		fs.actuators = append(fs.actuators, rec)
	}
	for i, raw := range doc.ManualOverrides {
		mo, err := DecodeOverride(raw)
		if err != nil {
			return nil, fmt.Errorf("manual_overrides[%d]: %w", i, err)
		}
		fs.overrides = append(fs.overrides, mo)
	}
	return fs, nil
}

// Skipped lists the entries that could not be ingested.
func (f *FileStore) Skipped() []string {
	return append([]string(nil), f.skipped...)
}

// Len returns the number of ingested actuator records.
func (f *FileStore) Len() int {
	return len(f.actuators)
}

// Records returns every loaded actuator regardless of status, in file order.
func (f *FileStore) Records() []models.ActuatorRecord {
	return append([]models.ActuatorRecord(nil), f.actuators...)
}

func (f *FileStore) FindCandidates(_ context.Context, q models.CatalogQuery) ([]models.ActuatorRecord, error) {
	mechanisms := make(map[models.Mechanism]bool, len(q.Mechanisms))
	for _, m := range q.Mechanisms {
		if parsed, ok := models.ParseMechanism(m); ok {
			mechanisms[parsed] = true
		}
	}
	materials := make(map[string]bool, len(q.Materials))
	for _, m := range q.Materials {
		materials[m] = true
	}

	var out []models.ActuatorRecord
	for _, rec := range f.actuators {
		if q.Status != "" && rec.Status != q.Status {
			continue
		}
		if len(mechanisms) > 0 && !mechanisms[rec.Mechanism] {
			continue
		}
		if q.ActionType != "" && string(rec.ActionType) != q.ActionType {
			continue
		}
		if q.BodySize != "" && rec.BodySize != q.BodySize {
			continue
		}
		if len(materials) > 0 && !materials[rec.Material] {
			continue
		}
		out = append(out, rec)
	}
	selection.SortByBodySize(out)
	return out, nil
}

func (f *FileStore) FindCompatible(_ context.Context, bodySize string) ([]models.ManualOverrideRecord, error) {
	var out []models.ManualOverrideRecord
	for _, mo := range f.overrides {
		if mo.FitsBodySize(bodySize) {
			out = append(out, mo)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}
