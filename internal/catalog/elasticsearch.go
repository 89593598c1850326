package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/database"
	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// maxSearchHits caps a single candidate or override search.
const maxSearchHits = 500

// ElasticsearchStore serves candidates from the catalog index and manual
// overrides from the override index.
type ElasticsearchStore struct {
	client        *elasticsearch.Client
	catalogIndex  string
	overrideIndex string
	logger        logger.Logger
}

func NewElasticsearchStore(client *database.ElasticsearchClient, cfg config.ElasticsearchConfig, log logger.Logger) *ElasticsearchStore {
	return &ElasticsearchStore{
		client:        client.Client,
		catalogIndex:  cfg.CatalogIndex,
		overrideIndex: cfg.OverrideIndex,
		logger:        log.WithFields(map[string]interface{}{"store": "elasticsearch"}),
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindCandidates runs a bool filter query sorted by the body_size keyword.
// That order is lexicographic (SF100 before SF12); Evaluate re-sorts
// candidates by natural body size.
func (s *ElasticsearchStore) FindCandidates(ctx context.Context, q models.CatalogQuery) ([]models.ActuatorRecord, error) {
	res, err := s.search(ctx, s.catalogIndex, BuildCandidateSearch(q))
	if err != nil {
		return nil, err
	}

	out := make([]models.ActuatorRecord, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		if hit.Source == nil {
			s.logger.Warn("Skipping actuator document without _source", map[string]interface{}{"id": hit.ID})
			continue
		}
		if _, ok := hit.Source["id"]; !ok {
			hit.Source["id"] = hit.ID
		}
		rec, err := DecodeRecord(hit.Source)
		if err != nil {
			s.logger.Warn("Skipping undecodable actuator document", map[string]interface{}{"id": hit.ID, "error": err.Error()})
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindCompatible returns overrides whose compatible_body_sizes contain bodySize, cheapest first.
func (s *ElasticsearchStore) FindCompatible(ctx context.Context, bodySize string) ([]models.ManualOverrideRecord, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"compatible_body_sizes": bodySize}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"price": "asc"},
			map[string]interface{}{"id": "asc"},
		},
		"size": maxSearchHits,
	}

	res, err := s.search(ctx, s.overrideIndex, body)
	if err != nil {
		return nil, err
	}

	out := make([]models.ManualOverrideRecord, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		if hit.Source == nil {
			s.logger.Warn("Skipping override document without _source", map[string]interface{}{"id": hit.ID})
			continue
		}
		if _, ok := hit.Source["id"]; !ok {
			hit.Source["id"] = hit.ID
		}
		mo, err := DecodeOverride(hit.Source)
		if err != nil {
			s.logger.Warn("Skipping undecodable override document", map[string]interface{}{"id": hit.ID, "error": err.Error()})
			continue
		}
		out = append(out, mo)
	}
	return out, nil
}

// BuildCandidateSearch translates a CatalogQuery into a search body.
func BuildCandidateSearch(q models.CatalogQuery) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"status": q.Status}},
	}
	if len(q.Mechanisms) > 0 {
		filters = append(filters, map[string]interface{}{"terms": map[string]interface{}{"mechanism": q.Mechanisms}})
	}
	if q.ActionType != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"action_type": q.ActionType}})
	}
	if q.BodySize != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"body_size": q.BodySize}})
	}
	if len(q.Materials) > 0 {
		filters = append(filters, map[string]interface{}{"terms": map[string]interface{}{"material": q.Materials}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"sort": []interface{}{
			map[string]interface{}{"body_size": "asc"},
			map[string]interface{}{"id": "asc"},
		},
		"size": maxSearchHits,
	}
}

func (s *ElasticsearchStore) search(ctx context.Context, index string, body map[string]interface{}) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(index, err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(index, fmt.Errorf("search failed: %s", res.String()))
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.NewSearchQueryFailedError(index, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Hits.Hits) >= maxSearchHits {
		s.logger.Warn("Search hit the result cap, later documents were not read", map[string]interface{}{
			"index": index,
			"limit": maxSearchHits,
		})
	}
	return &out, nil
}
