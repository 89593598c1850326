package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"actuator-workers/internal/common/database"
	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/models"

	"github.com/lib/pq"
)

const (
	actuatorColumns = `id, model_base, mechanism, action_type, body_size, material, status, pricing_model, base_price, torque_data, price_tiers`
	overrideColumns = `id, model, price, compatible_body_sizes`
)

// PostgresStore reads the actuators and manual_overrides tables.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     client.DB,
		logger: log.WithFields(map[string]interface{}{"store": "postgres"}),
	}
}

// FindCandidates returns published records matching q, ordered by body size.
// Rows that fail ingestion are skipped and logged.
func (s *PostgresStore) FindCandidates(ctx context.Context, q models.CatalogQuery) ([]models.ActuatorRecord, error) {
	query, args := buildCandidateQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewCatalogQueryFailedError("postgres", err)
	}
	defer rows.Close()

	var out []models.ActuatorRecord
	for rows.Next() {
		var (
			id, modelBase, mechanism, actionType, bodySize string
			material, status, pricingModel             sql.NullString
			basePrice                                  sql.NullFloat64
			torqueData, priceTiers                     []byte
		)
		if err := rows.Scan(&id, &modelBase, &mechanism, &actionType, &bodySize, &material, &status,
			&pricingModel, &basePrice, &torqueData, &priceTiers); err != nil {
			return nil, errors.NewCatalogQueryFailedError("postgres", err)
		}

		raw := map[string]interface{}{
			"id":           id,
			"modelBase":    modelBase,
			"mechanism":    mechanism,
			"actionType":   actionType,
			"bodySize":     bodySize,
			"material":     material.String,
			"status":       status.String,
			"pricingModel": pricingModel.String,
			"basePrice":    basePrice.Float64,
			"torqueData":   torqueData,
		}
		if len(priceTiers) > 0 {
			raw["priceTiers"] = priceTiers
		}

		rec, err := DecodeRecord(raw)
		if err != nil {
			s.logger.Warn("Skipping undecodable actuator row", map[string]interface{}{"id": id, "error": err.Error()})
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogQueryFailedError("postgres", err)
	}

	s.logger.Debug("Catalog candidates loaded", map[string]interface{}{"count": len(out)})
	return out, nil
}

// FindCompatible returns overrides that mount on bodySize, cheapest first.
func (s *PostgresStore) FindCompatible(ctx context.Context, bodySize string) ([]models.ManualOverrideRecord, error) {
	query := `SELECT ` + overrideColumns + ` FROM manual_overrides
		WHERE $1 = ANY(compatible_body_sizes)
		ORDER BY price ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, bodySize)
	if err != nil {
		return nil, errors.NewCatalogQueryFailedError("postgres", err)
	}
	defer rows.Close()

	var out []models.ManualOverrideRecord
	for rows.Next() {
		var (
			mo    models.ManualOverrideRecord
			sizes pq.StringArray
		)
		if err := rows.Scan(&mo.ID, &mo.Model, &mo.Price, &sizes); err != nil {
			return nil, errors.NewCatalogQueryFailedError("postgres", err)
		}
		mo.CompatibleBodySizes = []string(sizes)
		out = append(out, mo)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogQueryFailedError("postgres", err)
	}
	return out, nil
}

func buildCandidateQuery(q models.CatalogQuery) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	in := func(column string, values []string) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = arg(v)
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	}

	where = append(where, "status = "+arg(q.Status))
	if len(q.Mechanisms) > 0 {
		in("mechanism", q.Mechanisms)
	}
	if q.ActionType != "" {
		where = append(where, "action_type = "+arg(q.ActionType))
	}
	if q.BodySize != "" {
		where = append(where, "body_size = "+arg(q.BodySize))
	}
	if len(q.Materials) > 0 {
		in("material", q.Materials)
	}

	// body_size orders lexicographically (SF100 before SF12); Evaluate
	// re-sorts candidates with SortByBodySize.
	query := `SELECT ` + actuatorColumns + ` FROM actuators WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY body_size ASC, id ASC`
	return query, args
}
