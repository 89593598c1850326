package catalog

import (
	"context"
	"fmt"
	"testing"

	"actuator-workers/internal/common/database"
	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actuatorRowColumns = []string{
	"id", "model_base", "mechanism", "action_type", "body_size", "material", "status",
	"pricing_model", "base_price", "torque_data", "price_tiers",
}

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(database.NewPostgresFromDB(db), logger.NewTestLogger(t)), mock
}

func TestBuildCandidateQuery(t *testing.T) {
	query, args := buildCandidateQuery(models.CatalogQuery{
		Mechanisms: []string{"Rack & Pinion", "齿轮齿条式"},
		ActionType: "SR",
		BodySize:   "AT063",
		Materials:  []string{"AluminumAlloy", "铝合金"},
		Status:     models.StatusPublished,
	})

	assert.Contains(t, query, "WHERE status = $1 AND mechanism IN ($2, $3) AND action_type = $4 AND body_size = $5 AND material IN ($6, $7)")
	assert.Contains(t, query, "ORDER BY body_size ASC, id ASC")
	assert.Equal(t, []interface{}{"published", "Rack & Pinion", "齿轮齿条式", "SR", "AT063", "AluminumAlloy", "铝合金"}, args)
}

func TestPostgresStore_FindCandidates(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	rows := sqlmock.NewRows(actuatorRowColumns).
		AddRow("sy-10", "SF10-150DA", "拨叉式", "DA", "SF10", nil, "published", "fixed", 1000.0,
			[]byte(`{"symmetric": {"0_4_0": 412}, "canted": {"0_4_90": 380}}`), nil).
		AddRow("sy-12", "SF12-170DA", "Scotch Yoke", "DA", "SF12", nil, "published", "tiered", 1400.0,
			[]byte(`{"torque_data": {"Symmetric": {"0_4_90": "600"}}}`),
			[]byte(`[{"min_quantity": 1, "unit_price": 1400}, {"min_quantity": 10, "unit_price": 1300}]`)).
		AddRow("broken", "X", "vane", "DA", "SF14", nil, "published", "fixed", 1.0, nil, nil)

	mock.ExpectQuery(`SELECT .+ FROM actuators WHERE status = \$1 AND mechanism IN \(\$2, \$3\) AND action_type = \$4 ORDER BY body_size ASC, id ASC`).
		WithArgs("published", "Scotch Yoke", "拨叉式", "DA").
		WillReturnRows(rows)

	got, err := store.FindCandidates(context.Background(), models.CatalogQuery{
		Mechanisms: []string{"Scotch Yoke", "拨叉式"},
		ActionType: "DA",
		Status:     models.StatusPublished,
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.MechanismScotchYoke, got[0].Mechanism)
	assert.Equal(t, 412.0, got[0].Torque.Symmetric["0_4_0"])
	assert.Equal(t, 380.0, got[0].Torque.Canted["0_4_90"])
	assert.Equal(t, models.PricingTiered, got[1].Pricing)
	assert.Len(t, got[1].PriceTiers, 2)
	assert.Equal(t, 600.0, got[1].Torque.Symmetric["0_4_90"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindCandidatesQueryError(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM actuators`).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err := store.FindCandidates(context.Background(), models.CatalogQuery{Status: models.StatusPublished})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogQueryFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindCandidatesRowError(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	rows := sqlmock.NewRows(actuatorRowColumns).
		AddRow("sy-10", "SF10-150DA", "SY", "DA", "SF10", nil, "published", "fixed", 1000.0, []byte(`{}`), nil).
		RowError(0, fmt.Errorf("connection lost"))
	mock.ExpectQuery(`FROM actuators`).WillReturnRows(rows)

	_, err := store.FindCandidates(context.Background(), models.CatalogQuery{Status: models.StatusPublished})
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogQueryFailed))
}

func TestPostgresStore_FindCompatible(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	rows := sqlmock.NewRows([]string{"id", "model", "price", "compatible_body_sizes"}).
		AddRow("mo-2", "HW-10B", 250.0, "{SF10,SF12}").
		AddRow("mo-1", "HW-10", 300.0, "{SF10}")
	mock.ExpectQuery(`SELECT id, model, price, compatible_body_sizes FROM manual_overrides\s+WHERE \$1 = ANY\(compatible_body_sizes\)`).
		WithArgs("SF10").
		WillReturnRows(rows)

	got, err := store.FindCompatible(context.Background(), "SF10")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mo-2", got[0].ID)
	assert.Equal(t, []string{"SF10", "SF12"}, got[0].CompatibleBodySizes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindCompatibleError(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM manual_overrides`).WillReturnError(fmt.Errorf("timeout"))

	_, err := store.FindCompatible(context.Background(), "SF10")
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogQueryFailed))
}
