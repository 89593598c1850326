package catalog

import (
	"context"
	"testing"
	"time"

	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/database"
	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) FindCandidates(ctx context.Context, q models.CatalogQuery) ([]models.ActuatorRecord, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActuatorRecord), args.Error(1)
}

func (m *mockBackend) FindCompatible(ctx context.Context, bodySize string) ([]models.ManualOverrideRecord, error) {
	args := m.Called(ctx, bodySize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ManualOverrideRecord), args.Error(1)
}

func newCachedStore(t *testing.T, backend *mockBackend) (*CachedStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	return NewCachedStore(rdb, backend, backend, 5*time.Minute, logger.NewTestLogger(t)), mr
}

var cacheQuery = models.CatalogQuery{
	Mechanisms: []string{"Scotch Yoke", "拨叉式"},
	ActionType: "DA",
	Status:     models.StatusPublished,
}

func cachedRecords() []models.ActuatorRecord {
	return []models.ActuatorRecord{{
		ID:         "sy-10",
		ModelBase:  "SF10-150DA",
		Mechanism:  models.MechanismScotchYoke,
		ActionType: models.ActionDoubleActing,
		BodySize:   "SF10",
		Status:     models.StatusPublished,
		Pricing:    models.PricingFixed,
		BasePrice:  1000,
		Torque:     models.TorqueData{Symmetric: models.TorqueTable{"0_4_0": 412}},
	}}
}

func TestCachedStore_ReadThrough(t *testing.T) {
	backend := new(mockBackend)
	backend.On("FindCandidates", mock.Anything, cacheQuery).Return(cachedRecords(), nil).Once()
	store, mr := newCachedStore(t, backend)
	ctx := context.Background()

	first, err := store.FindCandidates(ctx, cacheQuery)
	require.NoError(t, err)
	second, err := store.FindCandidates(ctx, cacheQuery)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 412.0, second[0].Torque.Symmetric["0_4_0"])
	backend.AssertNumberOfCalls(t, "FindCandidates", 1)

	key, err := CandidatesKey(cacheQuery)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))
}

func TestCachedStore_ExpiredEntryReloads(t *testing.T) {
	backend := new(mockBackend)
	backend.On("FindCandidates", mock.Anything, cacheQuery).Return(cachedRecords(), nil)
	store, mr := newCachedStore(t, backend)
	ctx := context.Background()

	_, err := store.FindCandidates(ctx, cacheQuery)
	require.NoError(t, err)
	mr.FastForward(6 * time.Minute)
	_, err = store.FindCandidates(ctx, cacheQuery)
	require.NoError(t, err)

	backend.AssertNumberOfCalls(t, "FindCandidates", 2)
}

func TestCachedStore_RedisDownFallsThrough(t *testing.T) {
	backend := new(mockBackend)
	backend.On("FindCandidates", mock.Anything, cacheQuery).Return(cachedRecords(), nil)
	store, mr := newCachedStore(t, backend)
	mr.Close()

	got, err := store.FindCandidates(context.Background(), cacheQuery)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedStore_BackendErrorNotCached(t *testing.T) {
	backend := new(mockBackend)
	backend.On("FindCandidates", mock.Anything, cacheQuery).
		Return(nil, errors.NewCatalogQueryFailedError("postgres", assert.AnError))
	store, mr := newCachedStore(t, backend)

	_, err := store.FindCandidates(context.Background(), cacheQuery)

	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogQueryFailed))
	assert.Empty(t, mr.Keys())
}

func TestCachedStore_Overrides(t *testing.T) {
	backend := new(mockBackend)
	backend.On("FindCompatible", mock.Anything, "SF10").Return([]models.ManualOverrideRecord{
		{ID: "mo-1", Model: "HW-10", Price: 250, CompatibleBodySizes: []string{"SF10"}},
	}, nil).Once()
	store, mr := newCachedStore(t, backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := store.FindCompatible(ctx, "SF10")
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	backend.AssertNumberOfCalls(t, "FindCompatible", 1)
	assert.True(t, mr.Exists("catalog:overrides:SF10"))
}

func TestCachedStore_Invalidate(t *testing.T) {
	backend := new(mockBackend)
	store, mr := newCachedStore(t, backend)
	require.NoError(t, mr.Set("catalog:candidates:abc", "[]"))
	require.NoError(t, mr.Set("catalog:overrides:SF10", "[]"))
	require.NoError(t, mr.Set("session:123", "keep"))

	n, err := store.Invalidate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"session:123"}, mr.Keys())
}

func TestCandidatesKey_Stable(t *testing.T) {
	a, err := CandidatesKey(cacheQuery)
	require.NoError(t, err)
	b, err := CandidatesKey(cacheQuery)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := cacheQuery
	other.BodySize = "SF12"
	c, err := CandidatesKey(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "catalog:candidates:")
}
