package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"glucose-levels-backend/config"
	"glucose-levels-backend/internal/model"
	"glucose-levels-backend/internal/store"
)

// mockStore is a mock implementation of the store.Store interface.
type mockStore struct {
	CreateFunc      func(ctx context.Context, level *model.GlucoseLevel) error
	CreateBatchFunc func(ctx context.Context, levels []model.GlucoseLevel) error
	GetByIDFunc     func(ctx context.Context, id int64) (*model.GlucoseLevel, error)
	QueryFunc       func(ctx context.Context, q store.Query) ([]model.GlucoseLevel, error)
}

func (m *mockStore) Create(ctx context.Context, level *model.GlucoseLevel) error {
	return m.CreateFunc(ctx, level)
}

func (m *mockStore) CreateBatch(ctx context.Context, levels []model.GlucoseLevel) error {
	return m.CreateBatchFunc(ctx, levels)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*model.GlucoseLevel, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockStore) Query(ctx context.Context, q store.Query) ([]model.GlucoseLevel, error) {
	return m.QueryFunc(ctx, q)
}

func (m *mockStore) DB() *gorm.DB { return nil }

func intPtr(i int) *int { return &i }

func newService(s store.Store) *LevelService {
	return NewLevelService(s, config.QueryConfig{DefaultLimit: 10, MaxLimit: 50})
}

func TestLevelService_BuildQuery(t *testing.T) {
	svc := newService(&mockStore{})
	start := time.Date(2024, 8, 4, 10, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)

	testCases := []struct {
		name      string
		params    ListParams
		expected  store.Query
		expectErr bool
	}{
		{
			name:     "Defaults",
			params:   ListParams{UserID: "1"},
			expected: store.Query{UserID: "1", SortBy: store.SortByTimestamp, SortOrder: store.SortAsc, Limit: 10},
		},
		{
			name: "Explicit values",
			params: ListParams{
				UserID: "1", Start: &start, Stop: &stop,
				SortBy: "glucose_value", SortOrder: "DESC", Limit: intPtr(50), Offset: intPtr(3),
			},
			expected: store.Query{
				UserID: "1", Start: &start, Stop: &stop,
				SortBy: store.SortByGlucoseValue, SortOrder: store.SortDesc, Limit: 50, Offset: 3,
			},
		},
		{name: "Missing user", params: ListParams{}, expectErr: true},
		{name: "Blank user", params: ListParams{UserID: "  "}, expectErr: true},
		{name: "Unknown sort field", params: ListParams{UserID: "1", SortBy: "__class__"}, expectErr: true},
		{name: "Unknown sort order", params: ListParams{UserID: "1", SortOrder: "up"}, expectErr: true},
		{name: "Zero limit", params: ListParams{UserID: "1", Limit: intPtr(0)}, expectErr: true},
		{name: "Limit above max", params: ListParams{UserID: "1", Limit: intPtr(51)}, expectErr: true},
		{name: "Negative offset", params: ListParams{UserID: "1", Offset: intPtr(-1)}, expectErr: true},
		{name: "Inverted range", params: ListParams{UserID: "1", Start: &stop, Stop: &start}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := svc.BuildQuery(tc.params)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, q)
		})
	}
}

func TestLevelService_List(t *testing.T) {
	var captured store.Query
	svc := newService(&mockStore{
		QueryFunc: func(ctx context.Context, q store.Query) ([]model.GlucoseLevel, error) {
			captured = q
			return []model.GlucoseLevel{{ID: 1, UserID: q.UserID}}, nil
		},
	})

	got, err := svc.List(context.Background(), ListParams{UserID: "1", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, store.SortDesc, captured.SortOrder)
	assert.Equal(t, 10, captured.Limit)

	_, err = svc.List(context.Background(), ListParams{UserID: "1", SortBy: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLevelService_Get(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newService(&mockStore{
		GetByIDFunc: func(ctx context.Context, id int64) (*model.GlucoseLevel, error) {
			switch id {
			case 1:
				return &model.GlucoseLevel{ID: 1}, nil
			case 2:
				return nil, boom
			}
			return nil, store.ErrNotFound
		},
	})

	level, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), level.ID)

	_, err = svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Get(context.Background(), 2)
	assert.ErrorIs(t, err, boom)
}

func TestLevelService_Create(t *testing.T) {
	ts := time.Date(2024, 8, 4, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	device := "DeviceA"

	svc := newService(&mockStore{
		CreateFunc: func(ctx context.Context, level *model.GlucoseLevel) error {
			level.ID = 17
			return nil
		},
	})

	level, err := svc.Create(context.Background(), CreateParams{
		UserID: "1", Timestamp: ts, GlucoseValue: 99.5, Device: &device,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), level.ID)
	assert.Equal(t, time.UTC, level.Timestamp.Location())
	assert.True(t, ts.Equal(level.Timestamp))
	assert.Equal(t, &device, level.Device)
	assert.Nil(t, level.SerialNumber)

	_, err = svc.Create(context.Background(), CreateParams{Timestamp: ts})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), CreateParams{UserID: "1"})
	assert.ErrorIs(t, err, ErrValidation)
}
