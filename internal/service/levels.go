// Package service validates and defaults requests for glucose levels before
// handing them to the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glucose-levels-backend/config"
	"glucose-levels-backend/internal/model"
	"glucose-levels-backend/internal/store"
)

// ErrValidation marks errors caused by malformed caller input.
var ErrValidation = errors.New("validation error")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ListParams are the raw listing inputs. Empty strings and nil pointers mean
// "use the default".
type ListParams struct {
	UserID    string
	Start     *time.Time
	Stop      *time.Time
	SortBy    string
	SortOrder string
	Limit     *int
	Offset    *int
}

// CreateParams are the fields of a new reading.
type CreateParams struct {
	UserID       string
	Timestamp    time.Time
	GlucoseValue float64
	Device       *string
	SerialNumber *string
}

// LevelService is the entry point used by the HTTP layer.
type LevelService struct {
	store        store.Store
	defaultLimit int
	maxLimit     int
}

// NewLevelService creates a service over s with paging limits from cfg.
func NewLevelService(s store.Store, cfg config.QueryConfig) *LevelService {
	svc := &LevelService{store: s, defaultLimit: cfg.DefaultLimit, maxLimit: cfg.MaxLimit}
	if svc.defaultLimit <= 0 {
		svc.defaultLimit = 100
	}
	if svc.maxLimit < svc.defaultLimit {
		svc.maxLimit = svc.defaultLimit
	}
	return svc
}

// BuildQuery applies defaults to p and validates it.
func (s *LevelService) BuildQuery(p ListParams) (store.Query, error) {
	q := store.Query{
		UserID:    strings.TrimSpace(p.UserID),
		Start:     p.Start,
		Stop:      p.Stop,
		SortBy:    store.SortByTimestamp,
		SortOrder: store.SortAsc,
		Limit:     s.defaultLimit,
	}

	if q.UserID == "" {
		return store.Query{}, invalid("user_id is required")
	}

	if p.SortBy != "" {
		key, err := store.ParseSortKey(p.SortBy)
		if err != nil {
			return store.Query{}, invalid("sort_by must be one of %v, got %q", store.SortKeys(), p.SortBy)
		}
		q.SortBy = key
	}

	if p.SortOrder != "" {
		order, err := store.ParseSortOrder(p.SortOrder)
		if err != nil {
			return store.Query{}, invalid("sort_order must be asc or desc, got %q", p.SortOrder)
		}
		q.SortOrder = order
	}

	if p.Limit != nil {
		if *p.Limit < 1 || *p.Limit > s.maxLimit {
			return store.Query{}, invalid("limit must be between 1 and %d, got %d", s.maxLimit, *p.Limit)
		}
		q.Limit = *p.Limit
	}

	if p.Offset != nil {
		if *p.Offset < 0 {
			return store.Query{}, invalid("offset must not be negative, got %d", *p.Offset)
		}
		q.Offset = *p.Offset
	}

	if q.Start != nil && q.Stop != nil && q.Start.After(*q.Stop) {
		return store.Query{}, invalid("start_timestamp must not be after stop_timestamp")
	}

	return q, nil
}

// List returns one page of a user's readings.
func (s *LevelService) List(ctx context.Context, p ListParams) ([]model.GlucoseLevel, error) {
	q, err := s.BuildQuery(p)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, q)
}

// Get returns a single reading. store.ErrNotFound is passed through.
func (s *LevelService) Get(ctx context.Context, id int64) (*model.GlucoseLevel, error) {
	return s.store.GetByID(ctx, id)
}

// Create persists a new reading and returns it with its assigned id.
func (s *LevelService) Create(ctx context.Context, p CreateParams) (*model.GlucoseLevel, error) {
	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		return nil, invalid("user_id is required")
	}
	if p.Timestamp.IsZero() {
		return nil, invalid("timestamp is required")
	}

	level := &model.GlucoseLevel{
		UserID:       userID,
		Timestamp:    p.Timestamp.UTC(),
		GlucoseValue: p.GlucoseValue,
		Device:       p.Device,
		SerialNumber: p.SerialNumber,
	}
	if err := s.store.Create(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}
