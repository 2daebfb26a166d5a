package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"glucose-levels-backend/internal/model"
)

// DefaultBatchSize is the number of rows per INSERT in CreateBatch.
const DefaultBatchSize = 500

// Store defines the interface for all database operations.
type Store interface {
	Create(ctx context.Context, level *model.GlucoseLevel) error
	CreateBatch(ctx context.Context, levels []model.GlucoseLevel) error
	GetByID(ctx context.Context, id int64) (*model.GlucoseLevel, error)
	Query(ctx context.Context, q Query) ([]model.GlucoseLevel, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db        *gorm.DB
	batchSize int
}

// Option configures a gormStore.
type Option func(*gormStore)

// WithBatchSize sets the number of rows per INSERT statement used by CreateBatch.
func WithBatchSize(n int) Option {
	return func(s *gormStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...Option) Store {
	s := &gormStore{db: db, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle, e.g. for health checks.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Create inserts a reading and fills in its assigned ID.
func (s *gormStore) Create(ctx context.Context, level *model.GlucoseLevel) error {
	if err := s.db.WithContext(ctx).Create(level).Error; err != nil {
		return fmt.Errorf("failed to create glucose level for user %q: %w", level.UserID, err)
	}
	return nil
}

// CreateBatch inserts all levels in one transaction; on error none are kept.
func (s *gormStore) CreateBatch(ctx context.Context, levels []model.GlucoseLevel) error {
	if len(levels) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&levels, s.batchSize).Error; err != nil {
			return fmt.Errorf("batch insert of %d glucose levels failed: %w", len(levels), err)
		}
		slog.Debug("batch inserted glucose levels", "rows", len(levels))
		return nil
	})
}

// GetByID looks up a single reading, returning ErrNotFound when absent.
func (s *gormStore) GetByID(ctx context.Context, id int64) (*model.GlucoseLevel, error) {
	var level model.GlucoseLevel
	err := s.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Take(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get glucose level %d: %w", id, err)
	}
	return &level, nil
}

// Query returns a page of one user's readings. Equal sort values are ordered
// by id so page boundaries are deterministic.
func (s *gormStore) Query(ctx context.Context, q Query) ([]model.GlucoseLevel, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = SortByTimestamp
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, q.SortBy)
	}

	var desc bool
	switch q.SortOrder {
	case "", SortAsc:
	case SortDesc:
		desc = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortOrder, q.SortOrder)
	}

	tx := s.db.WithContext(ctx).
		Model(&model.GlucoseLevel{}).
		Where(clause.Eq{Column: clause.Column{Name: "user_id"}, Value: q.UserID})

	if q.Start != nil {
		tx = tx.Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: *q.Start})
	}
	if q.Stop != nil {
		tx = tx.Where(clause.Lte{Column: clause.Column{Name: "timestamp"}, Value: *q.Stop})
	}

	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	if sortBy != SortByID {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	levels := make([]model.GlucoseLevel, 0)
	if err := tx.Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to query glucose levels for user %q: %w", q.UserID, err)
	}
	return levels, nil
}
