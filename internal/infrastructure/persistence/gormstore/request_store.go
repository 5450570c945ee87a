package gormstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// Open connects to PostgreSQL and migrates the trip_requests table
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.AutoMigrate(&tripRequestModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate trip_requests: %w", err)
	}
	return db, nil
}

// RequestStore implements port.RequestStore on PostgreSQL through GORM
type RequestStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRequestStore creates a new GORM request store
func NewRequestStore(db *gorm.DB, logger *zap.Logger) *RequestStore {
	return &RequestStore{db: db, logger: logger}
}

// getDB returns the transaction in ctx if present, otherwise the root DB
func (s *RequestStore) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// Get retrieves a request by ID
func (s *RequestStore) Get(ctx context.Context, id int64) (*entity.TripRequest, error) {
	var m tripRequestModel
	if err := s.getDB(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, s.mapError(id, "get", err)
	}
	return m.toEntity(), nil
}

// List retrieves requests matching the filter ordered by ID
func (s *RequestStore) List(ctx context.Context, filter port.RequestFilter) ([]*entity.TripRequest, error) {
	q := s.getDB(ctx).Model(&tripRequestModel{})
	if filter.EmployeeID != 0 {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.ApproverRole != "" {
		q = q.Where("current_approver_role = ?", string(filter.ApproverRole))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var models []tripRequestModel
	if err := q.Order("id ASC").Find(&models).Error; err != nil {
		s.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	out := make([]*entity.TripRequest, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, nil
}

// Create inserts a request. Explicit IDs advance the id sequence past them.
func (s *RequestStore) Create(ctx context.Context, req *entity.TripRequest) (*entity.TripRequest, error) {
	m := toModel(req)

	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to insert request: %w", err)
		}
		if req.ID == 0 {
			return nil
		}
		return tx.Exec(`SELECT setval(pg_get_serial_sequence('trip_requests', 'id'),
			GREATEST((SELECT MAX(id) FROM trip_requests), 1))`).Error
	})
	if err != nil {
		s.logger.Error("Failed to create request", zap.Int64("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}
	return m.toEntity(), nil
}

// Update locks the row, applies fn and saves the result in one transaction
func (s *RequestStore) Update(ctx context.Context, id int64, fn port.Mutator) (*entity.TripRequest, error) {
	var updated *entity.TripRequest

	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		var m tripRequestModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error; err != nil {
			return s.mapError(id, "lock", err)
		}

		current := m.toEntity()
		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		if len(next.Approvals) < len(current.Approvals) {
			return fmt.Errorf("request %d: approvals are append-only", id)
		}
		next.ID = id

		row := toModel(next)
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}
		updated = row.toEntity()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Count returns the number of stored requests
func (s *RequestStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.getDB(ctx).Model(&tripRequestModel{}).Count(&count).Error; err != nil {
		s.logger.Error("Failed to count requests", zap.Error(err))
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return int(count), nil
}

func (s *RequestStore) mapError(id int64, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("request %d: %w", id, entity.ErrNotFound)
	}
	s.logger.Error("Failed to "+op+" request", zap.Int64("id", id), zap.Error(err))
	return fmt.Errorf("failed to %s request: %w", op, err)
}

// Verify interface compliance
var _ port.RequestStore = (*RequestStore)(nil)
