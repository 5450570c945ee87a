package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
)

// RequestStore implements port.RequestStore over the trip_requests,
// trip_approvals and trip_change_logs tables
type RequestStore struct {
	db     *DB
	logger *zap.Logger
}

// NewRequestStore creates a new SQLite request store
func NewRequestStore(db *DB, logger *zap.Logger) *RequestStore {
	return &RequestStore{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, employee_id, destination, purpose, start_date, end_date, cost_estimate,
	status, current_approver_role, fulfillment_status, report_added, report_text,
	passport_photos, travel_tickets, hotel_bookings, receipt_files,
	is_modified, last_modified_actor_id, viewed_by_ids, created_at, updated_at
`

// Get retrieves a request with its approvals and change history
func (s *RequestStore) Get(ctx context.Context, id int64) (*entity.TripRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM trip_requests WHERE id = ?`

	req, err := scanRequest(s.db.q(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if err := s.loadChildren(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List retrieves requests matching the filter ordered by ID
func (s *RequestStore) List(ctx context.Context, filter port.RequestFilter) ([]*entity.TripRequest, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.EmployeeID != 0 {
		conds = append(conds, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.ApproverRole != "" {
		conds = append(conds, "current_approver_role = ?")
		args = append(args, string(filter.ApproverRole))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + requestColumns + ` FROM trip_requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	var requests []*entity.TripRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, req := range requests {
		if err := s.loadChildren(ctx, req); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// Create inserts a request. A zero ID lets SQLite assign the next rowid.
func (s *RequestStore) Create(ctx context.Context, req *entity.TripRequest) (*entity.TripRequest, error) {
	stored := req.Clone()

	err := s.db.InTx(ctx, func(ctx context.Context) error {
		args, err := requestArgs(stored)
		if err != nil {
			return err
		}

		var idArg interface{}
		if stored.ID != 0 {
			idArg = stored.ID
		}

		query := `INSERT INTO trip_requests (` + requestColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		result, err := s.db.q(ctx).ExecContext(ctx, query, append([]interface{}{idArg}, args...)...)
		if err != nil {
			return fmt.Errorf("failed to insert request: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		stored.ID = id

		if err := s.insertApprovals(ctx, stored.ID, stored.Approvals, 0); err != nil {
			return err
		}
		return s.insertChangeLogs(ctx, stored.ID, stored.ChangeHistory, 0)
	})
	if err != nil {
		s.logger.Error("Failed to create request", zap.Int64("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	return stored.Clone(), nil
}

// Update loads the request, applies fn and writes the result in one transaction.
// Approvals are append-only; the change history is rewritten when it was reset.
func (s *RequestStore) Update(ctx context.Context, id int64, fn port.Mutator) (*entity.TripRequest, error) {
	var updated *entity.TripRequest

	err := s.db.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.ID = id

		if len(next.Approvals) < len(current.Approvals) {
			return fmt.Errorf("request %d: approvals are append-only", id)
		}

		args, err := requestArgs(next)
		if err != nil {
			return err
		}
		query := `
			UPDATE trip_requests SET
				employee_id = ?, destination = ?, purpose = ?, start_date = ?, end_date = ?,
				cost_estimate = ?, status = ?, current_approver_role = ?, fulfillment_status = ?,
				report_added = ?, report_text = ?, passport_photos = ?, travel_tickets = ?,
				hotel_bookings = ?, receipt_files = ?, is_modified = ?, last_modified_actor_id = ?,
				viewed_by_ids = ?, created_at = ?, updated_at = ?
			WHERE id = ?
		`
		if _, err := s.db.q(ctx).ExecContext(ctx, query, append(args, id)...); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}

		if err := s.insertApprovals(ctx, id, next.Approvals, len(current.Approvals)); err != nil {
			return err
		}

		from := len(current.ChangeHistory)
		if len(next.ChangeHistory) < from {
			if _, err := s.db.q(ctx).ExecContext(ctx,
				"DELETE FROM trip_change_logs WHERE request_id = ?", id); err != nil {
				return fmt.Errorf("failed to reset change history: %w", err)
			}
			from = 0
		}
		if err := s.insertChangeLogs(ctx, id, next.ChangeHistory, from); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated.Clone(), nil
}

// Count returns the number of stored requests
func (s *RequestStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM trip_requests").Scan(&count); err != nil {
		s.logger.Error("Failed to count requests", zap.Error(err))
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

func (s *RequestStore) insertApprovals(ctx context.Context, requestID int64, approvals []entity.Approval, from int) error {
	query := `
		INSERT INTO trip_approvals (request_id, seq, role, actor_id, action, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := from; i < len(approvals); i++ {
		a := approvals[i]
		if _, err := s.db.q(ctx).ExecContext(ctx, query,
			requestID, i, string(a.Role), a.ActorID, string(a.Action), a.Comment, a.Date,
		); err != nil {
			return fmt.Errorf("failed to insert approval: %w", err)
		}
	}
	return nil
}

func (s *RequestStore) insertChangeLogs(ctx context.Context, requestID int64, logs []entity.ChangeLog, from int) error {
	query := `
		INSERT INTO trip_change_logs (request_id, seq, actor_role, field_name, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := from; i < len(logs); i++ {
		l := logs[i]
		if _, err := s.db.q(ctx).ExecContext(ctx, query,
			requestID, i, string(l.ActorRole), l.FieldName, l.OldValue, l.NewValue, l.Date,
		); err != nil {
			return fmt.Errorf("failed to insert change log: %w", err)
		}
	}
	return nil
}

func (s *RequestStore) loadChildren(ctx context.Context, req *entity.TripRequest) error {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT role, actor_id, action, comment, created_at
		FROM trip_approvals WHERE request_id = ? ORDER BY seq ASC
	`, req.ID)
	if err != nil {
		s.logger.Error("Failed to load approvals", zap.Int64("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to load approvals: %w", err)
	}
	req.Approvals = []entity.Approval{}
	for rows.Next() {
		var a entity.Approval
		if err := rows.Scan(&a.Role, &a.ActorID, &a.Action, &a.Comment, &a.Date); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan approval: %w", err)
		}
		req.Approvals = append(req.Approvals, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.q(ctx).QueryContext(ctx, `
		SELECT actor_role, field_name, old_value, new_value, created_at
		FROM trip_change_logs WHERE request_id = ? ORDER BY seq ASC
	`, req.ID)
	if err != nil {
		s.logger.Error("Failed to load change history", zap.Int64("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to load change history: %w", err)
	}
	defer rows.Close()
	req.ChangeHistory = []entity.ChangeLog{}
	for rows.Next() {
		var l entity.ChangeLog
		if err := rows.Scan(&l.ActorRole, &l.FieldName, &l.OldValue, &l.NewValue, &l.Date); err != nil {
			return fmt.Errorf("failed to scan change log: %w", err)
		}
		req.ChangeHistory = append(req.ChangeHistory, l)
	}
	return rows.Err()
}

// requestArgs returns the column values after id, in requestColumns order
func requestArgs(r *entity.TripRequest) ([]interface{}, error) {
	passport, err := marshalJSON(r.PassportPhotos)
	if err != nil {
		return nil, err
	}
	travel, err := marshalJSON(r.TravelTickets)
	if err != nil {
		return nil, err
	}
	hotel, err := marshalJSON(r.HotelBookings)
	if err != nil {
		return nil, err
	}
	receipts, err := marshalJSON(r.ReceiptFiles)
	if err != nil {
		return nil, err
	}
	viewed, err := marshalJSON(r.ViewedByIDs)
	if err != nil {
		return nil, err
	}

	return []interface{}{
		r.EmployeeID, r.Destination, r.Purpose, r.StartDate, r.EndDate, r.CostEstimate,
		string(r.Status), string(r.CurrentApproverRole), string(r.FulfillmentStatus),
		r.ReportAdded, r.ReportText, passport, travel, hotel, receipts,
		r.IsModified, r.LastModifiedActorID, viewed, r.CreatedAt, r.UpdatedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.TripRequest, error) {
	var (
		r                                        entity.TripRequest
		passport, travel, hotel, receipts, viewed string
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.Destination, &r.Purpose, &r.StartDate, &r.EndDate, &r.CostEstimate,
		&r.Status, &r.CurrentApproverRole, &r.FulfillmentStatus, &r.ReportAdded, &r.ReportText,
		&passport, &travel, &hotel, &receipts,
		&r.IsModified, &r.LastModifiedActorID, &viewed, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw  string
		dest interface{}
	}{
		{passport, &r.PassportPhotos},
		{travel, &r.TravelTickets},
		{hotel, &r.HotelBookings},
		{receipts, &r.ReceiptFiles},
		{viewed, &r.ViewedByIDs},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode column: %w", err)
		}
	}
	return &r, nil
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

// Verify interface compliance
var _ port.RequestStore = (*RequestStore)(nil)
