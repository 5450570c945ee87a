package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
	"github.com/garyjia/trip-approval/pkg/database"
)

func newTestStore(t *testing.T) *RequestStore {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()

	conn, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "trips.db"),
		MaxOpenConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, database.NewMigrator(conn, logger).RunMigrations(ctx, Migrations, MigrationsDir))
	return NewRequestStore(NewDB(conn), logger)
}

func sampleRequest(employeeID int64) *entity.TripRequest {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &entity.TripRequest{
		EmployeeID: employeeID,
		TripDetails: entity.TripDetails{
			Destination:  "Berlin",
			Purpose:      "Training",
			StartDate:    "2025-04-01",
			EndDate:      "2025-04-05",
			CostEstimate: decimal.NewFromInt(55000),
		},
		Status:              workflow.StateAwaitingManager,
		CurrentApproverRole: workflow.RoleManager,
		Approvals: []entity.Approval{{
			Role: workflow.RoleEmployee, ActorID: employeeID, Action: entity.ActionResubmitted,
			Comment: entity.CommentSubmitted, Date: now,
		}},
		FulfillmentStatus: entity.FulfillmentWaitingDates,
		PassportPhotos:    []entity.FileAttachment{{Name: "passport.jpg", URL: "/files/1/passport.jpg", UploadedAt: now}},
		ViewedByIDs:       []int64{employeeID},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestRequestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleRequest(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", got.Destination)
	assert.True(t, decimal.NewFromInt(55000).Equal(got.CostEstimate))
	assert.Equal(t, workflow.StateAwaitingManager, got.Status)
	assert.Equal(t, workflow.RoleManager, got.CurrentApproverRole)
	require.Len(t, got.Approvals, 1)
	assert.Equal(t, entity.CommentSubmitted, got.Approvals[0].Comment)
	require.Len(t, got.PassportPhotos, 1)
	assert.Equal(t, "passport.jpg", got.PassportPhotos[0].Name)
	assert.Empty(t, got.ReceiptFiles)
	assert.Equal(t, []int64{1}, got.ViewedByIDs)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestRequestStore_ExplicitIDsKeepAllocationAbove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seeded := sampleRequest(1)
	seeded.ID = 5
	_, err := store.Create(ctx, seeded)
	require.NoError(t, err)

	next, err := store.Create(ctx, sampleRequest(2))
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.ID)
}

func TestRequestStore_GetUnknown(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = store.Update(context.Background(), 42, func(*entity.TripRequest) error { return nil })
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRequestStore_UpdateAppendsTrail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx, sampleRequest(1))
	require.NoError(t, err)

	at := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	updated, err := store.Update(ctx, created.ID, func(r *entity.TripRequest) error {
		r.Status = workflow.StateAwaitingHR
		r.CurrentApproverRole = workflow.RoleHR
		r.Destination = "Munich"
		r.Approvals = append(r.Approvals, entity.Approval{
			Role: workflow.RoleManager, ActorID: 2, Action: entity.ActionModified, Date: at,
		})
		r.ChangeHistory = append(r.ChangeHistory, entity.ChangeLog{
			Date: at, ActorRole: workflow.RoleManager, FieldName: entity.FieldDestination,
			OldValue: "Berlin", NewValue: "Munich",
		})
		r.IsModified = true
		r.LastModifiedActorID = 2
		r.ViewedByIDs = []int64{2}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Munich", updated.Destination)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAwaitingHR, got.Status)
	require.Len(t, got.Approvals, 2)
	assert.Equal(t, entity.ActionModified, got.Approvals[1].Action)
	require.Len(t, got.ChangeHistory, 1)
	assert.Equal(t, "Munich", got.ChangeHistory[0].NewValue)
	assert.True(t, got.IsModified)
	assert.Equal(t, int64(2), got.LastModifiedActorID)
	assert.Equal(t, []int64{2}, got.ViewedByIDs)
}

func TestRequestStore_UpdateResetsChangeHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	req := sampleRequest(1)
	req.ChangeHistory = []entity.ChangeLog{
		{Date: req.CreatedAt, ActorRole: workflow.RoleHR, FieldName: entity.FieldPurpose, OldValue: "a", NewValue: "b"},
		{Date: req.CreatedAt, ActorRole: workflow.RoleHR, FieldName: entity.FieldStatus, OldValue: "c", NewValue: "d"},
	}
	created, err := store.Create(ctx, req)
	require.NoError(t, err)

	_, err = store.Update(ctx, created.ID, func(r *entity.TripRequest) error {
		r.ChangeHistory = []entity.ChangeLog{}
		return nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ChangeHistory)
}

func TestRequestStore_UpdateRollsBackOnMutatorError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx, sampleRequest(1))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, created.ID, func(r *entity.TripRequest) error {
		r.Destination = "Nowhere"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", got.Destination)
}

func TestRequestStore_UpdateRejectsDroppedApprovals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx, sampleRequest(1))
	require.NoError(t, err)

	_, err = store.Update(ctx, created.ID, func(r *entity.TripRequest) error {
		r.Approvals = nil
		return nil
	})
	assert.Error(t, err)
}

func TestRequestStore_ListAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, employeeID := range []int64{1, 1, 3} {
		_, err := store.Create(ctx, sampleRequest(employeeID))
		require.NoError(t, err)
	}
	_, err := store.Update(ctx, 3, func(r *entity.TripRequest) error {
		r.Status = workflow.StateAwaitingHR
		r.CurrentApproverRole = workflow.RoleHR
		return nil
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	mine, err := store.List(ctx, port.RequestFilter{EmployeeID: 1})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(1), mine[0].ID)
	assert.Len(t, mine[0].Approvals, 1)

	hrQueue, err := store.List(ctx, port.RequestFilter{
		ApproverRole: workflow.RoleHR,
		Statuses:     []workflow.State{workflow.StateAwaitingHR},
	})
	require.NoError(t, err)
	require.Len(t, hrQueue, 1)
	assert.Equal(t, int64(3), hrQueue[0].ID)

	page, err := store.List(ctx, port.RequestFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)

	tail, err := store.List(ctx, port.RequestFilter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].ID)
}
