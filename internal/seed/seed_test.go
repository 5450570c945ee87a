package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
	"github.com/garyjia/trip-approval/internal/infrastructure/persistence/memory"
)

var seedTime = time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

func TestLoadAndApply_DemoData(t *testing.T) {
	f, err := Load(filepath.Join("..", "..", "configs", "seed.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Requests, 5)

	store := memory.NewRequestStore()
	ctx := context.Background()

	n, err := Apply(ctx, store, f, seedTime, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	second, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateAwaitingHR, second.Status)
	assert.Equal(t, workflow.RoleHR, second.CurrentApproverRole)
	require.Len(t, second.Approvals, 2)
	assert.Equal(t, entity.CommentSubmitted, second.Approvals[0].Comment)
	assert.Equal(t, workflow.RoleManager, second.Approvals[1].Role)

	completed, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, workflow.RoleArchive, completed.CurrentApproverRole)
	assert.True(t, completed.ReportAdded)
	assert.Equal(t, entity.FulfillmentReturned, completed.FulfillmentStatus)

	next, err := store.Create(ctx, &entity.TripRequest{EmployeeID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(6), next.ID)

	t.Run("non-empty store is left alone", func(t *testing.T) {
		n, err := Apply(ctx, store, f, seedTime, zap.NewNop())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestApply_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"missing id", Request{EmployeeID: 1, Status: "awaiting_manager"}},
		{"unknown status", Request{ID: 1, EmployeeID: 1, Status: "approved"}},
		{"bad cost", Request{ID: 1, EmployeeID: 1, Status: "awaiting_manager", CostEstimate: "lots"}},
		{"bad fulfillment", Request{ID: 1, EmployeeID: 1, Status: "completed", FulfillmentStatus: "lost"}},
		{"bad approval role", Request{ID: 1, EmployeeID: 1, Status: "awaiting_hr", Approvals: []Approval{{Role: "ceo"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(context.Background(), memory.NewRequestStore(), &File{Requests: []Request{tt.req}}, seedTime, zap.NewNop())
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests: [ {id: }"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
