package gormstore

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

func TestModel_RoundTripPreservesRequest(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	req := &entity.TripRequest{
		ID:         3,
		EmployeeID: 1,
		TripDetails: entity.TripDetails{
			Destination:  "Tokyo",
			CostEstimate: decimal.RequireFromString("95000.50"),
		},
		Status:              workflow.StateAwaitingEmployeeAction,
		CurrentApproverRole: workflow.RoleEmployee,
		FulfillmentStatus:   entity.FulfillmentInProgress,
		Approvals:           []entity.Approval{{Role: workflow.RoleFinance, Action: entity.ActionApproved, Date: now}},
		IsModified:          true,
		LastModifiedActorID: 4,
		ViewedByIDs:         []int64{4},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	got := toModel(req).toEntity()
	assert.Equal(t, req.Status, got.Status)
	assert.Equal(t, req.CurrentApproverRole, got.CurrentApproverRole)
	assert.True(t, req.CostEstimate.Equal(got.CostEstimate))
	assert.Equal(t, req.Approvals, got.Approvals)
	assert.Equal(t, []int64{4}, got.ViewedByIDs)
	assert.NotNil(t, got.ChangeHistory)
	assert.NotNil(t, got.ReceiptFiles)
}

func TestModel_SchemaUsesJSONSerializer(t *testing.T) {
	s, err := schema.Parse(&tripRequestModel{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Equal(t, "trip_requests", s.Table)

	for _, name := range []string{"Approvals", "ChangeHistory", "ViewedByIDs", "ReceiptFiles"} {
		field := s.LookUpField(name)
		require.NotNil(t, field, name)
		assert.NotNil(t, field.Serializer, name)
	}
	require.NotNil(t, s.PrioritizedPrimaryField)
	assert.Equal(t, "id", s.PrioritizedPrimaryField.DBName)
}
