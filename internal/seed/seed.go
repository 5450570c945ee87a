package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// File is the layout of the seed YAML
type File struct {
	Requests []Request `yaml:"requests"`
}

// Request is one seeded trip request
type Request struct {
	ID                int64      `yaml:"id"`
	EmployeeID        int64      `yaml:"employee_id"`
	Status            string     `yaml:"status"`
	Destination       string     `yaml:"destination"`
	Purpose           string     `yaml:"purpose"`
	StartDate         string     `yaml:"start_date"`
	EndDate           string     `yaml:"end_date"`
	CostEstimate      string     `yaml:"cost_estimate"`
	FulfillmentStatus string     `yaml:"fulfillment_status"`
	ReportText        string     `yaml:"report_text"`
	Approvals         []Approval `yaml:"approvals"`
}

// Approval is one seeded approval trail entry
type Approval struct {
	Role    string `yaml:"role"`
	ActorID int64  `yaml:"actor_id"`
	Action  string `yaml:"action"`
	Comment string `yaml:"comment"`
}

// Load reads and parses a seed file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed file: %w", err)
	}
	return &f, nil
}

// Apply stores the seeded requests when the store is empty.
// It returns the number of requests created.
func Apply(ctx context.Context, store port.RequestStore, f *File, now time.Time, logger *zap.Logger) (int, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info("Store not empty, skipping seed", zap.Int("existing", count))
		return 0, nil
	}

	created := 0
	for i := range f.Requests {
		req, err := f.Requests[i].toEntity(now)
		if err != nil {
			return created, fmt.Errorf("seed request %d: %w", f.Requests[i].ID, err)
		}
		if _, err := store.Create(ctx, req); err != nil {
			return created, fmt.Errorf("seed request %d: %w", req.ID, err)
		}
		created++
	}

	logger.Info("Seed data loaded", zap.Int("requests", created))
	return created, nil
}

func (r Request) toEntity(now time.Time) (*entity.TripRequest, error) {
	if r.ID <= 0 || r.EmployeeID <= 0 {
		return nil, fmt.Errorf("id and employee_id are required: %w", entity.ErrValidation)
	}

	status := workflow.State(r.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown status %q: %w", r.Status, entity.ErrValidation)
	}

	cost := decimal.Zero
	if r.CostEstimate != "" {
		parsed, err := decimal.NewFromString(r.CostEstimate)
		if err != nil {
			return nil, fmt.Errorf("invalid cost_estimate %q: %w", r.CostEstimate, entity.ErrValidation)
		}
		cost = parsed
	}

	fulfillment := entity.FulfillmentWaitingDates
	if r.FulfillmentStatus != "" {
		fulfillment = entity.FulfillmentStatus(r.FulfillmentStatus)
		if !fulfillment.IsValid() {
			return nil, fmt.Errorf("unknown fulfillment_status %q: %w", r.FulfillmentStatus, entity.ErrValidation)
		}
	}

	approvals := []entity.Approval{{
		Role:    workflow.RoleEmployee,
		ActorID: r.EmployeeID,
		Action:  entity.ActionResubmitted,
		Comment: entity.CommentSubmitted,
		Date:    now,
	}}
	for _, a := range r.Approvals {
		role := workflow.Role(a.Role)
		if !role.IsActor() {
			return nil, fmt.Errorf("unknown approval role %q: %w", a.Role, entity.ErrValidation)
		}
		approvals = append(approvals, entity.Approval{
			Role:    role,
			ActorID: a.ActorID,
			Action:  entity.ApprovalAction(a.Action),
			Comment: a.Comment,
			Date:    now,
		})
	}

	return &entity.TripRequest{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		TripDetails: entity.TripDetails{
			Destination:  r.Destination,
			Purpose:      r.Purpose,
			StartDate:    r.StartDate,
			EndDate:      r.EndDate,
			CostEstimate: cost,
		},
		Status:              status,
		CurrentApproverRole: workflow.ApproverFor(status),
		Approvals:           approvals,
		FulfillmentStatus:   fulfillment,
		ReportAdded:         r.ReportText != "",
		ReportText:          r.ReportText,
		PassportPhotos:      []entity.FileAttachment{},
		TravelTickets:       []entity.FileAttachment{},
		HotelBookings:       []entity.FileAttachment{},
		ReceiptFiles:        []entity.FileAttachment{},
		ChangeHistory:       []entity.ChangeLog{},
		ViewedByIDs:         []int64{r.EmployeeID},
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}
