package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	domainwf "github.com/garyjia/trip-approval/internal/domain/workflow"
)

// ActionKind names an inbound action on a request
type ActionKind string

const (
	ActionApprove              ActionKind = "approve"
	ActionReject               ActionKind = "reject"
	ActionModify               ActionKind = "modify"
	ActionResubmit             ActionKind = "resubmit"
	ActionMarkSeen             ActionKind = "mark_seen"
	ActionSetFulfillmentStatus ActionKind = "set_fulfillment_status"
	ActionAddReport            ActionKind = "add_report"
	ActionUpdateDocuments      ActionKind = "update_documents"
)

// Action is one actor's request to change a trip request
type Action struct {
	RequestID int64
	ActorID   int64
	ActorRole domainwf.Role
	Kind      ActionKind

	Comment           string
	Changes           TripChanges
	FulfillmentStatus entity.FulfillmentStatus
	ReportText        string
	DocumentType      entity.DocumentType
	Files             []entity.FileAttachment
	// Keep, when non-nil, turns Files into additions: the collection becomes
	// the current files whose URL is listed in Keep, followed by Files.
	// A nil Keep makes Files the whole new collection.
	Keep []string
}

// TripChanges carries edited trip fields; nil fields are left as they are
type TripChanges struct {
	Destination  *string
	Purpose      *string
	StartDate    *string
	EndDate      *string
	CostEstimate *decimal.Decimal
}

// IsEmpty reports whether no field was supplied
func (c TripChanges) IsEmpty() bool {
	return c.Destination == nil && c.Purpose == nil && c.StartDate == nil &&
		c.EndDate == nil && c.CostEstimate == nil
}

// CreateInput is the payload of a new trip request
type CreateInput struct {
	EmployeeID     int64
	Details        entity.TripDetails
	PassportPhotos []entity.FileAttachment
}
