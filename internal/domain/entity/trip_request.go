package entity

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// TripDetails holds the fields an employee fills in and approvers may modify
type TripDetails struct {
	Destination  string          `json:"destination"`
	Purpose      string          `json:"purpose"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	CostEstimate decimal.Decimal `json:"cost_estimate"`
}

// TripRequest is a business-trip request moving through the approval chain
type TripRequest struct {
	ID         int64 `json:"id"`
	EmployeeID int64 `json:"employee_id"`
	TripDetails

	Status              workflow.State    `json:"status"`
	CurrentApproverRole workflow.Role     `json:"current_approver_role"`
	Approvals           []Approval        `json:"approvals"`
	FulfillmentStatus   FulfillmentStatus `json:"fulfillment_status"`
	ReportAdded         bool              `json:"report_added"`
	ReportText          string            `json:"report_text,omitempty"`

	PassportPhotos []FileAttachment `json:"passport_photos"`
	TravelTickets  []FileAttachment `json:"travel_tickets"`
	HotelBookings  []FileAttachment `json:"hotel_bookings"`
	ReceiptFiles   []FileAttachment `json:"receipt_files"`

	// Notification ledger. LastModifiedActorID is zero until the first change.
	IsModified          bool        `json:"is_modified"`
	LastModifiedActorID int64       `json:"last_modified_actor_id,omitempty"`
	ChangeHistory       []ChangeLog `json:"change_history"`
	ViewedByIDs         []int64     `json:"viewed_by_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Approval records one decision in the approval trail
type Approval struct {
	Role    workflow.Role  `json:"role"`
	ActorID int64          `json:"actor_id,omitempty"`
	Action  ApprovalAction `json:"action"`
	Comment string         `json:"comment,omitempty"`
	Date    time.Time      `json:"date"`
}

// ChangeLog records one field change made on a request
type ChangeLog struct {
	Date      time.Time     `json:"date"`
	ActorRole workflow.Role `json:"actor_role"`
	FieldName string        `json:"field_name"`
	OldValue  string        `json:"old_value"`
	NewValue  string        `json:"new_value"`
}

// FileAttachment is the metadata of an uploaded document
type FileAttachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Clone returns a deep copy of the request. Empty collections stay empty
// rather than becoming nil.
func (r *TripRequest) Clone() *TripRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Approvals = slices.Clone(r.Approvals)
	c.ChangeHistory = slices.Clone(r.ChangeHistory)
	c.ViewedByIDs = slices.Clone(r.ViewedByIDs)
	c.PassportPhotos = slices.Clone(r.PassportPhotos)
	c.TravelTickets = slices.Clone(r.TravelTickets)
	c.HotelBookings = slices.Clone(r.HotelBookings)
	c.ReceiptFiles = slices.Clone(r.ReceiptFiles)
	return &c
}

// IsOwnedBy returns true if the employee created the request
func (r *TripRequest) IsOwnedBy(employeeID int64) bool {
	return r.EmployeeID == employeeID
}

// Documents returns the collection for a document type
func (r *TripRequest) Documents(docType DocumentType) []FileAttachment {
	if p := r.documentSlot(docType); p != nil {
		return *p
	}
	return nil
}

// SetDocuments replaces the collection for a document type
func (r *TripRequest) SetDocuments(docType DocumentType, files []FileAttachment) {
	if p := r.documentSlot(docType); p != nil {
		if files == nil {
			files = []FileAttachment{}
		}
		*p = slices.Clone(files)
	}
}

func (r *TripRequest) documentSlot(docType DocumentType) *[]FileAttachment {
	switch docType {
	case DocumentPassport:
		return &r.PassportPhotos
	case DocumentReceipts:
		return &r.ReceiptFiles
	case DocumentTravel:
		return &r.TravelTickets
	case DocumentHotel:
		return &r.HotelBookings
	default:
		return nil
	}
}
