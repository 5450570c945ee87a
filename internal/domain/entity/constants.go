package entity

// ApprovalAction is the decision recorded in an approval entry
type ApprovalAction string

// Approval action constants
const (
	ActionApproved    ApprovalAction = "approved"
	ActionRejected    ApprovalAction = "rejected"
	ActionModified    ApprovalAction = "modified"
	ActionResubmitted ApprovalAction = "resubmitted"
)

// FulfillmentStatus tracks the travel phase after financial approval
type FulfillmentStatus string

// Fulfillment status constants
const (
	FulfillmentWaitingDates FulfillmentStatus = "waiting_dates"
	FulfillmentInProgress   FulfillmentStatus = "in_progress"
	FulfillmentReturned     FulfillmentStatus = "returned"
)

var validFulfillment = map[FulfillmentStatus]bool{
	FulfillmentWaitingDates: true,
	FulfillmentInProgress:   true,
	FulfillmentReturned:     true,
}

// IsValid returns true for a known fulfillment value
func (f FulfillmentStatus) IsValid() bool {
	return validFulfillment[f]
}

// Field names written to the change history
const (
	FieldDestination       = "destination"
	FieldPurpose           = "purpose"
	FieldStartDate         = "startDate"
	FieldEndDate           = "endDate"
	FieldCostEstimate      = "costEstimate"
	FieldStatus            = "status"
	FieldFulfillmentStatus = "fulfillmentStatus"
	FieldReport            = "report"
)

// Default approval comments
const (
	CommentSubmitted       = "Request submitted."
	CommentResubmitted     = "Request resubmitted."
	CommentReportSubmitted = "Report submitted."
)
