package entity

import "github.com/garyjia/trip-approval/internal/domain/workflow"

// DocumentType names one of the attachment collections on a request
type DocumentType string

// Document type constants
const (
	DocumentPassport DocumentType = "passport"
	DocumentReceipts DocumentType = "receipts"
	DocumentTravel   DocumentType = "travel"
	DocumentHotel    DocumentType = "hotel"
)

// DocumentPolicy describes who may write a collection and when
type DocumentPolicy struct {
	Owner workflow.Role
	// Writable reports whether the collection accepts updates in a status
	Writable func(workflow.State) bool
	// Notify is false for collections whose updates do not touch the ledger
	Notify bool
}

var documentPolicies = map[DocumentType]DocumentPolicy{
	DocumentPassport: {
		Owner:    workflow.RoleEmployee,
		Writable: func(s workflow.State) bool { return s.IsValid() && s != workflow.StateCompleted },
		Notify:   false,
	},
	DocumentReceipts: {
		Owner: workflow.RoleEmployee,
		Writable: func(s workflow.State) bool {
			return s.Between(workflow.StateAwaitingEmployeeAction, workflow.StateAwaitingReportApproval)
		},
		Notify: true,
	},
	DocumentTravel: {
		Owner: workflow.RoleHR,
		Writable: func(s workflow.State) bool {
			return s.Between(workflow.StateAwaitingHR, workflow.StateAwaitingReportApproval)
		},
		Notify: true,
	},
	DocumentHotel: {
		Owner: workflow.RoleHR,
		Writable: func(s workflow.State) bool {
			return s.Between(workflow.StateAwaitingHR, workflow.StateAwaitingReportApproval)
		},
		Notify: true,
	},
}

// Policy returns the write policy for a document type
func (d DocumentType) Policy() (DocumentPolicy, bool) {
	p, ok := documentPolicies[d]
	return p, ok
}

// IsValid returns true for a known document type
func (d DocumentType) IsValid() bool {
	_, ok := documentPolicies[d]
	return ok
}

// String returns the string representation of the document type
func (d DocumentType) String() string {
	return string(d)
}
