package event

import "slices"

// Type names what happened to a trip request
type Type string

const (
	TypeRequestCreated   Type = "request.created"
	TypeStatusChanged    Type = "request.status_changed"
	TypeRequestModified  Type = "request.modified"
	TypeDocumentsUpdated Type = "request.documents_updated"
)

// AllTypes lists the event types in the order an engine action emits them
func AllTypes() []Type {
	return []Type{TypeRequestCreated, TypeStatusChanged, TypeRequestModified, TypeDocumentsUpdated}
}

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is one of AllTypes
func (t Type) IsValid() bool {
	return slices.Contains(AllTypes(), t)
}
