package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"request created", TypeRequestCreated, true},
		{"status changed", TypeStatusChanged, true},
		{"request modified", TypeRequestModified, true},
		{"documents updated", TypeDocumentsUpdated, true},
		{"unknown type", Type("unknown.type"), false},
		{"empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		KeyToStatus:   "awaiting_hr",
		KeyEmployeeID: int64(1),
	}

	event := NewEvent(TypeStatusChanged, 3, 5, payload)

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.CorrelationID != event.ID {
		t.Errorf("CorrelationID = %v, want the event ID", event.CorrelationID)
	}
	if event.RequestID != 3 || event.ActorID != 5 {
		t.Errorf("RequestID/ActorID = %d/%d, want 3/5", event.RequestID, event.ActorID)
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
	if got := event.GetPayloadString(KeyToStatus); got != "awaiting_hr" {
		t.Errorf("GetPayloadString() = %v, want awaiting_hr", got)
	}
	if got := event.GetPayloadInt(KeyEmployeeID); got != 1 {
		t.Errorf("GetPayloadInt() = %v, want 1", got)
	}
	if got := event.GetPayloadString("missing"); got != "" {
		t.Errorf("GetPayloadString(missing) = %q, want empty", got)
	}
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a := NewEvent(TypeRequestCreated, 1, 1, nil)
	b := NewEvent(TypeRequestCreated, 1, 1, nil)
	if a.ID == b.ID {
		t.Error("event IDs should be unique")
	}
}

func TestEvent_WithPayload_DoesNotMutateOriginal(t *testing.T) {
	original := NewEvent(TypeRequestModified, 1, 5, map[string]interface{}{"a": "1"})

	updated := original.WithPayload("b", "2")

	if _, ok := original.Payload["b"]; ok {
		t.Error("WithPayload() mutated the original payload")
	}
	if updated.GetPayloadString("b") != "2" || updated.GetPayloadString("a") != "1" {
		t.Errorf("WithPayload() payload = %v", updated.Payload)
	}
	if updated.ID != original.ID {
		t.Error("WithPayload() should keep the event ID")
	}
}

func TestEvent_WithCorrelation(t *testing.T) {
	parent := NewEvent(TypeRequestCreated, 1, 1, nil)
	child := NewEvent(TypeStatusChanged, 1, 5, nil).WithCorrelation(parent.CorrelationID)

	if child.CorrelationID != parent.CorrelationID {
		t.Errorf("CorrelationID = %v, want %v", child.CorrelationID, parent.CorrelationID)
	}
}
