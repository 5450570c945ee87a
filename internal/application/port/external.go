package port

import (
	"context"

	"github.com/garyjia/trip-approval/internal/domain/entity"
)

// Recipient addresses a chat message
type Recipient struct {
	// IDType is the messenger's receiver kind, e.g. "chat_id" or "open_id"
	IDType string
	ID     string
}

// Messenger delivers plain-text notifications
type Messenger interface {
	SendText(ctx context.Context, to Recipient, text string) (messageID string, err error)
}

// TripAdvice is an automated assessment of a trip request for approvers
type TripAdvice struct {
	Reasonable bool     `json:"reasonable"`
	Concerns   []string `json:"concerns"`
	Summary    string   `json:"summary"`
	Model      string   `json:"model"`
}

// TripAdvisor reviews destination, purpose, dates and cost of a request
type TripAdvisor interface {
	Review(ctx context.Context, req *entity.TripRequest) (*TripAdvice, error)
}
