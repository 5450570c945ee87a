package dispatcher

import (
	"context"
	"slices"

	"github.com/garyjia/trip-approval/internal/domain/event"
)

// Handler reacts to one request event
type Handler func(ctx context.Context, evt *event.Event) error

// Subscription describes a registered handler. An empty Types list means the
// handler receives every event.
type Subscription struct {
	Name  string
	Types []event.Type
}

// Matches reports whether the subscription wants events of type t
func (s Subscription) Matches(t event.Type) bool {
	return len(s.Types) == 0 || slices.Contains(s.Types, t)
}

type subscriber struct {
	Subscription
	handle Handler
}
