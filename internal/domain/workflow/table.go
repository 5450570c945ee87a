package workflow

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidTransition is returned when the table has no row for a (state, trigger) pair
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned for a status outside the lifecycle
	ErrInvalidState = errors.New("invalid state")
)

// Transition is one row of a transition table
type Transition struct {
	From    State
	Trigger Trigger
	To      State
}

// Table is an immutable, deterministic transition table: each (From, Trigger)
// pair leads to at most one state.
type Table struct {
	next map[State]map[Trigger]State
}

// NewTable validates rows and indexes them. Unknown states, unknown triggers
// and a pair listed twice are rejected.
func NewTable(rows ...Transition) (*Table, error) {
	t := &Table{next: make(map[State]map[Trigger]State)}
	for _, r := range rows {
		if !r.From.IsValid() || !r.To.IsValid() {
			return nil, fmt.Errorf("%w: row %s -%s-> %s", ErrInvalidState, r.From, r.Trigger, r.To)
		}
		if !slices.Contains(AllTriggers(), r.Trigger) {
			return nil, fmt.Errorf("unknown trigger %q", r.Trigger)
		}
		out, ok := t.next[r.From]
		if !ok {
			out = make(map[Trigger]State)
			t.next[r.From] = out
		}
		if prev, dup := out[r.Trigger]; dup {
			return nil, fmt.Errorf("%s on %s already leads to %s", r.Trigger, r.From, prev)
		}
		out[r.Trigger] = r.To
	}
	return t, nil
}

// MustTable is NewTable for package-level tables
func MustTable(rows ...Transition) *Table {
	t, err := NewTable(rows...)
	if err != nil {
		panic(err)
	}
	return t
}

// Next returns the state from moves to on trigger
func (t *Table) Next(from State, trigger Trigger) (State, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidState, from)
	}
	to, ok := t.next[from][trigger]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// Allows reports whether the table has a row for (from, trigger)
func (t *Table) Allows(from State, trigger Trigger) bool {
	_, ok := t.next[from][trigger]
	return ok
}

// Triggers lists the triggers accepted in from, sorted by name
func (t *Table) Triggers(from State) []Trigger {
	out := make([]Trigger, 0, len(t.next[from]))
	for trigger := range t.next[from] {
		out = append(out, trigger)
	}
	slices.Sort(out)
	return out
}

// Rows returns every row sorted by source state then trigger
func (t *Table) Rows() []Transition {
	var rows []Transition
	for from, out := range t.next {
		for trigger, to := range out {
			rows = append(rows, Transition{From: from, Trigger: trigger, To: to})
		}
	}
	slices.SortFunc(rows, func(a, b Transition) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.Trigger, b.Trigger))
	})
	return rows
}
