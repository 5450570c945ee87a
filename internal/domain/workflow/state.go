package workflow

// State is the status of a trip request in its approval lifecycle
type State string

const (
	StateCreated                State = "created"
	StateAwaitingManager        State = "awaiting_manager"
	StateAwaitingHR             State = "awaiting_hr"
	StateAwaitingFinance        State = "awaiting_finance"
	StateAwaitingEmployeeAction State = "awaiting_employee_action"
	StateAwaitingReportApproval State = "awaiting_report_approval"
	StateRejected               State = "rejected"
	StateCompleted              State = "completed"
)

var validStates = map[State]bool{
	StateCreated:                true,
	StateAwaitingManager:        true,
	StateAwaitingHR:             true,
	StateAwaitingFinance:        true,
	StateAwaitingEmployeeAction: true,
	StateAwaitingReportApproval: true,
	StateRejected:               true,
	StateCompleted:              true,
}

// StateRejected is defined for forward compatibility; no transition produces it.
var terminalStates = map[State]bool{
	StateRejected:  true,
	StateCompleted: true,
}

// stageOrder ranks the approval stages so callers can test windows like
// "from awaiting_hr onwards". Created and rejected sit outside the chain.
var stageOrder = map[State]int{
	StateAwaitingManager:        1,
	StateAwaitingHR:             2,
	StateAwaitingFinance:        3,
	StateAwaitingEmployeeAction: 4,
	StateAwaitingReportApproval: 5,
	StateCompleted:              6,
}

// IsTerminal returns true if no further transitions leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsAwaiting returns true for the states in which some role must act
func (s State) IsAwaiting() bool {
	_, ok := stageOrder[s]
	return ok && s != StateCompleted
}

// Between reports whether s lies in the inclusive stage window [from, to].
func (s State) Between(from, to State) bool {
	rank, ok := stageOrder[s]
	if !ok {
		return false
	}
	return rank >= stageOrder[from] && rank <= stageOrder[to]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// AllStates lists every lifecycle state in stage order.
func AllStates() []State {
	return []State{
		StateCreated,
		StateAwaitingManager,
		StateAwaitingHR,
		StateAwaitingFinance,
		StateAwaitingEmployeeAction,
		StateAwaitingReportApproval,
		StateRejected,
		StateCompleted,
	}
}
