package workflow

// tripTable is the trip request lifecycle. Rejections step back one stage;
// a rejected report keeps the request with the employee.
var tripTable = MustTable(
	Transition{StateCreated, TriggerResubmit, StateAwaitingManager},

	Transition{StateAwaitingManager, TriggerApproved, StateAwaitingHR},
	Transition{StateAwaitingManager, TriggerModified, StateAwaitingHR},
	Transition{StateAwaitingManager, TriggerRejected, StateCreated},

	Transition{StateAwaitingHR, TriggerApproved, StateAwaitingFinance},
	Transition{StateAwaitingHR, TriggerRejected, StateAwaitingManager},

	Transition{StateAwaitingFinance, TriggerApproved, StateAwaitingEmployeeAction},
	Transition{StateAwaitingFinance, TriggerModified, StateAwaitingEmployeeAction},
	Transition{StateAwaitingFinance, TriggerRejected, StateAwaitingHR},

	Transition{StateAwaitingEmployeeAction, TriggerReportAdded, StateAwaitingReportApproval},
	Transition{StateAwaitingEmployeeAction, TriggerRejected, StateAwaitingEmployeeAction},

	Transition{StateAwaitingReportApproval, TriggerApproved, StateCompleted},
	Transition{StateAwaitingReportApproval, TriggerRejected, StateAwaitingEmployeeAction},
)

// TripTable returns the trip request transition table
func TripTable() *Table {
	return tripTable
}

// Next returns the state a trip request in from moves to on trigger.
// Pairs missing from the table yield ErrInvalidTransition.
func Next(from State, trigger Trigger) (State, error) {
	return tripTable.Next(from, trigger)
}

// Allows reports whether a trip request in from accepts trigger
func Allows(from State, trigger Trigger) bool {
	return tripTable.Allows(from, trigger)
}
