package workflow

// Trigger represents an actor decision that can cause a state transition
type Trigger string

const (
	TriggerApproved    Trigger = "approved"
	TriggerModified    Trigger = "modified"
	TriggerRejected    Trigger = "rejected"
	TriggerResubmit    Trigger = "resubmit"
	TriggerReportAdded Trigger = "report_added"
)

// AllTriggers lists every trigger the lifecycle understands.
func AllTriggers() []Trigger {
	return []Trigger{TriggerApproved, TriggerModified, TriggerRejected, TriggerResubmit, TriggerReportAdded}
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
