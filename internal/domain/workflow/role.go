package workflow

// Role is the organizational role an actor asserts when acting on a request
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
	RoleFinance  Role = "finance"
	// RoleArchive marks a request nobody needs to act on anymore.
	RoleArchive Role = "archive"
)

var actorRoles = map[Role]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleHR:       true,
	RoleFinance:  true,
}

// approverByState is the single source for the role responsible in each state.
var approverByState = map[State]Role{
	StateCreated:                RoleEmployee,
	StateAwaitingManager:        RoleManager,
	StateAwaitingHR:             RoleHR,
	StateAwaitingFinance:        RoleFinance,
	StateAwaitingEmployeeAction: RoleEmployee,
	StateAwaitingReportApproval: RoleFinance,
	StateRejected:               RoleEmployee,
	StateCompleted:              RoleArchive,
}

// ApproverFor returns the role expected to act on a request in the given state
func ApproverFor(s State) Role {
	if role, ok := approverByState[s]; ok {
		return role
	}
	return RoleArchive
}

// IsActor returns true if the role may submit actions
func (r Role) IsActor() bool {
	return actorRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
