package access

// AccessLevel is the resolved, per-request snapshot of what an actor may do
// in a workspace. It is recomputed on every check and never persisted:
// explicit grants can expire mid-session.
type AccessLevel struct {
	CanViewAll           bool
	CanViewDepartment    bool
	CanViewOwn           bool
	CanApprove           bool
	CanApproveDepartment bool
	CanEdit              bool
	CanEditOwn           bool
	CanDelete            bool
	CanDeleteOwn         bool

	// AllowedDepartments is empty both for unrestricted viewers
	// (CanViewAll set) and for actors with no department reach; the
	// accompanying flags disambiguate, never the list alone.
	AllowedDepartments []string

	CanAccessCrossWorkspace bool
	CanManageWorkspace      bool
}

// DepartmentAllowed reports whether departmentID falls inside the actor's
// department reach. An empty departmentID never matches.
func (l AccessLevel) DepartmentAllowed(departmentID string) bool {
	if departmentID == "" {
		return false
	}
	for _, id := range l.AllowedDepartments {
		if id == departmentID {
			return true
		}
	}
	return false
}

// NoAccess is the all-false AccessLevel. Directory lookup failures resolve
// to it: authorization failures are data, not errors.
func NoAccess() AccessLevel {
	return AccessLevel{}
}

// LifecycleState is an entity's position in the expense workflow.
type LifecycleState string

const (
	LifecycleDraft    LifecycleState = "draft"
	LifecyclePending  LifecycleState = "pending"
	LifecycleApproved LifecycleState = "approved"
	LifecyclePaid     LifecycleState = "paid"
	LifecycleRejected LifecycleState = "rejected"
)

// Terminal reports whether the state permanently freezes the entity.
// Approved and paid records are immutable regardless of policy.
func (s LifecycleState) Terminal() bool {
	return s == LifecycleApproved || s == LifecyclePaid
}

// Entity carries the ownership, department and lifecycle facts the caller
// supplies per authorization check. The engine never loads entities itself.
type Entity struct {
	OwnerID      string
	DepartmentID string
	Lifecycle    LifecycleState
}
