package catalog

// Permission represents an atomic capability in the catalog. Definitions
// are loaded once at process start and never change.
type Permission struct {
	ID          string
	Name        string
	Description string
	Category    string
	Feature     string
}

// Role is a workspace membership role.
type Role string

// Workspace roles, from most to least privileged.
const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is one the engine knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Domain groups permissions by the feature area whose role defaults they
// seed. Each domain carries its own default policy per role.
type Domain string

const (
	DomainGeneric     Domain = "generic"
	DomainBudgets     Domain = "budgets"
	DomainCostCenters Domain = "costcenters"
	DomainFinance     Domain = "finance"
)

// Domains returns every policy domain.
func Domains() []Domain {
	return []Domain{DomainGeneric, DomainBudgets, DomainCostCenters, DomainFinance}
}
