package access

// Entity authorization: four pure predicates over an AccessLevel and the
// caller-supplied entity facts. Every branch returns a boolean; denial is
// never an error.

// CanView reports whether the actor may see the entity.
func CanView(level AccessLevel, entity Entity, actorID string) bool {
	if level.CanViewAll {
		return true
	}
	if level.CanViewOwn && entity.OwnerID == actorID {
		return true
	}
	return level.CanViewDepartment && level.DepartmentAllowed(entity.DepartmentID)
}

// CanApprove reports whether the actor may approve the entity.
// Self-approval is always forbidden, before any capability is consulted.
func CanApprove(level AccessLevel, entity Entity, actorID string) bool {
	if entity.OwnerID == actorID {
		return false
	}
	if level.CanApprove {
		return true
	}
	return level.CanApproveDepartment && level.DepartmentAllowed(entity.DepartmentID)
}

// CanEdit reports whether the actor may modify the entity. Approved and
// paid entities are immutable regardless of capability.
func CanEdit(level AccessLevel, entity Entity, actorID string) bool {
	if entity.Lifecycle.Terminal() {
		return false
	}
	if level.CanEdit {
		return true
	}
	return level.CanEditOwn && entity.OwnerID == actorID
}

// CanDelete reports whether the actor may remove the entity, under the same
// terminal-state rule as CanEdit.
func CanDelete(level AccessLevel, entity Entity, actorID string) bool {
	if entity.Lifecycle.Terminal() {
		return false
	}
	if level.CanDelete {
		return true
	}
	return level.CanDeleteOwn && entity.OwnerID == actorID
}
