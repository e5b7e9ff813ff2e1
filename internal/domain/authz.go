package domain

// CanManageDepartment answers whether an actor may manage tickets routed to
// the given department. Pure and total: identical inputs always yield
// identical results, so the same function backs both visibility filtering and
// mutation authorization.
func CanManageDepartment(role Role, actorDept *Department, ticketDept Department) bool {
	if role == RoleSystemAdmin {
		return true
	}
	if IsManagerRole(role) && actorDept != nil && *actorDept == ticketDept {
		return true
	}
	return false
}

// IsOwner reports whether the user created the ticket. Ownership never
// transfers and is independent of role.
func IsOwner(u *User, t *Ticket) bool {
	return t.CreatedBy == u.ID
}

// CanAccess is the combined access rule applied uniformly to read, update and
// delete: ownership OR department-management authorization.
func CanAccess(u *User, t *Ticket) bool {
	return IsOwner(u, t) || CanManageDepartment(u.Role, u.Department, t.Department)
}
