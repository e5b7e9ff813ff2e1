package domain

// Role enumerates account roles. Manager roles are scoped to exactly one
// department; SYSTEM_ADMIN is unscoped.
type Role string

const (
	RoleEmployee       Role = "EMPLOYEE"
	RoleAdminManager   Role = "ADMIN_MANAGER"
	RoleFinanceManager Role = "FINANCE_MANAGER"
	RoleHRManager      Role = "HR_MANAGER"
	RoleSystemAdmin    Role = "SYSTEM_ADMIN"
)

// Department enumerates the organizational units tickets are routed to.
type Department string

const (
	DepartmentAdmin   Department = "ADMIN"
	DepartmentFinance Department = "FINANCE"
	DepartmentHR      Department = "HR"
)

// Departments lists all known departments in display order.
var Departments = []Department{DepartmentAdmin, DepartmentFinance, DepartmentHR}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleEmployee, RoleAdminManager, RoleFinanceManager, RoleHRManager, RoleSystemAdmin:
		return true
	}
	return false
}

// ValidDepartment reports whether d is a known department.
func ValidDepartment(d Department) bool {
	switch d {
	case DepartmentAdmin, DepartmentFinance, DepartmentHR:
		return true
	}
	return false
}

// IsManagerRole reports whether the role is one of the department-manager roles.
func IsManagerRole(r Role) bool {
	switch r {
	case RoleAdminManager, RoleFinanceManager, RoleHRManager:
		return true
	}
	return false
}
