package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // First-level leave approver
	RoleHR       Role = "hr"       // Runs payroll and keeps the calendar
	RoleDirector Role = "director" // Last escalation level
	RoleEmployee Role = "employee" // Regular employee
)

func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// Claims is what every authenticated request carries.
type Claims struct {
	UserID    string
	CompanyID string
	Role      Role
}
