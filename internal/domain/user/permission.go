package user

type Permission string

const (
	// Leave
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveApprove Permission = "leave.approve"

	// Attendance
	PermissionAttendanceRecord  Permission = "attendance.record"
	PermissionAttendanceViewAll Permission = "attendance.view_all"

	// Payroll
	PermissionPayrollView    Permission = "payroll.view"
	PermissionPayrollProcess Permission = "payroll.process"
	PermissionPayrollApprove Permission = "payroll.approve"
	PermissionPayrollPay     Permission = "payroll.pay"

	// Compensation
	PermissionCompensationView   Permission = "compensation.view"
	PermissionCompensationManage Permission = "compensation.manage"

	// Calendar
	PermissionCalendarView   Permission = "calendar.view"
	PermissionCalendarManage Permission = "calendar.manage"

	// Audit & compliance
	PermissionAuditView      Permission = "audit.view"
	PermissionComplianceView Permission = "compliance.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionAttendanceRecord,
		PermissionAttendanceViewAll,
		PermissionPayrollView,
		PermissionPayrollProcess,
		PermissionPayrollApprove,
		PermissionPayrollPay,
		PermissionCompensationView,
		PermissionCompensationManage,
		PermissionCalendarView,
		PermissionCalendarManage,
		PermissionAuditView,
		PermissionComplianceView,
	},
	RoleDirector: {
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionAttendanceViewAll,
		PermissionPayrollView,
		PermissionPayrollApprove,
		PermissionCompensationView,
		PermissionCalendarView,
		PermissionAuditView,
		PermissionComplianceView,
	},
	RoleHR: {
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionAttendanceRecord,
		PermissionAttendanceViewAll,
		PermissionPayrollView,
		PermissionPayrollProcess,
		PermissionPayrollPay,
		PermissionCompensationView,
		PermissionCompensationManage,
		PermissionCalendarView,
		PermissionCalendarManage,
		PermissionAuditView,
		PermissionComplianceView,
	},
	RoleManager: {
		// Manager decides leave and views team data
		PermissionLeaveCreate,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionAttendanceRecord,
		PermissionAttendanceViewAll,
		PermissionCalendarView,
	},
	RoleEmployee: {
		// Employee has basic access
		PermissionLeaveCreate,
		PermissionCalendarView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
