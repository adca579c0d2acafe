package enums

import "fmt"

// UserRole identifies what a caller is allowed to do. Identity itself is
// established by the upstream auth system.
type UserRole string

const (
	UserRolePatient       UserRole = "patient"
	UserRoleClinicAdmin   UserRole = "clinic_admin"
	UserRolePlatformAdmin UserRole = "platform_admin"
)

var validUserRoles = []UserRole{
	UserRolePatient,
	UserRoleClinicAdmin,
	UserRolePlatformAdmin,
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
