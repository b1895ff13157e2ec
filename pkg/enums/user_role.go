package enums

import "fmt"

// UserRole represents a pharmacy staff or client permissions role.
type UserRole string

const (
	UserRoleClient        UserRole = "client"
	UserRoleSalesperson   UserRole = "salesperson"
	UserRolePharmacist    UserRole = "pharmacist"
	UserRoleDeliveryAgent UserRole = "delivery_agent"
	UserRoleManager       UserRole = "manager"
)

var validUserRoles = []UserRole{
	UserRoleClient,
	UserRoleSalesperson,
	UserRolePharmacist,
	UserRoleDeliveryAgent,
	UserRoleManager,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to pharmacy personnel.
func (u UserRole) IsStaff() bool {
	switch u {
	case UserRoleSalesperson, UserRolePharmacist, UserRoleDeliveryAgent, UserRoleManager:
		return true
	default:
		return false
	}
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
