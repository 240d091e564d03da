package rbac

import (
	"fmt"
	"strings"
)

var roleLevels = map[Role]int{
	RoleOwner:   4,
	RoleManager: 3,
	RoleTrainer: 2,
	RoleStaff:   1,
}

// Level is the rank of role in the hierarchy; 0 for unknown roles.
func Level(role Role) int {
	return roleLevels[role]
}

// ParseRole normalises s into a known Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// IsAdmin is true for owners and managers.
func IsAdmin(role Role) bool {
	return role == RoleOwner || role == RoleManager
}

// IsSuperUser is true only for owners.
func IsSuperUser(role Role) bool {
	return role == RoleOwner
}

// IsHigherRole reports whether role1 ranks strictly above role2.
func IsHigherRole(role1, role2 Role) bool {
	l1, ok1 := roleLevels[role1]
	l2, ok2 := roleLevels[role2]
	return ok1 && ok2 && l1 > l2
}

// MeetsMinimumRole reports whether userRole ranks at or above minimumRole.
func MeetsMinimumRole(userRole, minimumRole Role) bool {
	l1, ok1 := roleLevels[userRole]
	l2, ok2 := roleLevels[minimumRole]
	return ok1 && ok2 && l1 >= l2
}

// CanPromoteToRole decides whether requesterRole may move a user from
// currentRole to targetRole. Rules are checked in order and the first
// failing one gives the reason.
func CanPromoteToRole(currentRole, targetRole, requesterRole Role) Check {
	if requesterRole != RoleOwner {
		return Check{Reason: "only owners can change roles"}
	}
	if currentRole == RoleOwner {
		return Check{Reason: "an owner's role cannot be changed"}
	}
	if targetRole == RoleOwner {
		return Check{Reason: "promotion to owner requires a separate procedure"}
	}
	return Check{Granted: true}
}
