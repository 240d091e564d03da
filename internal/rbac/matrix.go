package rbac

import (
	"fmt"
	"slices"
)

// Matrix maps role and resource to the permissions granted. It is built
// once and never changes, so a single value can be shared by every request.
type Matrix struct {
	grants map[Role]map[Resource][]Permission
}

// NewMatrix copies grants into a new Matrix. Later changes to grants do not
// affect the result.
func NewMatrix(grants map[Role]map[Resource][]Permission) *Matrix {
	m := &Matrix{grants: make(map[Role]map[Resource][]Permission, len(grants))}
	for role, resources := range grants {
		copied := make(map[Resource][]Permission, len(resources))
		for resource, perms := range resources {
			copied[resource] = slices.Clone(perms)
		}
		m.grants[role] = copied
	}
	return m
}

// DefaultMatrix returns the gym dashboard's permission table.
func DefaultMatrix() *Matrix {
	return NewMatrix(map[Role]map[Resource][]Permission{
		RoleOwner: {
			ResourceMembers:     {PermRead, PermCreate, PermUpdate, PermDelete, PermExport, PermManage},
			ResourceSessions:    {PermRead, PermCreate, PermUpdate, PermDelete, PermExport, PermManage},
			ResourceRevenue:     {PermRead, PermExport, PermManage},
			ResourceAnalytics:   {PermRead, PermExport, PermManage},
			ResourceExport:      {PermRead, PermExport, PermManage},
			ResourceAccounting:  {PermRead, PermCreate, PermUpdate, PermDelete, PermManage},
			ResourceSettings:    {PermRead, PermUpdate, PermManage},
			ResourceUsers:       {PermRead, PermCreate, PermUpdate, PermDelete, PermManage},
			ResourcePermissions: {PermRead, PermUpdate, PermManage},
		},
		RoleManager: {
			ResourceMembers:     {PermRead, PermCreate, PermUpdate, PermExport},
			ResourceSessions:    {PermRead, PermCreate, PermUpdate, PermExport},
			ResourceRevenue:     {PermRead, PermExport},
			ResourceAnalytics:   {PermRead, PermExport},
			ResourceExport:      {PermRead, PermExport},
			ResourceAccounting:  {PermRead, PermCreate},
			ResourceSettings:    {PermRead},
			ResourceUsers:       {PermRead},
			ResourcePermissions: {},
		},
		RoleTrainer: {
			ResourceMembers:     {PermRead},
			ResourceSessions:    {PermRead, PermCreate, PermUpdate},
			ResourceRevenue:     {PermRead},
			ResourceAnalytics:   {},
			ResourceExport:      {},
			ResourceAccounting:  {},
			ResourceSettings:    {PermRead},
			ResourceUsers:       {},
			ResourcePermissions: {},
		},
		RoleStaff: {
			ResourceMembers:     {PermRead},
			ResourceSessions:    {PermRead},
			ResourceRevenue:     {},
			ResourceAnalytics:   {},
			ResourceExport:      {},
			ResourceAccounting:  {},
			ResourceSettings:    {PermRead},
			ResourceUsers:       {},
			ResourcePermissions: {},
		},
	})
}

func (m *Matrix) lookup(role Role, resource Resource) []Permission {
	if m == nil {
		return nil
	}
	return m.grants[role][resource]
}

// HasPermission reports whether role holds permission on resource. Unknown
// roles and resources hold nothing.
func (m *Matrix) HasPermission(role Role, resource Resource, permission Permission) bool {
	return slices.Contains(m.lookup(role, resource), permission)
}

// HasAllPermissions reports whether role holds every permission listed.
func (m *Matrix) HasAllPermissions(role Role, resource Resource, permissions []Permission) bool {
	for _, p := range permissions {
		if !m.HasPermission(role, resource, p) {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether role holds at least one permission listed.
func (m *Matrix) HasAnyPermission(role Role, resource Resource, permissions []Permission) bool {
	for _, p := range permissions {
		if m.HasPermission(role, resource, p) {
			return true
		}
	}
	return false
}

// HasFullAccess reports whether role may manage resource.
func (m *Matrix) HasFullAccess(role Role, resource Resource) bool {
	return m.HasPermission(role, resource, PermManage)
}

// IsReadOnly reports whether role can read resource but cannot create,
// update or delete it. Export and manage are not considered.
func (m *Matrix) IsReadOnly(role Role, resource Resource) bool {
	perms := m.lookup(role, resource)
	return slices.Contains(perms, PermRead) &&
		!slices.Contains(perms, PermCreate) &&
		!slices.Contains(perms, PermUpdate) &&
		!slices.Contains(perms, PermDelete)
}

// CheckPermission is HasPermission with a reason attached on denial.
func (m *Matrix) CheckPermission(role Role, resource Resource, permission Permission) Check {
	if m.HasPermission(role, resource, permission) {
		return Check{Granted: true}
	}
	return Check{
		Granted: false,
		Reason:  fmt.Sprintf("role %q does not have %q permission on %q", role, permission, resource),
	}
}

// ResourcePermissions returns a copy of the permissions role holds on
// resource, never nil.
func (m *Matrix) ResourcePermissions(role Role, resource Resource) []Permission {
	perms := m.lookup(role, resource)
	if len(perms) == 0 {
		return []Permission{}
	}
	return slices.Clone(perms)
}

// AccessibleResources lists the resources on which role holds any
// permission, in declaration order.
func (m *Matrix) AccessibleResources(role Role) []Resource {
	out := []Resource{}
	for _, resource := range Resources {
		if len(m.lookup(role, resource)) > 0 {
			out = append(out, resource)
		}
	}
	return out
}

// Row is one resource line of the permission table shown on the settings
// screen.
type Row struct {
	Resource Resource              `json:"resource"`
	Label    string                `json:"label"`
	Grants   map[Role][]Permission `json:"grants"`
}

// Rows renders the matrix as one row per resource.
func (m *Matrix) Rows() []Row {
	rows := make([]Row, 0, len(Resources))
	for _, resource := range Resources {
		grants := make(map[Role][]Permission, len(Roles))
		for _, role := range Roles {
			grants[role] = m.ResourcePermissions(role, resource)
		}
		rows = append(rows, Row{Resource: resource, Label: resource.Label(), Grants: grants})
	}
	return rows
}
