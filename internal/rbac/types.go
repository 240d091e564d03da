// Package rbac answers role based permission questions against an
// immutable role x resource permission matrix.
package rbac

type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleTrainer Role = "trainer"
	RoleStaff   Role = "staff"
)

// Roles lists every role, most privileged first.
var Roles = []Role{RoleOwner, RoleManager, RoleTrainer, RoleStaff}

type Resource string

const (
	ResourceMembers     Resource = "members"
	ResourceSessions    Resource = "sessions"
	ResourceRevenue     Resource = "revenue"
	ResourceAnalytics   Resource = "analytics"
	ResourceExport      Resource = "export"
	ResourceAccounting  Resource = "accounting"
	ResourceSettings    Resource = "settings"
	ResourceUsers       Resource = "users"
	ResourcePermissions Resource = "permissions"
)

// Resources lists every resource in declaration order.
var Resources = []Resource{
	ResourceMembers,
	ResourceSessions,
	ResourceRevenue,
	ResourceAnalytics,
	ResourceExport,
	ResourceAccounting,
	ResourceSettings,
	ResourceUsers,
	ResourcePermissions,
}

type Permission string

const (
	PermRead   Permission = "read"
	PermCreate Permission = "create"
	PermUpdate Permission = "update"
	PermDelete Permission = "delete"
	PermExport Permission = "export"
	PermManage Permission = "manage"
)

// Check is the outcome of a permission check. Reason is set on denial.
type Check struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}

var roleLabels = map[Role]string{
	RoleOwner:   "オーナー",
	RoleManager: "マネージャー",
	RoleTrainer: "トレーナー",
	RoleStaff:   "スタッフ",
}

var roleDescriptions = map[Role]string{
	RoleOwner:   "ジムオーナー - 全機能へのフルアクセス権限",
	RoleManager: "マネージャー - 経営管理と日常業務の実行権限",
	RoleTrainer: "トレーナー - セッション管理と会員情報閲覧権限",
	RoleStaff:   "スタッフ - 基本的な閲覧権限のみ",
}

var resourceLabels = map[Resource]string{
	ResourceMembers:     "会員管理",
	ResourceSessions:    "セッション管理",
	ResourceRevenue:     "売上分析",
	ResourceAnalytics:   "アナリティクス",
	ResourceExport:      "データエクスポート",
	ResourceAccounting:  "会計連携",
	ResourceSettings:    "設定管理",
	ResourceUsers:       "ユーザー管理",
	ResourcePermissions: "権限管理",
}

var permissionLabels = map[Permission]string{
	PermRead:   "閲覧",
	PermCreate: "作成",
	PermUpdate: "更新",
	PermDelete: "削除",
	PermExport: "エクスポート",
	PermManage: "完全管理",
}

func (r Role) Label() string       { return roleLabels[r] }
func (r Role) Description() string { return roleDescriptions[r] }
func (r Resource) Label() string   { return resourceLabels[r] }
func (p Permission) Label() string { return permissionLabels[p] }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}
