package permissions

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/gymmatch/manager-api/internal/auth"
	"github.com/gymmatch/manager-api/internal/rbac"
)

type RoleInfo struct {
	Role        rbac.Role `json:"role"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
}

type ResourceAccess struct {
	Resource    rbac.Resource     `json:"resource"`
	Label       string            `json:"label"`
	Permissions []rbac.Permission `json:"permissions"`
	FullAccess  bool              `json:"fullAccess"`
	ReadOnly    bool              `json:"readOnly"`
}

type MeResponse struct {
	Role      rbac.Role        `json:"role"`
	Admin     bool             `json:"admin"`
	SuperUser bool             `json:"superUser"`
	Resources []ResourceAccess `json:"resources"`
}

type CheckRequest struct {
	// Role defaults to the caller's role. Checking another role needs
	// permissions:read.
	Role       rbac.Role       `json:"role,omitempty"`
	Resource   rbac.Resource   `json:"resource" validate:"required"`
	Permission rbac.Permission `json:"permission" validate:"required"`
}

// Handler serves the permission matrix to the dashboard.
type Handler struct {
	Matrix   *rbac.Matrix
	validate *validator.Validate
}

func NewHandler(m *rbac.Matrix) *Handler {
	return &Handler{Matrix: m, validate: validator.New()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// MatrixTable handles GET /permissions/matrix.
func (h *Handler) MatrixTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Matrix.Rows())
}

// Roles handles GET /permissions/roles.
func (h *Handler) Roles(w http.ResponseWriter, r *http.Request) {
	out := make([]RoleInfo, 0, len(rbac.Roles))
	for _, role := range rbac.Roles {
		out = append(out, RoleInfo{Role: role, Label: role.Label(), Description: role.Description(), Level: rbac.Level(role)})
	}
	writeJSON(w, http.StatusOK, out)
}

// Me handles GET /permissions/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	resp := MeResponse{
		Role:      id.Role,
		Admin:     rbac.IsAdmin(id.Role),
		SuperUser: rbac.IsSuperUser(id.Role),
		Resources: []ResourceAccess{},
	}
	for _, res := range h.Matrix.AccessibleResources(id.Role) {
		resp.Resources = append(resp.Resources, ResourceAccess{
			Resource:    res,
			Label:       res.Label(),
			Permissions: h.Matrix.ResourcePermissions(id.Role, res),
			FullAccess:  h.Matrix.HasFullAccess(id.Role, res),
			ReadOnly:    h.Matrix.IsReadOnly(id.Role, res),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Check handles POST /permissions/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	role := id.Role
	if req.Role != "" && req.Role != id.Role {
		if !h.Matrix.HasPermission(id.Role, rbac.ResourcePermissions, rbac.PermRead) {
			http.Error(w, "checking another role requires permissions:read", http.StatusForbidden)
			return
		}
		role = req.Role
	}
	writeJSON(w, http.StatusOK, h.Matrix.CheckPermission(role, req.Resource, req.Permission))
}
