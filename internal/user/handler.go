package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/auth"
	"github.com/gymmatch/manager-api/internal/rbac"
	"github.com/gymmatch/manager-api/internal/utils"
)

// Handler serves the dashboard account endpoints.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Logger     *slog.Logger

	validate *validator.Validate
	// issueTokens and revokeSessions default to the auth package.
	issueTokens    func(w http.ResponseWriter, userID uint, role rbac.Role) error
	revokeSessions func(userID uint) error
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Logger:     logger.With("module", "user"),
		validate:   validator.New(),
		issueTokens: func(w http.ResponseWriter, userID uint, role rbac.Role) error {
			return auth.IssueTokensOnLogin(db, w, userID, role)
		},
		revokeSessions: func(userID uint) error {
			return auth.RevokeUser(db, userID)
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.Repository.FindByEmail(r.Context(), h.DB, req.Email)
	if err != nil || !utils.CheckPassword(u.PasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !u.Active() {
		http.Error(w, "account is inactive", http.StatusForbidden)
		return
	}

	if err := h.Repository.TouchLastLogin(r.Context(), h.DB, u.ID, time.Now()); err != nil {
		h.Logger.WarnContext(r.Context(), "could not record last login", "user_id", u.ID, "error", err)
	}
	if err := h.issueTokens(w, u.ID, u.Role); err != nil {
		h.Logger.ErrorContext(r.Context(), "issue tokens", "user_id", u.ID, "error", err)
		http.Error(w, "could not issue tokens", http.StatusInternalServerError)
		return
	}
	h.Logger.InfoContext(r.Context(), "login", "user_id", u.ID, "role", u.Role)
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repository.List(r.Context(), h.DB)
	if err != nil {
		http.Error(w, "could not list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Only owners may create other owners.
	caller, _ := auth.IdentityFrom(r.Context())
	if req.Role == rbac.RoleOwner && caller.Role != rbac.RoleOwner {
		http.Error(w, "only owners can create owner accounts", http.StatusForbidden)
		return
	}

	password, temporary := req.Password, ""
	if password == "" {
		generated, err := utils.GenerateTemporaryPassword()
		if err != nil {
			http.Error(w, "could not generate password", http.StatusInternalServerError)
			return
		}
		password, temporary = generated, generated
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		http.Error(w, "could not process password", http.StatusInternalServerError)
		return
	}

	u := User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       StatusActive,
	}
	if err := h.Repository.Create(r.Context(), h.DB, &u); err != nil {
		h.Logger.ErrorContext(r.Context(), "create user", "email", req.Email, "error", err)
		http.Error(w, "could not save user", http.StatusInternalServerError)
		return
	}
	h.Logger.InfoContext(r.Context(), "user created", "user_id", u.ID, "role", u.Role, "by", caller.Subject)
	writeJSON(w, http.StatusCreated, CreateUserResponse{User: u, TemporaryPassword: temporary})
}

// ChangeRole handles PATCH /users/{id}/role. Live sessions of the target
// are revoked so the new role applies on next login.
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	newRole, err := rbac.ParseRole(string(req.Role))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	target, err := h.Repository.FindByID(r.Context(), h.DB, uint(id))
	if errors.Is(err, ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not load user", http.StatusInternalServerError)
		return
	}

	if check := rbac.CanPromoteToRole(target.Role, newRole, caller.Role); !check.Granted {
		http.Error(w, check.Reason, http.StatusForbidden)
		return
	}

	if err := h.Repository.UpdateRole(r.Context(), h.DB, target.ID, newRole); err != nil {
		http.Error(w, "could not update role", http.StatusInternalServerError)
		return
	}
	if err := h.revokeSessions(target.ID); err != nil {
		h.Logger.WarnContext(r.Context(), "could not revoke sessions", "user_id", target.ID, "error", err)
	}
	h.Logger.InfoContext(r.Context(), "role changed",
		"user_id", target.ID, "from", target.Role, "to", newRole, "by", caller.Subject)

	target.Role = newRole
	writeJSON(w, http.StatusOK, target)
}

// targetFor parses {id}, loads the account and refuses changes to the
// caller's own account or to an owner account.
func (h *Handler) targetFor(w http.ResponseWriter, r *http.Request) (*User, auth.Identity, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, auth.Identity{}, false
	}
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return nil, auth.Identity{}, false
	}
	target, err := h.Repository.FindByID(r.Context(), h.DB, uint(id))
	if errors.Is(err, ErrUserNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return nil, caller, false
	}
	if err != nil {
		http.Error(w, "could not load user", http.StatusInternalServerError)
		return nil, caller, false
	}
	if self, ok := caller.UserID(); ok && self == target.ID {
		http.Error(w, "cannot change your own account here", http.StatusForbidden)
		return nil, caller, false
	}
	return target, caller, true
}

// Update handles PATCH /users/{id}. Deactivating an account revokes its
// sessions.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, caller, ok := h.targetFor(w, r)
	if !ok {
		return
	}

	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = *req.Name
		target.Name = *req.Name
	}
	if req.Email != nil {
		changes["email"] = *req.Email
		target.Email = *req.Email
	}
	deactivated := false
	if req.Status != nil && *req.Status != target.Status {
		if target.Role == rbac.RoleOwner && *req.Status == StatusInactive {
			http.Error(w, "owner accounts cannot be deactivated", http.StatusForbidden)
			return
		}
		changes["status"] = *req.Status
		deactivated = *req.Status == StatusInactive
		target.Status = *req.Status
	}
	if len(changes) == 0 {
		writeJSON(w, http.StatusOK, target)
		return
	}

	if err := h.Repository.Update(r.Context(), h.DB, target.ID, changes); err != nil {
		h.Logger.ErrorContext(r.Context(), "update user", "user_id", target.ID, "error", err)
		http.Error(w, "could not update user", http.StatusInternalServerError)
		return
	}
	if deactivated {
		if err := h.revokeSessions(target.ID); err != nil {
			h.Logger.WarnContext(r.Context(), "could not revoke sessions", "user_id", target.ID, "error", err)
		}
	}
	h.Logger.InfoContext(r.Context(), "user updated", "user_id", target.ID, "status", target.Status, "by", caller.Subject)
	writeJSON(w, http.StatusOK, target)
}

// Delete handles DELETE /users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	target, caller, ok := h.targetFor(w, r)
	if !ok {
		return
	}
	if target.Role == rbac.RoleOwner {
		http.Error(w, "owner accounts cannot be deleted", http.StatusForbidden)
		return
	}
	if err := h.Repository.Delete(r.Context(), h.DB, target.ID); err != nil {
		h.Logger.ErrorContext(r.Context(), "delete user", "user_id", target.ID, "error", err)
		http.Error(w, "could not delete user", http.StatusInternalServerError)
		return
	}
	if err := h.revokeSessions(target.ID); err != nil {
		h.Logger.WarnContext(r.Context(), "could not revoke sessions", "user_id", target.ID, "error", err)
	}
	h.Logger.InfoContext(r.Context(), "user deleted", "user_id", target.ID, "by", caller.Subject)
	w.WriteHeader(http.StatusNoContent)
}

// AccountActive reports whether userID may still hold a session. Deleted
// and inactive accounts yield auth.ErrAccountDisabled.
func (h *Handler) AccountActive(ctx context.Context, userID uint) error {
	u, err := h.Repository.FindByID(ctx, h.DB, userID)
	if errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("user %d: %w", userID, auth.ErrAccountDisabled)
	}
	if err != nil {
		return err
	}
	if !u.Active() {
		return fmt.Errorf("user %d is %s: %w", userID, u.Status, auth.ErrAccountDisabled)
	}
	return nil
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	resp := MeResponse{
		Subject:   caller.Subject,
		Email:     caller.Email,
		Role:      caller.Role,
		RoleLabel: caller.Role.Label(),
	}
	if uid, ok := caller.UserID(); ok {
		if u, err := h.Repository.FindByID(r.Context(), h.DB, uid); err == nil {
			resp.User = u
			resp.Email = u.Email
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
