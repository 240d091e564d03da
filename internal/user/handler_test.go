package user

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/auth"
	"github.com/gymmatch/manager-api/internal/rbac"
	"github.com/gymmatch/manager-api/internal/utils"
)

type fakeRepo struct {
	users   map[uint]*User
	nextID  uint
	touched []uint
}

func newFakeRepo(users ...User) *fakeRepo {
	f := &fakeRepo{users: map[uint]*User{}, nextID: 100}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeRepo) FindByEmail(_ context.Context, _ *gorm.DB, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, _ *gorm.DB, id uint) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) List(context.Context, *gorm.DB) ([]User, error) {
	var out []User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, _ *gorm.DB, u *User) error {
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateRole(_ context.Context, _ *gorm.DB, id uint, role rbac.Role) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeRepo) TouchLastLogin(_ context.Context, _ *gorm.DB, id uint, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, _ *gorm.DB, id uint, changes map[string]any) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if v, ok := changes["name"].(string); ok {
		u.Name = v
	}
	if v, ok := changes["email"].(string); ok {
		u.Email = v
	}
	if v, ok := changes["status"].(Status); ok {
		u.Status = v
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	if _, ok := f.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func newTestHandler(repo *fakeRepo) (*Handler, *[]uint) {
	var revoked []uint
	h := &Handler{
		Repository: repo,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate:   validator.New(),
		issueTokens: func(w http.ResponseWriter, userID uint, role rbac.Role) error {
			w.Header().Set("Content-Type", "application/json")
			return json.NewEncoder(w).Encode(map[string]any{"userId": userID, "role": role})
		},
		revokeSessions: func(userID uint) error {
			revoked = append(revoked, userID)
			return nil
		},
	}
	return h, &revoked
}

func asCaller(r *http.Request, role rbac.Role) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{Subject: "1", Role: role, Source: auth.SourceDashboard}))
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := utils.HashPassword(pw)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestLogin(t *testing.T) {
	hash := mustHash(t, "correct-horse")
	repo := newFakeRepo(
		User{Model: gorm.Model{ID: 1}, Email: "owner@gym.test", PasswordHash: hash, Role: rbac.RoleOwner, Status: StatusActive},
		User{Model: gorm.Model{ID: 2}, Email: "gone@gym.test", PasswordHash: hash, Role: rbac.RoleStaff, Status: StatusInactive},
	)
	h, _ := newTestHandler(repo)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing password", `{"email":"owner@gym.test"}`, http.StatusBadRequest},
		{"unknown email", `{"email":"nobody@gym.test","password":"x"}`, http.StatusUnauthorized},
		{"wrong password", `{"email":"owner@gym.test","password":"nope"}`, http.StatusUnauthorized},
		{"inactive", `{"email":"gone@gym.test","password":"correct-horse"}`, http.StatusForbidden},
		{"ok", `{"email":"owner@gym.test","password":"correct-horse"}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
	if len(repo.touched) != 1 || repo.touched[0] != 1 {
		t.Fatalf("expected last login recorded once for user 1, got %v", repo.touched)
	}
}

func TestCreateGeneratesTemporaryPassword(t *testing.T) {
	repo := newFakeRepo()
	h, _ := newTestHandler(repo)

	body := `{"name":"Sato","email":"sato@gym.test","role":"trainer"}`
	req := asCaller(httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)), rbac.RoleOwner)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp CreateUserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.TemporaryPassword) != 12 {
		t.Fatalf("expected a 12 char temporary password, got %q", resp.TemporaryPassword)
	}
	stored := repo.users[resp.User.ID]
	if !utils.CheckPassword(stored.PasswordHash, resp.TemporaryPassword) {
		t.Fatalf("stored hash does not match temporary password")
	}
	if stored.Status != StatusActive || stored.Role != rbac.RoleTrainer {
		t.Fatalf("unexpected stored user %+v", stored)
	}
}

func TestCreateRejects(t *testing.T) {
	h, _ := newTestHandler(newFakeRepo())
	cases := []struct {
		name   string
		caller rbac.Role
		body   string
		want   int
	}{
		{"unknown role", rbac.RoleOwner, `{"name":"A","email":"a@gym.test","role":"janitor"}`, http.StatusBadRequest},
		{"bad email", rbac.RoleOwner, `{"name":"A","email":"nope","role":"staff"}`, http.StatusBadRequest},
		{"short password", rbac.RoleOwner, `{"name":"A","email":"a@gym.test","role":"staff","password":"123"}`, http.StatusBadRequest},
		{"manager creating owner", rbac.RoleManager, `{"name":"A","email":"a@gym.test","role":"owner"}`, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, asCaller(httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tc.body)), tc.caller))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestChangeRole(t *testing.T) {
	cases := []struct {
		name        string
		caller      rbac.Role
		targetID    string
		body        string
		want        int
		wantRevoked bool
	}{
		{"owner promotes trainer", rbac.RoleOwner, "2", `{"role":"manager"}`, http.StatusOK, true},
		{"manager cannot change roles", rbac.RoleManager, "2", `{"role":"manager"}`, http.StatusForbidden, false},
		{"owner role is fixed", rbac.RoleOwner, "1", `{"role":"staff"}`, http.StatusForbidden, false},
		{"no promotion to owner", rbac.RoleOwner, "2", `{"role":"owner"}`, http.StatusForbidden, false},
		{"unknown role", rbac.RoleOwner, "2", `{"role":"janitor"}`, http.StatusBadRequest, false},
		{"unknown user", rbac.RoleOwner, "99", `{"role":"staff"}`, http.StatusNotFound, false},
		{"bad id", rbac.RoleOwner, "abc", `{"role":"staff"}`, http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo(
				User{Model: gorm.Model{ID: 1}, Email: "owner@gym.test", Role: rbac.RoleOwner, Status: StatusActive},
				User{Model: gorm.Model{ID: 2}, Email: "trainer@gym.test", Role: rbac.RoleTrainer, Status: StatusActive},
			)
			h, revoked := newTestHandler(repo)

			req := httptest.NewRequest(http.MethodPatch, "/users/"+tc.targetID+"/role", strings.NewReader(tc.body))
			req = mux.SetURLVars(req, map[string]string{"id": tc.targetID})
			rec := httptest.NewRecorder()
			h.ChangeRole(rec, asCaller(req, tc.caller))

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
			if got := len(*revoked) == 1; got != tc.wantRevoked {
				t.Fatalf("revoked sessions = %v, want revoke %v", *revoked, tc.wantRevoked)
			}
			if tc.want == http.StatusOK && repo.users[2].Role != rbac.RoleManager {
				t.Fatalf("role not persisted: %s", repo.users[2].Role)
			}
		})
	}
}

func TestMe(t *testing.T) {
	repo := newFakeRepo(User{Model: gorm.Model{ID: 1}, Name: "Owner", Email: "owner@gym.test", Role: rbac.RoleOwner})
	h, _ := newTestHandler(repo)

	rec := httptest.NewRecorder()
	h.Me(rec, asCaller(httptest.NewRequest(http.MethodGet, "/users/me", nil), rbac.RoleOwner))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp MeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.User == nil || resp.Email != "owner@gym.test" || resp.RoleLabel != rbac.RoleOwner.Label() {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func staffRepo() *fakeRepo {
	return newFakeRepo(
		User{Model: gorm.Model{ID: 1}, Email: "owner@gym.test", Role: rbac.RoleOwner, Status: StatusActive},
		User{Model: gorm.Model{ID: 2}, Name: "Sato", Email: "sato@gym.test", Role: rbac.RoleTrainer, Status: StatusActive},
		User{Model: gorm.Model{ID: 3}, Email: "second-owner@gym.test", Role: rbac.RoleOwner, Status: StatusActive},
	)
}

func TestUpdate(t *testing.T) {
	cases := []struct {
		name        string
		targetID    string
		body        string
		want        int
		wantRevoked bool
	}{
		{"rename", "2", `{"name":"Sato Ken"}`, http.StatusOK, false},
		{"deactivate", "2", `{"status":"inactive"}`, http.StatusOK, true},
		{"same status", "2", `{"status":"active"}`, http.StatusOK, false},
		{"unknown status", "2", `{"status":"banned"}`, http.StatusBadRequest, false},
		{"empty name", "2", `{"name":""}`, http.StatusBadRequest, false},
		{"bad email", "2", `{"email":"nope"}`, http.StatusBadRequest, false},
		{"own account", "1", `{"status":"inactive"}`, http.StatusForbidden, false},
		{"owner stays active", "3", `{"status":"inactive"}`, http.StatusForbidden, false},
		{"unknown user", "99", `{"name":"X"}`, http.StatusNotFound, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := staffRepo()
			h, revoked := newTestHandler(repo)

			req := httptest.NewRequest(http.MethodPatch, "/users/"+tc.targetID, strings.NewReader(tc.body))
			req = mux.SetURLVars(req, map[string]string{"id": tc.targetID})
			rec := httptest.NewRecorder()
			h.Update(rec, asCaller(req, rbac.RoleOwner))

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
			if got := len(*revoked) == 1; got != tc.wantRevoked {
				t.Fatalf("revoked sessions = %v, want revoke %v", *revoked, tc.wantRevoked)
			}
		})
	}

	repo := staffRepo()
	h, _ := newTestHandler(repo)
	req := httptest.NewRequest(http.MethodPatch, "/users/2", strings.NewReader(`{"name":"Sato Ken","status":"inactive"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "2"})
	h.Update(httptest.NewRecorder(), asCaller(req, rbac.RoleOwner))
	if u := repo.users[2]; u.Name != "Sato Ken" || u.Status != StatusInactive || u.Email != "sato@gym.test" {
		t.Fatalf("unexpected stored user %+v", u)
	}
}

func TestDelete(t *testing.T) {
	cases := []struct {
		name     string
		targetID string
		want     int
	}{
		{"trainer", "2", http.StatusNoContent},
		{"own account", "1", http.StatusForbidden},
		{"other owner", "3", http.StatusForbidden},
		{"unknown user", "99", http.StatusNotFound},
		{"bad id", "x", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := staffRepo()
			h, revoked := newTestHandler(repo)

			req := httptest.NewRequest(http.MethodDelete, "/users/"+tc.targetID, nil)
			req = mux.SetURLVars(req, map[string]string{"id": tc.targetID})
			rec := httptest.NewRecorder()
			h.Delete(rec, asCaller(req, rbac.RoleOwner))

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
			deleted := tc.want == http.StatusNoContent
			if _, still := repo.users[2]; deleted == still {
				t.Fatalf("user 2 present = %v after %s", still, tc.name)
			}
			if deleted != (len(*revoked) == 1) {
				t.Fatalf("revoked sessions = %v", *revoked)
			}
		})
	}
}

func TestAccountActive(t *testing.T) {
	repo := newFakeRepo(
		User{Model: gorm.Model{ID: 1}, Role: rbac.RoleOwner, Status: StatusActive},
		User{Model: gorm.Model{ID: 2}, Role: rbac.RoleStaff, Status: StatusInactive},
	)
	h, _ := newTestHandler(repo)
	ctx := context.Background()

	if err := h.AccountActive(ctx, 1); err != nil {
		t.Fatalf("active user rejected: %v", err)
	}
	if err := h.AccountActive(ctx, 2); !errors.Is(err, auth.ErrAccountDisabled) {
		t.Fatalf("inactive user: expected ErrAccountDisabled, got %v", err)
	}
	if err := h.AccountActive(ctx, 42); !errors.Is(err, auth.ErrAccountDisabled) {
		t.Fatalf("deleted user: expected ErrAccountDisabled, got %v", err)
	}
}
