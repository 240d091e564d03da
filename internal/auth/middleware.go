package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gymmatch/manager-api/internal/rbac"
)

type ctxKey string

const identityKey ctxKey = "identity"

type Source string

const (
	SourceDashboard Source = "dashboard"
	SourceFirebase  Source = "firebase"
)

// Identity is the authenticated caller.
type Identity struct {
	Subject string    `json:"subject"`
	Email   string    `json:"email,omitempty"`
	Role    rbac.Role `json:"role"`
	Source  Source    `json:"source"`
}

// UserID returns the dashboard user id of the caller, if it has one.
func (i Identity) UserID() (uint, bool) {
	if i.Source != SourceDashboard {
		return 0, false
	}
	id, err := strconv.ParseUint(i.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller stored by the middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Middleware authenticates bearer tokens. Dashboard access tokens are tried
// first, then Firebase ID tokens when firebase is not nil.
func Middleware(firebase *FirebaseVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(h, "Bearer ")

			claims, err := ParseAndValidate(raw)
			if err == nil {
				id := Identity{Subject: claims.Subject, Role: claims.Role, Source: SourceDashboard}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
			if firebase != nil {
				id, ferr := firebase.Verify(raw)
				if ferr == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
				err = ferr
			}
			logger.DebugContext(r.Context(), "token rejected", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
		})
	}
}

// RequirePermission lets the request through only when the caller's role
// holds permission on resource in m.
func RequirePermission(m *rbac.Matrix, resource rbac.Resource, permission rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if check := m.CheckPermission(id.Role, resource, permission); !check.Granted {
				http.Error(w, check.Reason, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinimumRole lets the request through when the caller ranks at or
// above minimum.
func RequireMinimumRole(minimum rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if !rbac.MeetsMinimumRole(id.Role, minimum) {
				http.Error(w, "forbidden ("+string(minimum)+" or above only)", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
