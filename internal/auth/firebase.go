package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gymmatch/manager-api/internal/rbac"
)

// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens.
const FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// FirebaseClaims are the ID token claims used here. The role is a custom
// claim set by the gym owner's admin tooling.
type FirebaseClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// FirebaseVerifier validates ID tokens issued by Firebase Auth for one
// project.
type FirebaseVerifier struct {
	projectID string
	keyfunc   jwt.Keyfunc
}

// NewFirebaseVerifier verifies tokens with keys from keyfunc.
func NewFirebaseVerifier(projectID string, keyfunc jwt.Keyfunc) *FirebaseVerifier {
	return &FirebaseVerifier{projectID: projectID, keyfunc: keyfunc}
}

// NewRemoteFirebaseVerifier fetches and periodically refreshes Google's
// JWKS. Call the returned stop function on shutdown.
func NewRemoteFirebaseVerifier(projectID string, logger *slog.Logger) (*FirebaseVerifier, func(), error) {
	jwks, err := keyfunc.Get(FirebaseJWKSURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			logger.Warn("firebase jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch firebase jwks: %w", err)
	}
	return NewFirebaseVerifier(projectID, jwks.Keyfunc), jwks.EndBackground, nil
}

// Verify returns the identity carried by a Firebase ID token.
func (v *FirebaseVerifier) Verify(raw string) (Identity, error) {
	var claims FirebaseClaims
	token, err := jwt.ParseWithClaims(raw, &claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid firebase token")
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("firebase token without subject")
	}
	role, err := rbac.ParseRole(claims.Role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Subject: claims.Subject, Email: claims.Email, Role: role, Source: SourceFirebase}, nil
}
