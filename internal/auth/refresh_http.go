package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gymmatch/manager-api/internal/rbac"
)

// ErrAccountDisabled is returned by an AccountCheck for deleted or
// inactive users.
var ErrAccountDisabled = errors.New("account disabled")

// AccountCheck reports whether a user may still hold a session.
type AccountCheck func(ctx context.Context, userID uint) error

const (
	RefreshTTL    = 30 * 24 * time.Hour
	RefreshCookie = "rt"
)

func genRaw() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRaw(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

// On http://localhost the cookie must not be Secure; set COOKIE_SECURE=true
// behind HTTPS.
func cookieSecure() bool {
	return os.Getenv("COOKIE_SECURE") == "true"
}

func setRTCookie(w http.ResponseWriter, raw string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     "/auth", // covers /auth/refresh and /auth/logout
		HttpOnly: true,
		Secure:   cookieSecure(),
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func clearRTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   cookieSecure(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func writeTokenResponse(w http.ResponseWriter, access string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(AccessTTL.Seconds()),
	})
}

// IssueTokensOnLogin creates an access token and a refresh token family for
// a user whose credentials were just checked. The refresh token goes into a
// cookie; the access token is written as JSON.
func IssueTokensOnLogin(db *gorm.DB, w http.ResponseWriter, userID uint, role rbac.Role) error {
	access, err := GenerateAccessToken(userID, role)
	if err != nil {
		return err
	}

	raw, err := genRaw()
	if err != nil {
		return err
	}

	rt := RefreshToken{
		UserID:    userID,
		FamilyID:  uuid.NewString(),
		Hash:      hashRaw(raw),
		Role:      string(role),
		ExpiresAt: time.Now().Add(RefreshTTL),
	}
	if err := db.Create(&rt).Error; err != nil {
		return err
	}
	setRTCookie(w, raw, rt.ExpiresAt)
	writeTokenResponse(w, access)
	return nil
}

// RefreshHTTPHandler handles POST /auth/refresh: it revokes the presented
// refresh token and issues a new pair with the same role. When the account
// no longer passes check, all of its tokens are revoked instead.
func RefreshHTTPHandler(db *gorm.DB, check AccountCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(RefreshCookie)
		if err != nil || c.Value == "" {
			http.Error(w, "no refresh", http.StatusUnauthorized)
			return
		}

		var cur RefreshToken
		if err := db.Where("hash = ?", hashRaw(c.Value)).First(&cur).Error; err != nil {
			clearRTCookie(w)
			http.Error(w, "invalid refresh", http.StatusUnauthorized)
			return
		}
		if cur.RevokedAt != nil || time.Now().After(cur.ExpiresAt) {
			clearRTCookie(w)
			http.Error(w, "expired refresh", http.StatusUnauthorized)
			return
		}
		if status, err := accountStatus(r.Context(), check, cur.UserID); err != nil {
			if status == http.StatusUnauthorized {
				_ = RevokeUser(db, cur.UserID)
				clearRTCookie(w)
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		now := time.Now()
		_ = db.Model(&cur).Update("revoked_at", &now).Error

		access, err := GenerateAccessToken(cur.UserID, rbac.Role(cur.Role))
		if err != nil {
			clearRTCookie(w)
			http.Error(w, "error", http.StatusInternalServerError)
			return
		}

		newRaw, err := genRaw()
		if err != nil {
			clearRTCookie(w)
			http.Error(w, "error", http.StatusInternalServerError)
			return
		}
		newRT := RefreshToken{
			UserID:    cur.UserID,
			FamilyID:  cur.FamilyID,
			Hash:      hashRaw(newRaw),
			Role:      cur.Role,
			ExpiresAt: time.Now().Add(RefreshTTL),
		}
		if err := db.Create(&newRT).Error; err != nil {
			clearRTCookie(w)
			http.Error(w, "error", http.StatusInternalServerError)
			return
		}
		setRTCookie(w, newRaw, newRT.ExpiresAt)
		writeTokenResponse(w, access)
	}
}

// LogoutHTTPHandler handles POST /auth/logout.
func LogoutHTTPHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
			now := time.Now()
			_ = db.Model(&RefreshToken{}).Where("hash = ?", hashRaw(c.Value)).Update("revoked_at", &now).Error
		}
		clearRTCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// accountStatus maps an AccountCheck result to the refresh response code.
func accountStatus(ctx context.Context, check AccountCheck, userID uint) (int, error) {
	if check == nil {
		return http.StatusOK, nil
	}
	err := check(ctx, userID)
	switch {
	case err == nil:
		return http.StatusOK, nil
	case errors.Is(err, ErrAccountDisabled):
		return http.StatusUnauthorized, err
	default:
		return http.StatusInternalServerError, err
	}
}

// RevokeUser revokes every live refresh token of a user, used when the
// user's role or status changes or the account is deleted.
func RevokeUser(db *gorm.DB, userID uint) error {
	now := time.Now()
	return db.Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &now).Error
}

// Migrate creates the refresh token table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RefreshToken{})
}
