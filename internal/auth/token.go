package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gymmatch/manager-api/internal/rbac"
)

// Claims of the dashboard access token.
type Claims struct {
	UserID uint      `json:"userId"`
	Role   rbac.Role `json:"role"`
	jwt.RegisteredClaims
}

// AccessTTL is the lifetime of an access token.
const AccessTTL = 15 * time.Minute

// GenerateAccessToken signs an RS256 token with kid, iss, aud, iat, nbf and jti.
func GenerateAccessToken(userID uint, role rbac.Role) (string, error) {
	if err := mustInitKeys(); err != nil {
		return "", fmt.Errorf("keys init: %w", err)
	}
	priv := getPriv()
	if priv == nil {
		return "", errors.New("private key not loaded (check AUTH_RSA_PRIVATE_PATH and file permissions)")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    getIssuer(),
			Audience:  []string{getAudience()},
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        uuid.NewString(),
		},
	}

	tok := jwt.NewWithClaims(signMethod(), claims)
	tok.Header["kid"] = getKID()
	return tok.SignedString(priv)
}

// ParseAndValidate checks signature, issuer, audience and expiry.
func ParseAndValidate(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(getIssuer()),
		jwt.WithAudience(getAudience()),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		k, _ := t.Header["kid"].(string)
		if k == "" {
			return nil, errors.New("missing kid")
		}
		pub, ok := getPub(k)
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return pub, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}

	c, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	if !c.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", c.Role)
	}
	return c, nil
}
