package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var (
	keysMu     sync.RWMutex
	keysLoaded bool

	privKey   *rsa.PrivateKey
	pubKeys   = map[string]*rsa.PublicKey{} // kid -> pub
	activeKID string
	issuer    string
	audience  string
)

// mustInitKeys loads the signing key from AUTH_RSA_PRIVATE_PATH on first
// use.
func mustInitKeys() error {
	keysMu.Lock()
	defer keysMu.Unlock()
	if keysLoaded {
		return nil
	}

	path := os.Getenv("AUTH_RSA_PRIVATE_PATH")
	kid := os.Getenv("AUTH_KID")
	iss := os.Getenv("AUTH_ISSUER")
	aud := os.Getenv("AUTH_AUDIENCE")
	if path == "" || kid == "" || iss == "" || aud == "" {
		return errors.New("missing envs: AUTH_RSA_PRIVATE_PATH/AUTH_KID/AUTH_ISSUER/AUTH_AUDIENCE")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	pk, err := parsePrivateKey(b)
	if err != nil {
		return err
	}
	setKeysLocked(pk, kid, iss, aud)
	return nil
}

// InitKeys loads the signing key eagerly so a misconfiguration fails at
// startup instead of on the first login.
func InitKeys() error { return mustInitKeys() }

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("pem decode private key failed")
	}

	// PKCS#1 or PKCS#8
	var pk any
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		pk = k
	} else if k8, err2 := x509.ParsePKCS8PrivateKey(block.Bytes); err2 == nil {
		pk = k8
	} else {
		return nil, fmt.Errorf("parse private key: %v / %v", err, err2)
	}

	rsaKey, ok := pk.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rsaKey, nil
}

// UseKey installs a signing key directly instead of reading it from the
// environment.
func UseKey(pk *rsa.PrivateKey, kid, iss, aud string) {
	keysMu.Lock()
	defer keysMu.Unlock()
	setKeysLocked(pk, kid, iss, aud)
}

func setKeysLocked(pk *rsa.PrivateKey, kid, iss, aud string) {
	privKey = pk
	activeKID = kid
	issuer = iss
	audience = aud
	pubKeys[kid] = &pk.PublicKey
	keysLoaded = true
}

func getPriv() *rsa.PrivateKey {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return privKey
}

func getPub(kid string) (*rsa.PublicKey, bool) {
	keysMu.RLock()
	defer keysMu.RUnlock()
	p, ok := pubKeys[kid]
	return p, ok
}

func getKID() string {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return activeKID
}

func getIssuer() string {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return issuer
}

func getAudience() string {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return audience
}

func signMethod() jwt.SigningMethod { return jwt.SigningMethodRS256 }
