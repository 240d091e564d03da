package auth

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"sort"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSHandler serves GET /.well-known/jwks.json with every known public
// key, so tokens signed before a key rotation still verify elsewhere.
func JWKSHandler(w http.ResponseWriter, r *http.Request) {
	if err := mustInitKeys(); err != nil {
		http.Error(w, "jwks unavailable", http.StatusInternalServerError)
		return
	}

	keysMu.RLock()
	keys := make([]jwk, 0, len(pubKeys))
	for kid, pub := range pubKeys {
		keys = append(keys, jwk{
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	keysMu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].Kid < keys[j].Kid })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Keys []jwk `json:"keys"`
	}{Keys: keys})
}
