// Package ghostjwt signs the short-lived tokens required by the Ghost Admin
// API. The admin key is a split "id:secret" credential; the secret half is
// hex-encoded, and the token must carry the key id in the "kid" header.
package ghostjwt

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the Ghost-mandated maximum token lifetime. Tokens are
// regenerated on every call and never cached.
const TokenTTL = 5 * time.Minute

// Key is a parsed Ghost Admin API key.
type Key struct {
	ID     string
	Secret []byte
}

// ParseKey splits and decodes an "id:secret" admin key.
func ParseKey(raw string) (Key, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || id == "" || secret == "" {
		return Key{}, fmt.Errorf("invalid ghost admin key, expected id:secret")
	}
	decoded, err := hex.DecodeString(secret)
	if err != nil {
		return Key{}, fmt.Errorf("ghost admin key secret is not hex: %w", err)
	}
	return Key{ID: id, Secret: decoded}, nil
}

// Sign creates a token valid for TokenTTL, scoped to the admin audience.
func Sign(key Key, now time.Time) (string, error) {
	claims := jwtlib.RegisteredClaims{
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(TokenTTL)),
		Audience:  jwtlib.ClaimStrings{"/admin/"},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	token.Header["kid"] = key.ID
	return token.SignedString(key.Secret)
}
