package ghostjwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	key, err := ParseKey("6410a34b1d:deadbeef00")
	require.NoError(t, err)
	assert.Equal(t, "6410a34b1d", key.ID)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x00}, key.Secret)
}

func TestParseKeyRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "nocolon", ":secret", "id:", "id:nothex"} {
		_, err := ParseKey(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestSign(t *testing.T) {
	key, err := ParseKey("abc123:deadbeef")
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	signed, err := Sign(key, now)
	require.NoError(t, err)

	claims := &jwtlib.RegisteredClaims{}
	token, err := jwtlib.ParseWithClaims(signed, claims, func(tok *jwtlib.Token) (interface{}, error) {
		return key.Secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return now }), jwtlib.WithAudience("/admin/"))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "abc123", token.Header["kid"])
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(TokenTTL).Unix(), claims.ExpiresAt.Unix())
}
