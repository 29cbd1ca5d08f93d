package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExpired(t *testing.T) {
	v := NewValidator(fixedClock)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@b.c"}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future", signToken(t, "a@b.c", testNow.Add(time.Hour)), false},
		{"past", signToken(t, "a@b.c", testNow.Add(-time.Hour)), true},
		{"exactly now", signToken(t, "a@b.c", testNow), true},
		{"no exp claim", noExp, true},
		{"empty", "", true},
		{"garbage", "not-a-token", true},
		{"bad payload", "eyJhbGciOiJIUzI1NiJ9.@@@.sig", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsExpired(tt.token))
		})
	}
}

func TestDecodeIgnoresSignature(t *testing.T) {
	v := NewValidator(fixedClock)
	tok := signToken(t, "ana@shop.local", testNow.Add(time.Hour))

	claims, err := v.Decode(tok + "tampered")
	require.NoError(t, err)
	assert.Equal(t, "ana@shop.local", claims.Email)
	assert.Equal(t, "ana", claims.Name())
	assert.Equal(t, "u-1", claims.Subject)
}

func TestClaimsName(t *testing.T) {
	assert.Equal(t, "e@x", (&Claims{Email: "e@x"}).Name())
	assert.Equal(t, "sub", (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub"}}).Name())
}
