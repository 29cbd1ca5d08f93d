package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the shop API puts in its bearer tokens.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Name is the best display name the claims carry.
func (c *Claims) Name() string {
	switch {
	case c.Username != "":
		return c.Username
	case c.Email != "":
		return c.Email
	default:
		return c.Subject
	}
}

// Validator decodes tokens locally. Signatures are not checked: the shop
// API is the authority on that, the client only needs the claims.
type Validator struct {
	now    func() time.Time
	parser *jwt.Parser
}

// NewValidator uses now as its clock, or time.Now when nil.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		now:    now,
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

// Decode returns the token's claims.
func (v *Validator) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsExpired reports whether the token is unusable: undecodable, missing an
// expiry, or at or past its expiry.
func (v *Validator) IsExpired(token string) bool {
	claims, err := v.Decode(token)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !v.now().Before(claims.ExpiresAt.Time)
}
