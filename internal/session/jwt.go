package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ParseExpiry reads the exp claim of a JWT access token without verifying its signature.
//
// The client cannot verify backend signatures; the value is only used to show how long a token lives.
// Opaque or malformed tokens yield the zero time.
func ParseExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
