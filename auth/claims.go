package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims parses a bearer token as a JWT without verifying its signature.
// Injected tokens are opaque by contract, but when they happen to be JWTs the
// claims let us recover an expiry or a display identity.
func tokenClaims(token string) (jwt.MapClaims, bool) {
	var claims jwt.MapClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// tokenExpiry recovers the exp claim from a JWT bearer, if any.
func tokenExpiry(token string) (time.Time, bool) {
	claims, ok := tokenClaims(token)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenIdentity extracts a human-readable principal from a JWT bearer:
// upn, then preferred_username, then email, then sub.
func TokenIdentity(token string) (string, bool) {
	claims, ok := tokenClaims(token)
	if !ok {
		return "", false
	}
	for _, key := range []string{"upn", "preferred_username", "email", "sub"} {
		if v, _ := claims[key].(string); v != "" {
			return v, true
		}
	}
	return "", false
}
