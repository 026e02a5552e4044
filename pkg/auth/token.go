package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether raw parses as a JWT whose exp claim has
// elapsed. The upstream API is the authority on token validity; this is
// only a fast local check used when restoring a persisted session, so
// tokens that are not JWTs or carry no exp claim count as still usable.
func TokenExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
