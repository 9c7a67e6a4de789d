package jwtcodec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// errNotNumeric marks a temporal claim that is present but not a number
var errNotNumeric = errors.New("temporal claim is not numeric")

// validateTemporal checks exp and then nbf against the codec clock. It
// returns the first failing reason, or "" when both pass or are absent.
// A null claim counts as absent; any other non-numeric value fails.
func (c *Codec) validateTemporal(claims *Map) Reason {
	validator := jwt.NewValidator(
		jwt.WithTimeFunc(c.now),
		jwt.WithLeeway(c.leeway),
	)

	exp, err := claimDate(claims, "exp")
	if err != nil {
		return ReasonExpired
	}
	if exp != nil {
		if err := validator.Validate(jwt.RegisteredClaims{ExpiresAt: exp}); err != nil {
			return ReasonExpired
		}
	}

	nbf, err := claimDate(claims, "nbf")
	if err != nil {
		return ReasonNotBefore
	}
	if nbf != nil {
		if err := validator.Validate(jwt.RegisteredClaims{NotBefore: nbf}); err != nil {
			return ReasonNotBefore
		}
	}

	return ""
}

// claimDate converts a numeric claim into a NumericDate without dropping
// the fractional second. It returns nil for an absent or null claim.
func claimDate(claims *Map, name string) (*jwt.NumericDate, error) {
	v, ok := claims.Get(name)
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := claims.GetFloat(name)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s: %w", name, errNotNumeric)
	}
	sec, frac := math.Modf(f)
	return &jwt.NumericDate{Time: time.Unix(int64(sec), int64(frac*1e9))}, nil
}

// numericDate reads a temporal claim the same way validateTemporal does
func numericDate(claims *Map, name string) (time.Time, bool) {
	date, err := claimDate(claims, name)
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}
