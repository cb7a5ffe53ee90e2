package jose

import (
	"time"

	"github.com/pkg/errors"

	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/jwk"
	"github.com/meridianjose/jose/jwt"
)

// JWTValidation constrains which claims VerifyJWT enforces beyond the
// cryptographic check Consume already performs. The zero value
// checks "nbf"/"exp" against the current time and applies no issuer
// or audience check.
type JWTValidation struct {
	// Now is used for exp/nbf comparison. The zero value means
	// time.Now.
	Now time.Time

	// Issuer, if set, must equal the token's "iss" claim exactly.
	Issuer string

	// Audience, if set, must appear in the token's "aud" claim.
	Audience string
}

// SignJWT encodes claims and signs them into a JWS in Compact
// Serialization, auto-filling "iat" with the current time if absent.
func SignJWT(claims *jwt.Claims, alg jwa.SignatureAlgorithm, key *jwk.Key) ([]byte, error) {
	const op = "jose: sign jwt"
	c := *claims
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now()
	}
	payload, err := jwt.MarshalClaims(&c)
	if err != nil {
		return nil, newError(KindInvalidData, op, err)
	}
	return Sign(payload, alg, key, SignOptions{Type: "JWT"})
}

// VerifyJWT consumes a JWS-protected JWT, then applies the temporal
// and identity checks described by v. A token that verifies
// cryptographically but fails exp/nbf is reported as [KindTooLate] or
// [KindTooEarly]; one that fails an issuer/audience check is reported
// as [KindValidationFailed].
func VerifyJWT(data []byte, keys *jwk.Set, opts ConsumeOptions, v JWTValidation) (*jwt.Claims, error) {
	const op = "jose: verify jwt"
	result, err := Consume(data, keys, opts)
	if err != nil {
		return nil, err
	}

	claims, err := jwt.ParseClaims(result.Payload)
	if err != nil {
		return nil, newError(KindInvalidData, op, err)
	}

	now := v.Now
	if now.IsZero() {
		now = time.Now()
	}
	if claims.IsTooEarly(now) {
		return nil, newError(KindTooEarly, op, errors.New("jose: token is not valid yet (nbf)"))
	}
	if claims.IsExpired(now) {
		return nil, newError(KindTooLate, op, errors.New("jose: token has expired (exp)"))
	}
	if v.Issuer != "" && claims.Issuer != v.Issuer {
		return nil, newError(KindValidationFailed, op, errors.Errorf("jose: unexpected issuer %q", claims.Issuer))
	}
	if v.Audience != "" && !containsString(claims.Audience, v.Audience) {
		return nil, newError(KindValidationFailed, op, errors.Errorf("jose: audience %q not accepted", v.Audience))
	}

	return claims, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
