// Package jwt handles JSON Web Token claim sets defined in RFC 7519.
//
// This package only encodes and decodes the claims set. Signing,
// encryption, algorithm dispatch and key selection are handled by
// the github.com/meridianjose/jose package, which drives a jwt.Claims
// through the JWS/JWE token engine.
package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meridianjose/jose/internal/jsonutils"
)

// Claims is a JWT Claims Set defined in RFC7519.
//
// Temporal claims (ExpirationTime, NotBefore) are decoded verbatim and
// are never rejected here: RFC7519 enforcement of "exp"/"nbf" is a
// policy decision left to the caller.
type Claims struct {
	// RFC7519 Section 4.1.1. "iss" (Issuer) Claim
	Issuer string

	// RFC7519 Section 4.1.2. "sub" (Subject) Claim
	Subject string

	// RFC7519 Section 4.1.3. "aud" (Audience) Claim
	Audience []string

	// RFC7519 Section 4.1.4. "exp" (Expiration Time) Claim
	ExpirationTime time.Time

	// RFC7519 Section 4.1.5. "nbf" (Not Before) Claim
	NotBefore time.Time

	// RFC7519 Section 4.1.6. "iat" (Issued At) Claim
	IssuedAt time.Time

	// RFC7519 Section 4.1.7. "jti" (JWT ID) Claim
	JWTID string

	// Raw is the raw data of JSON-decoded claims.
	// JSON numbers are decoded as json.Number to avoid data loss.
	Raw map[string]any
}

// IsExpired reports whether now is at or after the "exp" claim.
// It returns false if the claim is absent. Callers that want RFC7519
// temporal enforcement call this (and IsTooEarly) explicitly; the
// token engine never calls it on their behalf.
func (c *Claims) IsExpired(now time.Time) bool {
	if c.ExpirationTime.IsZero() {
		return false
	}
	return !now.Before(c.ExpirationTime)
}

// IsTooEarly reports whether now is before the "nbf" claim.
func (c *Claims) IsTooEarly(now time.Time) bool {
	if c.NotBefore.IsZero() {
		return false
	}
	return now.Before(c.NotBefore)
}

// ParseClaims decodes a JWT Claims Set from its JSON payload.
// It never enforces "exp"/"nbf"; see [Claims.IsExpired] and [Claims.IsTooEarly].
func ParseClaims(data []byte) (*Claims, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("jwt: failed to parse claims: %w", err)
	}
	return parseClaimsMap(raw)
}

func parseClaimsMap(raw map[string]any) (*Claims, error) {
	c := &Claims{
		Raw: raw,
	}
	d := jsonutils.NewDecoder("jwt", raw)

	c.Issuer, _ = d.GetString("iss")
	c.Subject, _ = d.GetString("sub")

	// In RFC7519, the "aud" claim is defined as a string or an array of strings.
	if aud, ok := raw["aud"]; ok {
		switch aud := aud.(type) {
		case []any:
			for _, v := range aud {
				s, ok := v.(string)
				if !ok {
					d.SaveError(fmt.Errorf("jwt: invalid type of aud claim: %T", v))
					continue
				}
				c.Audience = append(c.Audience, s)
			}
		case string:
			c.Audience = []string{aud}
		}
	}

	if t, ok := d.GetTime("exp"); ok {
		c.ExpirationTime = t
	}
	if t, ok := d.GetTime("nbf"); ok {
		c.NotBefore = t
	}

	c.IssuedAt, _ = d.GetTime("iat")
	c.JWTID, _ = d.GetString("jti")

	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalClaims encodes claims to its canonical JSON payload.
func MarshalClaims(c *Claims) ([]byte, error) {
	raw := make(map[string]any, len(c.Raw))
	for k, v := range c.Raw {
		raw[k] = v
	}
	e := jsonutils.NewEncoder(raw)

	if iss := c.Issuer; iss != "" {
		e.Set("iss", iss)
	}
	if sub := c.Subject; sub != "" {
		e.Set("sub", sub)
	}
	if aud := c.Audience; aud != nil {
		if len(aud) == 1 {
			e.Set("aud", aud[0])
		} else {
			e.Set("aud", aud)
		}
	}
	if exp := c.ExpirationTime; !exp.IsZero() {
		e.SetTime("exp", exp)
	}
	if nbf := c.NotBefore; !nbf.IsZero() {
		e.SetTime("nbf", nbf)
	}
	if iat := c.IssuedAt; !iat.IsZero() {
		e.SetTime("iat", iat)
	}
	if jti := c.JWTID; jti != "" {
		e.Set("jti", jti)
	}

	if err := e.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(e.Data())
}
