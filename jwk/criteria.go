package jwk

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/meridianjose/jose/ed448"
	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/x25519"
	"github.com/meridianjose/jose/x448"
)

// Criteria describes the key attributes an algorithm handler requires
// from a candidate key, as used by [Set.Select].
//
// A criteria is keyed by the JWK field name it constrains, with an
// optional prefix that changes how the field is matched:
//
//   - no prefix: the field is required and must equal the given value exactly.
//   - "~name": the field is preferred. If the key carries it, it must
//     match; if the key omits it, the criteria is satisfied anyway.
//   - "@name": the field (itself a set, e.g. key_ops) must contain all
//     of the given values.
//
// Recognized field names are "kty", "crv", "use", "alg" and "key_ops".
type Criteria map[string]any

// ErrKeyNotFound is returned by [Set.Select] when no key in the set
// satisfies the criteria.
var ErrKeyNotFound = fmt.Errorf("jwk: no key satisfies the selection criteria")

// Select picks a key from the set.
//
// If kid is not empty, it is a hard filter: only a key whose "kid"
// equals it is considered, and the criteria are still checked against
// that single candidate. Otherwise every key is scanned in insertion
// order and the first one that satisfies every criterion wins.
func (set *Set) Select(crit Criteria, kid string) (*Key, error) {
	if kid != "" {
		key, found := set.Find(kid)
		if !found {
			return nil, ErrKeyNotFound
		}
		if !matchCriteria(key, crit) {
			return nil, ErrKeyNotFound
		}
		return key, nil
	}
	for _, key := range set.Keys {
		if matchCriteria(key, crit) {
			return key, nil
		}
	}
	return nil, ErrKeyNotFound
}

func matchCriteria(key *Key, crit Criteria) bool {
	for name, want := range crit {
		switch {
		case len(name) > 0 && name[0] == '~':
			if !matchPreferred(key, name[1:], want) {
				return false
			}
		case len(name) > 0 && name[0] == '@':
			if !matchIntersecting(key, name[1:], want) {
				return false
			}
		default:
			if !matchExact(key, name, want) {
				return false
			}
		}
	}
	return true
}

func matchPreferred(key *Key, name string, want any) bool {
	got, ok := fieldValue(key, name)
	if !ok {
		// the key doesn't carry the field: unconstrained.
		return true
	}
	return valueEqual(got, want)
}

func matchExact(key *Key, name string, want any) bool {
	got, ok := fieldValue(key, name)
	if !ok {
		return false
	}
	return valueEqual(got, want)
}

func matchIntersecting(key *Key, name string, want any) bool {
	haveSet, ok := fieldSet(key, name)
	if !ok {
		return false
	}
	for _, w := range toStringSlice(want) {
		if _, ok := haveSet[w]; !ok {
			return false
		}
	}
	return true
}

// fieldValue returns the scalar value of the named JWK field, and
// whether the key carries that field at all.
func fieldValue(key *Key, name string) (string, bool) {
	switch name {
	case "kty":
		if key.kty == "" {
			return "", false
		}
		return key.kty.String(), true
	case "use":
		if key.use == "" {
			return "", false
		}
		return key.use.String(), true
	case "alg":
		if key.alg == "" {
			return "", false
		}
		return key.alg.String(), true
	case "crv":
		crv, ok := keyCurve(key)
		if !ok {
			return "", false
		}
		return crv.String(), true
	case "kid":
		if key.kid == "" {
			return "", false
		}
		return key.kid, true
	default:
		return "", false
	}
}

// fieldSet returns the named field as a membership set, for "@" criteria.
func fieldSet(key *Key, name string) (map[string]struct{}, bool) {
	switch name {
	case "key_ops":
		if len(key.keyOps) == 0 {
			return nil, false
		}
		set := make(map[string]struct{}, len(key.keyOps))
		for _, op := range key.keyOps {
			set[op.String()] = struct{}{}
		}
		return set, true
	default:
		v, ok := fieldValue(key, name)
		if !ok {
			return nil, false
		}
		return map[string]struct{}{v: {}}, true
	}
}

func valueEqual(got string, want any) bool {
	switch want := want.(type) {
	case string:
		return got == want
	case fmt.Stringer:
		return got == want.String()
	default:
		return false
	}
}

func toStringSlice(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// keyCurve derives the elliptic curve of an EC or OKP key from its
// underlying crypto material; JWK doesn't expose "crv" as a Key field
// directly since it is only meaningful for two of the four key types.
func keyCurve(key *Key) (jwa.EllipticCurve, bool) {
	pub := key.pub
	if pub == nil {
		pub = derivePublic(key.priv)
	}
	switch pub := pub.(type) {
	case *ecdsa.PublicKey:
		return curveName(pub.Curve)
	case ed25519.PublicKey:
		return jwa.Ed25519, true
	case x25519.PublicKey:
		return jwa.X25519, true
	case ed448.PublicKey:
		return jwa.Ed448, true
	case x448.PublicKey:
		return jwa.X448, true
	default:
		return "", false
	}
}

func derivePublic(priv any) any {
	switch priv := priv.(type) {
	case *ecdsa.PrivateKey:
		return priv.Public()
	case ed25519.PrivateKey:
		return priv.Public()
	case x25519.PrivateKey:
		return priv.Public()
	case ed448.PrivateKey:
		return priv.Public()
	case x448.PrivateKey:
		return priv.Public()
	case *rsa.PrivateKey:
		return priv.Public()
	default:
		return nil
	}
}
