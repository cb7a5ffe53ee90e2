package jose

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/jwe"
	"github.com/meridianjose/jose/jwk"
	"github.com/meridianjose/jose/jws"
	"github.com/meridianjose/jose/keymanage"
	"github.com/meridianjose/jose/sig"
)

// ErrAlgorithmRejected is returned (classified as [KindTokenParse]) when
// a token's alg is "none" or does not match the caller's expected
// algorithm. Per RFC 7518 Section 3.6, "none" is a distinct hazard
// from a merely-unrecognized algorithm name, since accepting it means
// accepting an unauthenticated token; both cases are treated as a
// structurally unacceptable token rather than as an unsupported one.
var ErrAlgorithmRejected = errors.New("jose: algorithm is \"none\" or does not match what was expected")

// ErrAlgorithmUnknown is returned (classified as [KindUnsupported])
// when a token names an algorithm identifier this package does not
// implement.
var ErrAlgorithmUnknown = errors.New("jose: algorithm is not registered")

// Result is what Consume returns for a token that verified or
// decrypted successfully.
type Result struct {
	// Format is the wire serialization the token was read in.
	Format Format

	// Header is the (merged, for JWE) protected header of the
	// recipient that succeeded.
	Header Header

	// Payload is the verified JWS payload or decrypted JWE plaintext.
	Payload []byte
}

// Header is the subset of JWS/JWE header accessors Consume exposes on
// its Result, independent of which of the two formats produced it.
type Header interface {
	Algorithm() string
	KeyID() string
	Type() string
	ContentType() string
}

type jwsHeaderAdapter struct{ h *jws.Header }

func (a jwsHeaderAdapter) Algorithm() string  { return string(a.h.Algorithm()) }
func (a jwsHeaderAdapter) KeyID() string      { return a.h.KeyID() }
func (a jwsHeaderAdapter) Type() string       { return a.h.Type() }
func (a jwsHeaderAdapter) ContentType() string { return a.h.ContentType() }

type jweHeaderAdapter struct{ h jwe.HeaderLike }

func (a jweHeaderAdapter) Algorithm() string  { return string(a.h.Algorithm()) }
func (a jweHeaderAdapter) KeyID() string      { return a.h.KeyID() }
func (a jweHeaderAdapter) Type() string       { return a.h.Type() }
func (a jweHeaderAdapter) ContentType() string { return a.h.ContentType() }

// ConsumeOptions constrains how Consume selects keys and algorithms.
// Both fields are optional; the zero value imposes no constraint
// beyond what the algorithm itself requires.
type ConsumeOptions struct {
	// Algorithm, if set, is the only "alg" Consume will accept. A
	// token naming a different algorithm is rejected with
	// [ErrAlgorithmRejected] (classified as [KindTokenParse]) without
	// ever touching the keyset.
	Algorithm string

	// KeyID, if set, hard-filters key selection: only a recipient
	// whose header carries this kid (or carries none at all) is
	// considered, and that recipient's key must itself carry this
	// kid. There is no falling back to try other keys in the keyset.
	// If empty, every recipient is tried in order and, for a
	// recipient naming its own kid, only the matching key is tried.
	KeyID string
}

// Consume parses data as a JWS or JWE token in either Compact or JSON
// Serialization, classifies it, selects a key from keys for each
// candidate recipient in turn, and performs the matching verification
// or decryption protocol. It returns the first recipient that
// succeeds; if none do, it returns an [Error] classifying why.
func Consume(data []byte, keys *jwk.Set, opts ConsumeOptions) (*Result, error) {
	const op = "jose: consume"
	format := detectFormat(data)

	switch format {
	case FormatJWSCompact, FormatJWSJSON:
		return consumeJWS(op, format, data, keys, opts)
	case FormatJWECompact, FormatJWEJSON:
		return consumeJWE(op, format, data, keys, opts)
	default:
		return nil, newError(KindTokenParse, op, errors.New("jose: input is not a recognized JWS or JWE serialization"))
	}
}

func consumeJWS(op string, format Format, data []byte, keys *jwk.Set, opts ConsumeOptions) (*Result, error) {
	var msg *jws.Message
	var err error
	if format == FormatJWSCompact {
		msg, err = jws.ParseCompact(data)
	} else {
		msg, err = jws.Parse(data)
	}
	if err != nil {
		return nil, newError(classifyParseError(err), op, err)
	}

	finder := jws.FindKeyFunc(func(protected, header *jws.Header) (sig.SigningKey, error) {
		alg := protected.Algorithm()
		if alg == jwa.None || alg == "" {
			return nil, ErrAlgorithmRejected
		}
		if err := checkAlgorithmAllowed(string(alg), opts.Algorithm); err != nil {
			return nil, err
		}
		if !alg.Available() {
			return nil, ErrAlgorithmUnknown
		}

		kid, ok := effectiveKeyID(protected.KeyID(), opts.KeyID)
		if !ok {
			return nil, jwk.ErrKeyNotFound
		}
		key, err := keys.Select(jwk.Criteria(alg.KeyCriteria()), kid)
		if err != nil {
			return nil, err
		}
		return alg.New().NewSigningKey(key), nil
	})

	protected, payload, err := msg.Verify(finder)
	if err != nil {
		log().Debug().Str("op", op).Err(err).Msg("jws verification failed")
		return nil, newError(classifyJWSFailure(err), op, err)
	}

	return &Result{
		Format:  format,
		Header:  jwsHeaderAdapter{protected},
		Payload: payload,
	}, nil
}

func consumeJWE(op string, format Format, data []byte, keys *jwk.Set, opts ConsumeOptions) (*Result, error) {
	var msg *jwe.Message
	var err error
	if format == FormatJWECompact {
		msg, err = jwe.Parse(data)
	} else {
		msg, err = jwe.ParseJSON(data)
	}
	if err != nil {
		return nil, newError(classifyParseError(err), op, err)
	}

	var merged jwe.HeaderLike
	finder := jwe.FindKeyWrapperFunc(func(protected, unprotected, recipient *jwe.Header) (keymanage.KeyWrapper, error) {
		h := jwe.MergeHeaders(unprotected, protected, recipient)
		merged = h
		alg := h.Algorithm()
		if alg == "" {
			return nil, ErrAlgorithmRejected
		}
		if err := checkAlgorithmAllowed(string(alg), opts.Algorithm); err != nil {
			return nil, err
		}
		if !alg.Available() {
			return nil, ErrAlgorithmUnknown
		}

		kid, ok := effectiveKeyID(h.KeyID(), opts.KeyID)
		if !ok {
			return nil, jwk.ErrKeyNotFound
		}
		key, err := keys.Select(jwk.Criteria(alg.KeyCriteria()), kid)
		if err != nil {
			return nil, err
		}
		return alg.New().NewKeyWrapper(key), nil
	})

	plaintext, err := msg.Decrypt(finder)
	if err != nil {
		log().Debug().Str("op", op).Err(err).Msg("jwe decryption failed")
		return nil, newError(classifyJWEFailure(err), op, err)
	}

	return &Result{
		Format:  format,
		Header:  jweHeaderAdapter{merged},
		Payload: plaintext,
	}, nil
}

// effectiveKeyID reconciles the kid named by a recipient's own header
// with the caller's requested kid, if any. When the caller names a
// kid, a recipient whose own header names a different one is not a
// candidate at all; one that names none inherits the caller's.
func effectiveKeyID(headerKid, wantKid string) (kid string, ok bool) {
	if wantKid == "" {
		return headerKid, true
	}
	if headerKid != "" && headerKid != wantKid {
		return "", false
	}
	return wantKid, true
}

func checkAlgorithmAllowed(got, want string) error {
	if want != "" && got != want {
		return ErrAlgorithmRejected
	}
	return nil
}

// classifyParseError distinguishes a structurally invalid token from
// one that is well-formed but names an unrecognized critical header
// parameter. Both conditions surface from the same jws/jwe Parse call,
// so the two are told apart by cause text rather than by a dedicated
// error type, matching how the underlying parser reports them.
func classifyParseError(err error) Kind {
	if strings.Contains(err.Error(), "unknown parameter is in crit") {
		return KindUnsupported
	}
	return KindTokenParse
}

func classifyJWSFailure(err error) Kind {
	switch {
	case errors.Is(err, ErrAlgorithmRejected):
		return KindTokenParse
	case errors.Is(err, ErrAlgorithmUnknown):
		return KindUnsupported
	case errors.Is(err, jwk.ErrKeyNotFound):
		return KindKeyNotFound
	default:
		return KindSignatureVerification
	}
}

func classifyJWEFailure(err error) Kind {
	switch {
	case errors.Is(err, ErrAlgorithmRejected):
		return KindTokenParse
	case errors.Is(err, ErrAlgorithmUnknown):
		return KindUnsupported
	case errors.Is(err, jwk.ErrKeyNotFound):
		return KindKeyNotFound
	default:
		return KindDecryption
	}
}
