// Package jose drives a serialized JWS or JWE token through algorithm
// dispatch, key selection and the wire-format crypto protocol, producing
// either a verified claim set or a precisely classified rejection.
//
// Signing and encryption primitives live in sig, keymanage and enc; the
// wire formats live in jws and jwe; key material lives in jwk. This
// package is the part that decides, for a token nobody has looked at
// yet, which of those pieces to invoke and in what order.
package jose

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why Consume or Produce rejected a token. The numeric
// values are stable and meant to be compared or logged; the zero value
// is [KindTokenParse].
type Kind int

const (
	// KindTokenParse means the input is not a syntactically valid JWS or
	// JWE in either Compact or JSON Serialization.
	KindTokenParse Kind = 0

	// KindUnsupported means the token names an algorithm, critical
	// header parameter or serialization feature this package does not
	// implement.
	KindUnsupported Kind = 1

	// KindSignatureVerification means a JWS signature did not validate
	// against any candidate key.
	KindSignatureVerification Kind = 16

	// KindDecryption means a JWE could not be decrypted by any
	// candidate recipient. This single kind covers both a key-wrap
	// failure and a content authentication-tag failure; RFC 7518
	// Section 4.3 requires that the two are indistinguishable to a
	// caller, so they are folded into one kind here as well.
	KindDecryption Kind = 17

	// KindKeyNotFound means the keyset held no key satisfying the
	// algorithm's selection criteria (and, if a kid was requested, no
	// key carried that kid).
	KindKeyNotFound Kind = 2

	// KindInvalidData means the token parsed but its claims or key
	// material are malformed in a way that has nothing to do with
	// cryptographic verification, e.g. a claim with the wrong JSON
	// type.
	KindInvalidData Kind = 3

	// KindValidationFailed means the cryptographic operation succeeded
	// but a post-verification check on the resulting claims failed,
	// e.g. an audience or issuer mismatch.
	KindValidationFailed Kind = 4

	// KindSystemLibrary means an underlying primitive reported an error
	// unrelated to the token's content, e.g. a source of randomness
	// failing.
	KindSystemLibrary Kind = 5

	// KindTooEarly means the token's nbf claim is in the future.
	KindTooEarly Kind = 256

	// KindTooLate means the token's exp claim is in the past.
	KindTooLate Kind = 257
)

func (k Kind) String() string {
	switch k {
	case KindTokenParse:
		return "TOKEN_PARSE_ERROR"
	case KindUnsupported:
		return "UNSUPPORTED_ERROR"
	case KindSignatureVerification:
		return "SIGNATURE_VERIFICATION_ERROR"
	case KindDecryption:
		return "DECRYPTION_ERROR"
	case KindKeyNotFound:
		return "KEY_NOT_FOUND_ERROR"
	case KindInvalidData:
		return "INVALID_DATA_ERROR"
	case KindValidationFailed:
		return "VALIDATION_FAILED_ERROR"
	case KindSystemLibrary:
		return "SYSTEM_LIBRARY_ERROR"
	case KindTooEarly:
		return "TOO_EARLY_ERROR"
	case KindTooLate:
		return "TOO_LATE_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN_ERROR(%d)", int(k))
	}
}

// Error is the error type returned by every exported Consume/Produce
// entry point. Op names the failing step (e.g. "jose: consume") and is
// meant for logs, not for programmatic matching; callers should switch
// on Kind instead.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func wrapf(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.Wrapf(err, format, args...)}
}

// KindOf reports the Kind of err if it (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
