// Package sig defines the contract a JSON Web Signature algorithm
// implementation must satisfy, independent of any particular key type.
package sig

import (
	"crypto"
	"reflect"

	"github.com/pkg/errors"
)

// Key exposes the raw key material a signing algorithm operates on.
// Implementations such as rsa.PrivateKey or ecdsa.PrivateKey already
// satisfy crypto.Signer; sig.Key lets callers supply either half
// without forcing both to be present.
type Key interface {
	PrivateKey() crypto.PrivateKey
	PublicKey() crypto.PublicKey
}

// Algorithm builds a SigningKey bound to a concrete Key.
type Algorithm interface {
	NewSigningKey(key Key) SigningKey
}

// SigningKey signs and verifies payloads for one fixed key and algorithm.
type SigningKey interface {
	Sign(payload []byte) (signature []byte, err error)
	Verify(payload, signature []byte) error
}

var (
	// ErrHashUnavailable is returned when the algorithm's hash function
	// was not linked into the binary.
	ErrHashUnavailable = errors.New("sig: hash function unavailable")

	// ErrSignUnavailable is returned when a SigningKey has no private
	// half and so cannot produce a signature.
	ErrSignUnavailable = errors.New("sig: no private key available to sign")

	// ErrSignatureMismatch is returned by Verify when the signature
	// does not authenticate the payload.
	ErrSignatureMismatch = errors.New("sig: signature mismatch")
)

// invalidKey rejects every operation, reporting the key types that
// didn't fit the algorithm. Algorithms return this instead of a bare
// error so callers can still plug it in wherever a SigningKey is expected.
type invalidKey struct {
	alg            string
	privateKeyType reflect.Type
	publicKeyType  reflect.Type
}

// NewInvalidKey returns a SigningKey whose Sign and Verify always fail,
// reporting that alg does not support the given key's concrete types.
func NewInvalidKey(alg string, privateKey, publicKey any) SigningKey {
	return &invalidKey{
		alg:            alg,
		privateKeyType: reflect.TypeOf(privateKey),
		publicKeyType:  reflect.TypeOf(publicKey),
	}
}

func (key *invalidKey) Sign(payload []byte) ([]byte, error) {
	return nil, key
}

func (key *invalidKey) Verify(payload, signature []byte) error {
	return key
}

func (key *invalidKey) Error() string {
	priv, pub := "nil", "nil"
	if key.privateKeyType != nil {
		priv = key.privateKeyType.String()
	}
	if key.publicKeyType != nil {
		pub = key.publicKeyType.String()
	}
	return "sig: algorithm " + key.alg + " does not support key types " + priv + "/" + pub
}

// errKey wraps a fixed error, returned verbatim by both Sign and Verify.
type errKey struct {
	err error
}

// NewErrorKey returns a SigningKey whose Sign and Verify both fail with err.
func NewErrorKey(err error) SigningKey {
	return &errKey{err: err}
}

func (key *errKey) Sign(payload []byte) ([]byte, error) {
	return nil, key.err
}

func (key *errKey) Verify(payload, signature []byte) error {
	return key.err
}
