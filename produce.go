package jose

import (
	"github.com/pkg/errors"

	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/jwe"
	"github.com/meridianjose/jose/jwk"
	"github.com/meridianjose/jose/jws"
)

// SignOptions controls the header of a produced JWS.
type SignOptions struct {
	// Type is the "typ" header parameter, e.g. "JWT". Left empty, no
	// "typ" is set.
	Type string

	// ContentType is the "cty" header parameter.
	ContentType string
}

// Sign produces a JWS in Compact Serialization over payload using key.
// key's own "alg" (if set) is used when alg is the zero value;
// otherwise alg must be compatible with key. The "kid" header is
// filled in automatically from key.KeyID, when key carries one.
func Sign(payload []byte, alg jwa.SignatureAlgorithm, key *jwk.Key, opts SignOptions) ([]byte, error) {
	const op = "jose: sign"
	if alg == "" {
		alg = jwa.SignatureAlgorithm(key.Algorithm())
	}
	if alg == "" || alg == jwa.None {
		return nil, newError(KindUnsupported, op, errors.New("jose: refusing to produce an unsigned (alg=none) token"))
	}
	if !alg.Available() {
		return nil, newError(KindUnsupported, op, errors.Errorf("jose: signature algorithm %s is not available", alg))
	}

	header := jws.NewHeader()
	header.SetAlgorithm(alg)
	if kid := key.KeyID(); kid != "" {
		header.SetKeyID(kid)
	}
	if opts.Type != "" {
		header.SetType(opts.Type)
	}
	if opts.ContentType != "" {
		header.SetContentType(opts.ContentType)
	}

	msg := jws.NewMessage(payload)
	signingKey := alg.New().NewSigningKey(key)
	if err := msg.Sign(header, nil, signingKey); err != nil {
		return nil, newError(KindSystemLibrary, op, err)
	}
	out, err := msg.Compact()
	if err != nil {
		return nil, newError(KindSystemLibrary, op, err)
	}
	return out, nil
}

// EncryptOptions controls the header of a produced JWE.
type EncryptOptions struct {
	Type        string
	ContentType string
}

// Encrypt produces a JWE in Compact Serialization over plaintext,
// using keyAlg to wrap a freshly generated content-encryption key and
// encAlg to encrypt the content. The "kid" header is filled in
// automatically from key.KeyID, when key carries one.
func Encrypt(plaintext []byte, keyAlg jwa.KeyManagementAlgorithm, encAlg jwa.EncryptionAlgorithm, key *jwk.Key, opts EncryptOptions) ([]byte, error) {
	const op = "jose: encrypt"
	if keyAlg == "" || !keyAlg.Available() {
		return nil, newError(KindUnsupported, op, errors.Errorf("jose: key management algorithm %s is not available", keyAlg))
	}
	if encAlg == "" || !encAlg.Available() {
		return nil, newError(KindUnsupported, op, errors.Errorf("jose: content encryption algorithm %s is not available", encAlg))
	}

	header := &jwe.Header{}
	header.SetAlgorithm(keyAlg)
	if kid := key.KeyID(); kid != "" {
		header.SetKeyID(kid)
	}
	if opts.Type != "" {
		header.SetType(opts.Type)
	}
	if opts.ContentType != "" {
		header.SetContentType(opts.ContentType)
	}

	wrapper := keyAlg.New().NewKeyWrapper(key)
	msg, err := jwe.NewMessageWithKW(encAlg, wrapper, header, plaintext)
	if err != nil {
		return nil, newError(KindSystemLibrary, op, err)
	}
	out, err := msg.Compact()
	if err != nil {
		return nil, newError(KindSystemLibrary, op, err)
	}
	return out, nil
}
