// Package jwa catalogs the algorithm identifiers defined by RFC 7518
// (JSON Web Algorithms) and the IANA "JSON Web Signature and Encryption
// Algorithms" registry, and dispatches each identifier to the concrete
// implementation registered for it.
//
// Implementation packages (jwa/hs, jwa/rs, jwa/ecdhes, …) register
// themselves via an init func calling Register*Algorithm; nothing here
// imports them, so a binary only pays for the algorithms it imports.
package jwa

import (
	"fmt"
	"sync"

	"github.com/meridianjose/jose/enc"
	"github.com/meridianjose/jose/keymanage"
	"github.com/meridianjose/jose/sig"
)

// catalog is a registry of algorithm identifiers to the constructor an
// implementation package registers for them. The zero value of K must
// never be a valid key, so Register can tell "known but unregistered"
// apart from "unknown identifier" and panic with the right message.
type catalog[K comparable, F any] struct {
	mu      sync.RWMutex
	kind    string
	entries map[K]F
}

func newCatalog[K comparable, F any](kind string, known ...K) *catalog[K, F] {
	c := &catalog[K, F]{kind: kind, entries: make(map[K]F, len(known))}
	var zero F
	for _, k := range known {
		c.entries[k] = zero
	}
	return c
}

func (c *catalog[K, F]) register(alg K, f F) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.entries[alg]
	if !ok {
		panic(fmt.Sprintf("jwa: Register%s of unknown algorithm %v", c.kind, alg))
	}
	if any(g) != nil {
		panic(fmt.Sprintf("jwa: Register%s of already registered algorithm %v", c.kind, alg))
	}
	c.entries[alg] = f
}

func (c *catalog[K, F]) lookup(alg K) (F, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.entries[alg]
	ok = ok && any(f) != nil
	return f, ok
}

// SignatureAlgorithm is an algorithm for JSON Web Signature (JWS)
// defined in the IANA "JSON Web Signature and Encryption Algorithms".
type SignatureAlgorithm string

const (
	SignatureAlgorithmUnknown SignatureAlgorithm = ""

	// HS256 is HMAC using SHA-256.
	// import github.com/meridianjose/jose/jwa/hs
	HS256 SignatureAlgorithm = "HS256"

	// HS384 is HMAC using SHA-384.
	// import github.com/meridianjose/jose/jwa/hs
	HS384 SignatureAlgorithm = "HS384"

	// HS512 is HMAC using SHA-512.
	// import github.com/meridianjose/jose/jwa/hs
	HS512 SignatureAlgorithm = "HS512"

	// RS256 is RSASSA-PKCS1-v1_5 using SHA-256.
	// import github.com/meridianjose/jose/jwa/rs
	RS256 SignatureAlgorithm = "RS256"

	// RS384 is RSASSA-PKCS1-v1_5 using SHA-384.
	// import github.com/meridianjose/jose/jwa/rs
	RS384 SignatureAlgorithm = "RS384"

	// RS512 is RSASSA-PKCS1-v1_5 using SHA-512.
	// import github.com/meridianjose/jose/jwa/rs
	RS512 SignatureAlgorithm = "RS512"

	// ES256 is ECDSA using P-256 and SHA-256.
	// import github.com/meridianjose/jose/jwa/es
	ES256 SignatureAlgorithm = "ES256"

	// ES384 is ECDSA using P-384 and SHA-384.
	// import github.com/meridianjose/jose/jwa/es
	ES384 SignatureAlgorithm = "ES384"

	// ES512 is ECDSA using P-521 and SHA-512.
	// import github.com/meridianjose/jose/jwa/es
	ES512 SignatureAlgorithm = "ES512"

	// ES256K is ECDSA using secp256k1 and SHA-256, per RFC 8812.
	// import github.com/meridianjose/jose/jwa/es
	ES256K SignatureAlgorithm = "ES256K"

	// PS256 is RSASSA-PSS using SHA-256 and MGF1 with SHA-256.
	// import github.com/meridianjose/jose/jwa/ps
	PS256 SignatureAlgorithm = "PS256"

	// PS384 is RSASSA-PSS using SHA-384 and MGF1 with SHA-384.
	// import github.com/meridianjose/jose/jwa/ps
	PS384 SignatureAlgorithm = "PS384"

	// PS512 is RSASSA-PSS using SHA-512 and MGF1 with SHA-512.
	// import github.com/meridianjose/jose/jwa/ps
	PS512 SignatureAlgorithm = "PS512"

	// None is no digital signature or MAC performed. The token engine
	// refuses to accept it on verification regardless of registration.
	// import github.com/meridianjose/jose/jwa/none
	None SignatureAlgorithm = "none"

	// EdDSA is Edwards-Curve Digital Signature Algorithm.
	// import github.com/meridianjose/jose/jwa/eddsa
	EdDSA SignatureAlgorithm = "EdDSA"
)

var sigCatalog = newCatalog[SignatureAlgorithm, func() sig.Algorithm]("SignatureAlgorithm",
	HS256, HS384, HS512,
	RS256, RS384, RS512,
	ES256, ES384, ES512, ES256K,
	PS256, PS384, PS512,
	None, EdDSA,
)

// RegisterSignatureAlgorithm is called by implementation packages from
// an init func to bind a constructor to one of the identifiers above.
func RegisterSignatureAlgorithm(alg SignatureAlgorithm, f func() sig.Algorithm) {
	sigCatalog.register(alg, f)
}

func (alg SignatureAlgorithm) String() string {
	return string(alg)
}

func (alg SignatureAlgorithm) KeyAlgorithm() KeyAlgorithm {
	return KeyAlgorithm(alg)
}

func (alg SignatureAlgorithm) New() sig.Algorithm {
	f, ok := sigCatalog.lookup(alg)
	if !ok {
		panic("jwa: requested signature algorithm " + alg.String() + " is not available")
	}
	return f()
}

func (alg SignatureAlgorithm) Available() bool {
	_, ok := sigCatalog.lookup(alg)
	return ok
}

// KeyManagementAlgorithm is an algorithm for JSON Web Encryption (JWE)
// defined in the IANA JSON Web Signature and Encryption Algorithms.
type KeyManagementAlgorithm string

const (
	KeyManagementAlgorithmUnknown KeyManagementAlgorithm = ""

	// RSA1_5 is RSAES-PKCS1-v1_5.
	// import github.com/meridianjose/jose/jwa/rsapkcs1v15
	RSA1_5 KeyManagementAlgorithm = "RSA1_5"

	// RSA_OAEP is RSAES OAEP using default parameters.
	// import github.com/meridianjose/jose/jwa/rsaoaep
	RSA_OAEP KeyManagementAlgorithm = "RSA-OAEP"

	// RSA_OAEP_256 is RSAES OAEP using SHA-256 and MGF1 with SHA-256.
	// import github.com/meridianjose/jose/jwa/rsaoaep
	RSA_OAEP_256 KeyManagementAlgorithm = "RSA-OAEP-256"

	// A128KW is AES Key Wrap with default initial value using 128-bit key.
	// import github.com/meridianjose/jose/jwa/akw
	A128KW KeyManagementAlgorithm = "A128KW"

	// A192KW is AES Key Wrap with default initial value using 192-bit key.
	// import github.com/meridianjose/jose/jwa/akw
	A192KW KeyManagementAlgorithm = "A192KW"

	// A256KW is AES Key Wrap with default initial value using 256-bit key.
	// import github.com/meridianjose/jose/jwa/akw
	A256KW KeyManagementAlgorithm = "A256KW"

	// Direct is direct use of a shared symmetric key as the CEK.
	// import github.com/meridianjose/jose/jwa/dir
	Direct KeyManagementAlgorithm = "dir"

	// ECDH_ES is Elliptic Curve Diffie-Hellman Ephemeral Static key agreement using Concat KDF.
	// import github.com/meridianjose/jose/jwa/ecdhes
	ECDH_ES KeyManagementAlgorithm = "ECDH-ES"

	// ECDH_ES_A128KW is ECDH-ES using Concat KDF and CEK wrapped with "A128KW".
	// import github.com/meridianjose/jose/jwa/ecdhes
	ECDH_ES_A128KW KeyManagementAlgorithm = "ECDH-ES+A128KW"

	// ECDH_ES_A192KW is ECDH-ES using Concat KDF and CEK wrapped with "A192KW".
	// import github.com/meridianjose/jose/jwa/ecdhes
	ECDH_ES_A192KW KeyManagementAlgorithm = "ECDH-ES+A192KW"

	// ECDH_ES_A256KW is ECDH-ES using Concat KDF and CEK wrapped with "A256KW".
	// import github.com/meridianjose/jose/jwa/ecdhes
	ECDH_ES_A256KW KeyManagementAlgorithm = "ECDH-ES+A256KW"

	// A128GCMKW is Key wrapping with AES GCM using 128-bit key.
	// import github.com/meridianjose/jose/jwa/agcmkw
	A128GCMKW KeyManagementAlgorithm = "A128GCMKW"

	// A192GCMKW is Key wrapping with AES GCM using 192-bit key.
	// import github.com/meridianjose/jose/jwa/agcmkw
	A192GCMKW KeyManagementAlgorithm = "A192GCMKW"

	// A256GCMKW is Key wrapping with AES GCM using 256-bit key.
	// import github.com/meridianjose/jose/jwa/agcmkw
	A256GCMKW KeyManagementAlgorithm = "A256GCMKW"

	// PBES2_HS256_A128KW is PBES2 with HMAC SHA-256 and "A128KW" wrapping.
	// import github.com/meridianjose/jose/jwa/pbes2
	PBES2_HS256_A128KW KeyManagementAlgorithm = "PBES2-HS256+A128KW"

	// PBES2_HS384_A192KW is PBES2 with HMAC SHA-384 and "A192KW" wrapping.
	// import github.com/meridianjose/jose/jwa/pbes2
	PBES2_HS384_A192KW KeyManagementAlgorithm = "PBES2-HS384+A192KW"

	// PBES2_HS512_A256KW is PBES2 with HMAC SHA-512 and "A256KW" wrapping.
	// import github.com/meridianjose/jose/jwa/pbes2
	PBES2_HS512_A256KW KeyManagementAlgorithm = "PBES2-HS512+A256KW"
)

var kmCatalog = newCatalog[KeyManagementAlgorithm, func() keymanage.Algorithm]("KeyManagementAlgorithm",
	RSA1_5, RSA_OAEP, RSA_OAEP_256,
	A128KW, A192KW, A256KW,
	Direct,
	ECDH_ES, ECDH_ES_A128KW, ECDH_ES_A192KW, ECDH_ES_A256KW,
	A128GCMKW, A192GCMKW, A256GCMKW,
	PBES2_HS256_A128KW, PBES2_HS384_A192KW, PBES2_HS512_A256KW,
)

// RegisterKeyManagementAlgorithm is called by implementation packages
// from an init func to bind a constructor to one of the identifiers above.
func RegisterKeyManagementAlgorithm(alg KeyManagementAlgorithm, f func() keymanage.Algorithm) {
	kmCatalog.register(alg, f)
}

func (alg KeyManagementAlgorithm) KeyAlgorithm() KeyAlgorithm {
	return KeyAlgorithm(alg)
}

func (alg KeyManagementAlgorithm) New() keymanage.Algorithm {
	f, ok := kmCatalog.lookup(alg)
	if !ok {
		panic("jwa: requested key management algorithm " + alg.String() + " is not available")
	}
	return f()
}

func (alg KeyManagementAlgorithm) Available() bool {
	_, ok := kmCatalog.lookup(alg)
	return ok
}

func (alg KeyManagementAlgorithm) String() string {
	if alg == KeyManagementAlgorithmUnknown {
		return "(unknown)"
	}
	return string(alg)
}

// KeyAlgorithm may be either SignatureAlgorithm or KeyManagementAlgorithm.
// It is a workaround for jwk.Key being able to contain different
// types of algorithms in its `alg` field.
type KeyAlgorithm string

// EncryptionAlgorithm an algorithm for content encryption
// defined in RFC7518 5. Cryptographic Algorithms for Content Encryption.
type EncryptionAlgorithm string

const (
	// A128CBC_HS256 is AES_128_CBC_HMAC_SHA_256 authenticated encryption
	// algorithm, as defined in RFC 7518 Section 5.2.3.
	// import github.com/meridianjose/jose/jwa/acbc
	A128CBC_HS256 EncryptionAlgorithm = "A128CBC-HS256"

	// A192CBC_HS384 is AES_192_CBC_HMAC_SHA_384 authenticated encryption
	// algorithm, as defined in RFC 7518 Section 5.2.4.
	// import github.com/meridianjose/jose/jwa/acbc
	A192CBC_HS384 EncryptionAlgorithm = "A192CBC-HS384"

	// A256CBC_HS512 is AES_256_CBC_HMAC_SHA_512 authenticated encryption
	// algorithm, as defined in RFC 7518 Section 5.2.5.
	// import github.com/meridianjose/jose/jwa/acbc
	A256CBC_HS512 EncryptionAlgorithm = "A256CBC-HS512"

	// A128GCM is AES GCM using 128-bit key.
	// import github.com/meridianjose/jose/jwa/agcm
	A128GCM EncryptionAlgorithm = "A128GCM"

	// A192GCM is AES GCM using 192-bit key.
	// import github.com/meridianjose/jose/jwa/agcm
	A192GCM EncryptionAlgorithm = "A192GCM"

	// A256GCM is AES GCM using 256-bit key.
	// import github.com/meridianjose/jose/jwa/agcm
	A256GCM EncryptionAlgorithm = "A256GCM"
)

var encCatalog = newCatalog[EncryptionAlgorithm, func() enc.Algorithm]("EncryptionAlgorithm",
	A128CBC_HS256, A192CBC_HS384, A256CBC_HS512,
	A128GCM, A192GCM, A256GCM,
)

// RegisterEncryptionAlgorithm is called by implementation packages from
// an init func to bind a constructor to one of the identifiers above.
func RegisterEncryptionAlgorithm(alg EncryptionAlgorithm, f func() enc.Algorithm) {
	encCatalog.register(alg, f)
}

func (alg EncryptionAlgorithm) String() string {
	return string(alg)
}

func (alg EncryptionAlgorithm) New() enc.Algorithm {
	f, ok := encCatalog.lookup(alg)
	if !ok {
		panic("jwa: requested content encryption algorithm " + alg.String() + " is not available")
	}
	return f()
}

func (alg EncryptionAlgorithm) Available() bool {
	_, ok := encCatalog.lookup(alg)
	return ok
}

// KeyType is a key type defined in the IANA "JSON Web Key Types".
type KeyType string

const (
	KeyTypeUnknown KeyType = ""

	// EC is Elliptic Curve.
	EC KeyType = "EC"

	// RSA is RSA.
	RSA KeyType = "RSA"

	// OKP is Octet string key pairs
	// defined in RFC8037 Section 2 Key Type "OKP".
	OKP KeyType = "OKP"

	// Oct is Octet sequence (used to represent symmetric keys).
	Oct KeyType = "oct"
)

func (kty KeyType) String() string {
	if kty == KeyTypeUnknown {
		return "(unknown)"
	}
	return string(kty)
}

// EllipticCurve is an EllipticCurve defined in the IANA "JSON Web Key Elliptic Curve".
type EllipticCurve string

const (
	// P256 is a Curve which implements NIST P-256.
	P256 EllipticCurve = "P-256"

	// P384 is a Curve which implements NIST P-384.
	P384 EllipticCurve = "P-384"

	// P521 is a Curve which implements NIST P-521.
	P521 EllipticCurve = "P-521"

	// Ed25519 is Ed25519 signature algorithm key pairs.
	Ed25519 EllipticCurve = "Ed25519"

	// Ed448 is Ed448 signature algorithm key pairs.
	Ed448 EllipticCurve = "Ed448"

	// X25519 is X25519 function key pairs.
	X25519 EllipticCurve = "X25519"

	// X448 is X448 function key pairs.
	X448 EllipticCurve = "X448"

	// Secp256k1 is the SECG secp256k1 curve, per RFC 8812.
	Secp256k1 EllipticCurve = "secp256k1"
)

func (crv EllipticCurve) String() string {
	return string(crv)
}

// CompressionAlgorithm is a JWE "zip" value.
type CompressionAlgorithm string

const (
	CompressionAlgorithmUnknown CompressionAlgorithm = ""

	// DEF is compression with the DEFLATE [RFC1951] algorithm.
	DEF CompressionAlgorithm = "DEF"
)

func (zip CompressionAlgorithm) String() string {
	return string(zip)
}

// JSON Web Signature and Encryption Header Parameters
// https://www.iana.org/assignments/jose/jose.xhtml
const (
	AlgorithmKey                    = "alg"
	EncryptionAlgorithmKey          = "enc"
	CompressionAlgorithmKey         = "zip"
	JWKSetURLKey                    = "jku"
	JSONWebKey                      = "jwk"
	KeyIDKey                        = "kid"
	X509URLKey                      = "x5u"
	X509CertificateChainKey         = "x5c"
	X509CertificateSHA1Thumbprint   = "x5t"
	X509CertificateSHA256Thumbprint = "x5t#S256"
	TypeKey                         = "typ"
	ContentTypeKey                  = "cty"
	CriticalKey                     = "crit"
	EphemeralPublicKeyKey           = "epk"
	AgreementPartyUInfoKey          = "apu"
	AgreementPartyVInfoKey          = "apv"
	InitializationVectorKey         = "iv"
	AuthenticationTagKey            = "tag"
	PBES2SaltInputKey               = "p2s"
	PBES2CountKey                   = "p2c"
	IssuerKey                       = "iss"
	SubjectKey                      = "sub"
	AudienceKey                     = "aud"
	Base64URLEncodePayloadKey       = "b64"
	PASSporTExtensionIdentifierKey  = "ppt"
	URLKey                          = "url"
	NonceKey                        = "nonce"
)
