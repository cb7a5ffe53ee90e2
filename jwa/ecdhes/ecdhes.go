// Package ecdhes implements Key Agreement with Elliptic Curve Diffie-Hellman Ephemeral Static (ECDH-ES).
package ecdhes

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	_ "crypto/sha256" // for crypto.SHA256
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/jwa/akw"
	"github.com/meridianjose/jose/jwa/dir"
	"github.com/meridianjose/jose/jwk"
	"github.com/meridianjose/jose/jwk/jwktypes"
	"github.com/meridianjose/jose/keymanage"
)

var alg = &Algorithm{
	f: func(key []byte) keymanage.KeyWrapper {
		return dir.NewKeyWrapper(key)
	},
}

// New returns a new algorithm
// Elliptic Curve Diffie-Hellman Ephemeral Static key agreement using Concat KDF.
func New() keymanage.Algorithm {
	return alg
}

var a128kw = &Algorithm{
	size: 16,
	f: func(key []byte) keymanage.KeyWrapper {
		return akw.NewKeyWrapper(key)
	},
}

// NewA128KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A128KW".
func NewA128KW() keymanage.Algorithm {
	return a128kw
}

var a192kw = &Algorithm{
	size: 24,
	f: func(key []byte) keymanage.KeyWrapper {
		return akw.NewKeyWrapper(key)
	},
}

// NewA192KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A192KW".
func NewA192KW() keymanage.Algorithm {
	return a192kw
}

var a256kw = &Algorithm{
	size: 32,
	f: func(key []byte) keymanage.KeyWrapper {
		return akw.NewKeyWrapper(key)
	},
}

// NewA256KW returns a new algorithm ECDH-ES using Concat KDF and CEK wrapped with "A256KW".
func NewA256KW() keymanage.Algorithm {
	return a256kw
}

func init() {
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES, New)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A128KW, NewA128KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A192KW, NewA192KW)
	jwa.RegisterKeyManagementAlgorithm(jwa.ECDH_ES_A256KW, NewA256KW)
}

var _ keymanage.Algorithm = (*Algorithm)(nil)

type Algorithm struct {
	size int
	f    func([]byte) keymanage.KeyWrapper
}

// headerLike is the subset of a JWE header (either the concrete
// *jwe.Header passed in on encrypt, or the merged view passed in on
// decrypt) that key agreement needs to read and, on encrypt, fill in.
type headerLike interface {
	EncryptionAlgorithm() jwa.EncryptionAlgorithm
	EphemeralPublicKey() *jwk.Key
	AgreementPartyUInfo() []byte
	AgreementPartyVInfo() []byte
}

type ephemeralPublicKeySetter interface {
	SetEphemeralPublicKey(epk *jwk.Key)
}

// NewKeyWrapper implements [github.com/meridianjose/jose/keymanage.Algorithm].
func (alg *Algorithm) NewKeyWrapper(key keymanage.Key) keymanage.KeyWrapper {
	priv, _ := key.PrivateKey().(*ecdsa.PrivateKey)
	pub, _ := key.PublicKey().(*ecdsa.PublicKey)
	if priv == nil && pub == nil {
		return keymanage.NewInvalidKeyWrapper(fmt.Errorf("ecdhes: key is not an EC key"))
	}
	if priv != nil && pub == nil {
		pub = &priv.PublicKey
	}
	canDerive := jwktypes.CanUseFor(key, jwktypes.KeyOpDeriveKey)

	if alg.size == 0 {
		return &directKeyWrapper{privateKey: priv, publicKey: pub, canDerive: canDerive}
	}
	return &wrappingKeyWrapper{privateKey: priv, publicKey: pub, canDerive: canDerive, size: alg.size, f: alg.f}
}

// directKeyWrapper is "ECDH-ES": the concat-KDF output over the agreed
// secret is used directly as the CEK, so it implements
// [github.com/meridianjose/jose/keymanage.KeyDeriver] rather than
// wrapping an independently generated CEK.
type directKeyWrapper struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	canDerive  bool
}

var (
	_ keymanage.KeyWrapper = (*directKeyWrapper)(nil)
	_ keymanage.KeyDeriver = (*directKeyWrapper)(nil)
)

// DeriveKey implements [github.com/meridianjose/jose/keymanage.KeyDeriver].
// opts must carry the recipient's headerLike and ephemeralPublicKeySetter.
func (w *directKeyWrapper) DeriveKey(opts any) (cek, encryptedCEK []byte, err error) {
	if !w.canDerive {
		return nil, nil, fmt.Errorf("ecdhes: key derive operation is not allowed")
	}
	h, ok := opts.(headerLike)
	if !ok {
		return nil, nil, fmt.Errorf("ecdhes: invalid header type: %T", opts)
	}
	setter, ok := opts.(ephemeralPublicKeySetter)
	if !ok {
		return nil, nil, errors.New("ecdhes: header does not support SetEphemeralPublicKey")
	}

	epkPriv, err := ecdsa.GenerateKey(w.publicKey.Curve, rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("ecdhes: failed to generate ephemeral key: %w", err)
	}
	epk, err := jwk.NewPublicKey(&epkPriv.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("ecdhes: failed to encode ephemeral public key: %w", err)
	}
	setter.SetEphemeralPublicKey(epk)

	size := h.EncryptionAlgorithm().New().CEKSize()
	cek, err = deriveECDHES(
		[]byte(h.EncryptionAlgorithm().String()),
		h.AgreementPartyUInfo(),
		h.AgreementPartyVInfo(),
		epkPriv,
		w.publicKey,
		size,
	)
	if err != nil {
		return nil, nil, err
	}
	return cek, []byte{}, nil
}

// WrapKey implements [github.com/meridianjose/jose/keymanage.KeyWrapper].
// Direct key agreement has no independent CEK to wrap; it is only
// reachable here if the caller bypasses [DeriveKey].
func (w *directKeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	return nil, errors.New("ecdhes: ECDH-ES direct key agreement does not wrap a pre-existing CEK")
}

// UnwrapKey implements [github.com/meridianjose/jose/keymanage.KeyWrapper].
func (w *directKeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, fmt.Errorf("ecdhes: key derive operation is not allowed")
	}
	h, ok := opts.(headerLike)
	if !ok {
		return nil, fmt.Errorf("ecdhes: invalid header type: %T", opts)
	}
	epk := h.EphemeralPublicKey()
	if epk == nil {
		return nil, errors.New("ecdhes: recipient header has no ephemeral public key")
	}
	size := h.EncryptionAlgorithm().New().CEKSize()
	return deriveECDHES(
		[]byte(h.EncryptionAlgorithm().String()),
		h.AgreementPartyUInfo(),
		h.AgreementPartyVInfo(),
		w.privateKey,
		epk.PublicKey(),
		size,
	)
}

// wrappingKeyWrapper is "ECDH-ES+AxxxKW": the concat-KDF output wraps
// an independently generated CEK with AES Key Wrap.
type wrappingKeyWrapper struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	canDerive  bool
	size       int
	f          func([]byte) keymanage.KeyWrapper
}

var _ keymanage.KeyWrapper = (*wrappingKeyWrapper)(nil)

// WrapKey implements [github.com/meridianjose/jose/keymanage.KeyWrapper].
func (w *wrappingKeyWrapper) WrapKey(cek []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, fmt.Errorf("ecdhes: key derive operation is not allowed")
	}
	setter, ok := opts.(ephemeralPublicKeySetter)
	if !ok {
		return nil, errors.New("ecdhes: header does not support SetEphemeralPublicKey")
	}

	epkPriv, err := ecdsa.GenerateKey(w.publicKey.Curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to generate ephemeral key: %w", err)
	}
	epk, err := jwk.NewPublicKey(&epkPriv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("ecdhes: failed to encode ephemeral public key: %w", err)
	}
	setter.SetEphemeralPublicKey(epk)

	var apu, apv []byte
	if h, ok := opts.(headerLike); ok {
		apu, apv = h.AgreementPartyUInfo(), h.AgreementPartyVInfo()
	}
	key, err := deriveECDHES(wrapAlgorithmID(w.size), apu, apv, epkPriv, w.publicKey, w.size)
	if err != nil {
		return nil, err
	}
	return w.f(key).WrapKey(cek, opts)
}

// UnwrapKey implements [github.com/meridianjose/jose/keymanage.KeyWrapper].
func (w *wrappingKeyWrapper) UnwrapKey(data []byte, opts any) ([]byte, error) {
	if !w.canDerive {
		return nil, fmt.Errorf("ecdhes: key derive operation is not allowed")
	}
	h, ok := opts.(headerLike)
	if !ok {
		return nil, fmt.Errorf("ecdhes: invalid header type: %T", opts)
	}
	epk := h.EphemeralPublicKey()
	if epk == nil {
		return nil, errors.New("ecdhes: recipient header has no ephemeral public key")
	}
	key, err := deriveECDHES(wrapAlgorithmID(w.size), h.AgreementPartyUInfo(), h.AgreementPartyVInfo(), w.privateKey, epk.PublicKey(), w.size)
	if err != nil {
		return nil, err
	}
	return w.f(key).UnwrapKey(data, opts)
}

func wrapAlgorithmID(size int) []byte {
	switch size {
	case 16:
		return []byte(jwa.ECDH_ES_A128KW)
	case 24:
		return []byte(jwa.ECDH_ES_A192KW)
	case 32:
		return []byte(jwa.ECDH_ES_A256KW)
	}
	return nil
}

func deriveECDHES(alg, apu, apv []byte, priv, pub any, keySize int) ([]byte, error) {
	z, err := deriveZ(priv, pub)
	if err != nil {
		return nil, err
	}

	var pubinfo [4]byte
	bits := keySize * 8
	pubinfo[0] = byte(bits >> 24)
	pubinfo[1] = byte(bits >> 16)
	pubinfo[2] = byte(bits >> 8)
	pubinfo[3] = byte(bits)

	r := newKDF(crypto.SHA256, z, alg, apu, apv, pubinfo[:], []byte{})
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func deriveZ(priv, pub any) ([]byte, error) {
	switch priv := priv.(type) {
	case *ecdsa.PrivateKey:
		pubkey, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ecdhes: want *ecdsa.PublicKey but got %T", pub)
		}
		crv := priv.Curve
		if pubkey.Curve != crv || !crv.IsOnCurve(pubkey.X, pubkey.Y) {
			return nil, errors.New("ecdhes: public key must be on the same curve as private key")
		}
		z, _ := crv.ScalarMult(pubkey.X, pubkey.Y, priv.D.Bytes())
		size := (crv.Params().BitSize + 7) / 8
		buf := make([]byte, size)
		return z.FillBytes(buf), nil
	default:
		return nil, fmt.Errorf("ecdhes: unknown private key type: %T", priv)
	}
}

type kdf struct {
	hash hash.Hash

	z []byte

	// AlgorithmID
	alg []byte

	// PartyUInfo, PartyVInfo
	apu, apv []byte

	// SuppPubInfo, SuppPrivInfo
	pub, priv []byte

	round uint32
	n     int
	buf   []byte
}

func newKDF(hash crypto.Hash, z, alg, apu, apv, pub, priv []byte) *kdf {
	h := hash.New()
	size := h.Size()
	if size < 4 {
		size = 4
	}
	return &kdf{
		z:    z,
		hash: h,
		alg:  alg,
		apu:  apu,
		apv:  apv,
		pub:  pub,
		priv: priv,
		buf:  make([]byte, size),
	}
}

func (r *kdf) Read(data []byte) (n int, err error) {
	if r.n == 0 {
		r.round++
		r.hash.Reset()

		r.putUint32(r.round)
		r.hash.Write(r.z)
		r.putUint32(uint32(len(r.alg)))
		r.hash.Write(r.alg)
		r.putUint32(uint32(len(r.apu)))
		r.hash.Write(r.apu)
		r.putUint32(uint32(len(r.apv)))
		r.hash.Write(r.apv)
		r.hash.Write(r.pub)
		r.hash.Write(r.priv)

		r.buf = r.hash.Sum(r.buf[:0])
		r.n = len(r.buf)
	}
	n = copy(data, r.buf[len(r.buf)-r.n:])
	r.n -= n
	return
}

func (r *kdf) putUint32(v uint32) {
	buf := r.buf[:4]
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	r.hash.Write(buf)
}
