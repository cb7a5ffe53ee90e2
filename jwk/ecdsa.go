package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/meridianjose/jose/internal/jsonutils"
	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/secp256k1"
)

// ellipticCurve maps a JWK "crv" value to the stdlib elliptic.Curve that
// implements it. secp256k1 is not in the IANA P-* family but appears in
// the wild (RFC 8812, Bitcoin/Ethereum-adjacent tooling), so it is wired
// in here alongside the NIST curves.
func ellipticCurve(crv jwa.EllipticCurve) (elliptic.Curve, bool) {
	switch crv {
	case jwa.P256:
		return elliptic.P256(), true
	case jwa.P384:
		return elliptic.P384(), true
	case jwa.P521:
		return elliptic.P521(), true
	case jwa.Secp256k1:
		return secp256k1.Curve(), true
	default:
		return nil, false
	}
}

func curveName(crv elliptic.Curve) (jwa.EllipticCurve, bool) {
	switch crv {
	case elliptic.P256():
		return jwa.P256, true
	case elliptic.P384():
		return jwa.P384, true
	case elliptic.P521():
		return jwa.P521, true
	case secp256k1.Curve():
		return jwa.Secp256k1, true
	default:
		return "", false
	}
}

// RFC7518 6.2.2. Parameters for Elliptic Curve Private Keys
func parseEcdsaKey(ctx *decodeContext, key *Key) {
	var privateKey ecdsa.PrivateKey
	crv := jwa.EllipticCurve(must[string](ctx, "crv"))
	curve, ok := ellipticCurve(crv)
	if !ok {
		ctx.error(fmt.Errorf("jwk: unknown crv: %q", crv))
		return
	}
	privateKey.Curve = curve

	// parameters for public key
	privateKey.X = new(big.Int).SetBytes(ctx.mustBytes("x"))
	privateKey.Y = new(big.Int).SetBytes(ctx.mustBytes("y"))
	if !curve.IsOnCurve(privateKey.X, privateKey.Y) {
		ctx.error(errors.New("jwk: ecdsa public key is not on the curve"))
		return
	}
	key.PublicKey = &privateKey.PublicKey

	// parameters for private key
	if d, ok := ctx.getBytes("d"); ok {
		privateKey.D = new(big.Int).SetBytes(d)
		x, y := curve.ScalarBaseMult(privateKey.D.Bytes())
		if x.Cmp(privateKey.X) != 0 || y.Cmp(privateKey.Y) != 0 {
			ctx.error(errors.New("jwk: invalid key pair"))
			return
		}
		key.PrivateKey = &privateKey
	}

	// sanity check of the certificate
	if certs := key.X509CertificateChain; len(certs) > 0 {
		cert := certs[0]
		publicKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			ctx.error(errors.New("jwk: public key types are mismatch"))
		}
		if !privateKey.PublicKey.Equal(publicKey) {
			ctx.error(errors.New("jwk: public keys are mismatch"))
		}
	}
}

func encodeEcdsaKey(e *jsonutils.Encoder, priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) {
	crv, ok := curveName(pub.Curve)
	if !ok {
		e.SaveError(fmt.Errorf("jwk: unknown elliptic curve: %s", pub.Curve.Params().Name))
		return
	}
	size := (pub.Curve.Params().BitSize + 7) / 8

	e.Set("kty", jwa.EC.String())
	e.Set("crv", crv.String())
	x, y := make([]byte, size), make([]byte, size)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	e.SetBytes("x", x)
	e.SetBytes("y", y)
	if priv != nil {
		d := make([]byte, size)
		priv.D.FillBytes(d)
		e.SetBytes("d", d)
	}
}

func validateEcdsaPrivateKey(key *ecdsa.PrivateKey) error {
	if key.Curve == nil || key.X == nil || key.Y == nil || key.D == nil {
		return errors.New("jwk: invalid ecdsa private key")
	}
	if _, ok := curveName(key.Curve); !ok {
		return fmt.Errorf("jwk: unsupported ecdsa curve: %s", key.Curve.Params().Name)
	}
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return errors.New("jwk: ecdsa public key is not on the curve")
	}
	return nil
}

func validateEcdsaPublicKey(key *ecdsa.PublicKey) error {
	if key.Curve == nil || key.X == nil || key.Y == nil {
		return errors.New("jwk: invalid ecdsa public key")
	}
	if _, ok := curveName(key.Curve); !ok {
		return fmt.Errorf("jwk: unsupported ecdsa curve: %s", key.Curve.Params().Name)
	}
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return errors.New("jwk: ecdsa public key is not on the curve")
	}
	return nil
}
