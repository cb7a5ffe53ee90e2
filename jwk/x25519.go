package jwk

import (
	"bytes"
	"errors"

	"github.com/meridianjose/jose/internal/jsonutils"
	"github.com/meridianjose/jose/jwa"
	"github.com/meridianjose/jose/x25519"
)

func parseX25519Key(d *jsonutils.Decoder, key *Key) {
	x := d.MustBytes("x")
	if len(x) != x25519.PublicKeySize {
		d.SaveError(errors.New("jwk: the parameter x has invalid size"))
		return
	}
	pub := make(x25519.PublicKey, x25519.PublicKeySize)
	copy(pub, x)
	key.pub = pub

	if param, ok := d.GetBytes("d"); ok {
		if len(param) != x25519.SeedSize {
			d.SaveError(errors.New("jwk: the parameter d has invalid size"))
			return
		}
		priv := x25519.NewKeyFromSeed(param)
		if !bytes.Equal([]byte(priv[x25519.SeedSize:]), []byte(pub)) {
			d.SaveError(errors.New("jwk: invalid key pair"))
			return
		}
		key.priv = priv
	}

	// sanity check of the certificate
	if certs := key.x5c; len(certs) > 0 {
		cert := certs[0]
		publicKey := cert.PublicKey
		if !pub.Equal(publicKey) {
			d.SaveError(errors.New("jwk: public keys are mismatch"))
			return
		}
	}
}

func encodeX25519Key(e *jsonutils.Encoder, priv x25519.PrivateKey, pub x25519.PublicKey) {
	e.Set("kty", jwa.OKP.String())
	e.Set("crv", jwa.X25519.String())
	e.SetBytes("x", []byte(pub))
	if priv != nil {
		e.SetBytes("d", []byte(priv[:x25519.SeedSize]))
	}
}

func validateX25519PrivateKey(key x25519.PrivateKey) error {
	if len(key) != x25519.PrivateKeySize {
		return errors.New("jwk: invalid x25519 private key size")
	}
	want := x25519.NewKeyFromSeed(key[:x25519.SeedSize])
	if !bytes.Equal(want, key) {
		return errors.New("jwk: invalid x25519 key pair")
	}
	return nil
}

func validateX25519PublicKey(key x25519.PublicKey) error {
	if len(key) != x25519.PublicKeySize {
		return errors.New("jwk: invalid x25519 public key size")
	}
	return nil
}
