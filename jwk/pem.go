package jwk

import (
	"crypto/x509"
	"encoding/pem"

	"github.com/pkg/errors"
)

// DecodePEM parses the first PEM block in data into a Key. rest holds
// whatever trailing bytes follow the block, mirroring pem.Decode so
// callers can iterate over a multi-block file.
func DecodePEM(data []byte) (key *Key, rest []byte, err error) {
	block, rest := pem.Decode(data)
	if block == nil {
		return nil, nil, errors.New("jwk: no PEM block found")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, nil, errors.Wrap(err, "jwk: parsing PKCS#1 private key")
		}
		key, err = NewPrivateKey(priv)
	case "RSA PUBLIC KEY":
		pub, perr := x509.ParsePKCS1PublicKey(block.Bytes)
		if perr != nil {
			return nil, nil, errors.Wrap(perr, "jwk: parsing PKCS#1 public key")
		}
		key, err = NewPublicKey(pub)
	case "PRIVATE KEY":
		priv, perr := x509.ParsePKCS8PrivateKey(block.Bytes)
		if perr != nil {
			return nil, nil, errors.Wrap(perr, "jwk: parsing PKCS#8 private key")
		}
		key, err = NewPrivateKey(priv)
	case "PUBLIC KEY":
		pub, perr := x509.ParsePKIXPublicKey(block.Bytes)
		if perr != nil {
			return nil, nil, errors.Wrap(perr, "jwk: parsing PKIX public key")
		}
		key, err = NewPublicKey(pub)
	case "CERTIFICATE":
		cert, perr := x509.ParseCertificate(block.Bytes)
		if perr != nil {
			return nil, nil, errors.Wrap(perr, "jwk: parsing certificate")
		}
		key, err = NewPublicKey(cert.PublicKey)
		if err == nil {
			key.SetX509CertificateChain([]*x509.Certificate{cert})
		}
	default:
		return nil, nil, errors.Errorf("jwk: unsupported PEM block type %q", block.Type)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "jwk: building key from PEM block")
	}
	return key, rest, nil
}
