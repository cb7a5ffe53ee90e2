package jwa

// KeyCriteria describes the attributes a candidate JWK must (or should)
// carry for an algorithm to use it. The concrete prefix semantics
// ("~name" preferred, "@name" intersecting set, bare name exact) are
// interpreted by jwk.Set.Select; jwa only carries the data since it
// cannot import jwk (jwk already imports jwa).
type KeyCriteria map[string]any

var signatureKeyCriteria = map[SignatureAlgorithm]KeyCriteria{
	HS256: {"kty": "oct", "~alg": "HS256"},
	HS384: {"kty": "oct", "~alg": "HS384"},
	HS512: {"kty": "oct", "~alg": "HS512"},
	RS256: {"kty": "RSA", "~alg": "RS256"},
	RS384: {"kty": "RSA", "~alg": "RS384"},
	RS512: {"kty": "RSA", "~alg": "RS512"},
	PS256: {"kty": "RSA", "~alg": "PS256"},
	PS384: {"kty": "RSA", "~alg": "PS384"},
	PS512: {"kty": "RSA", "~alg": "PS512"},
	ES256: {"kty": "EC", "crv": "P-256", "~alg": "ES256"},
	ES384: {"kty": "EC", "crv": "P-384", "~alg": "ES384"},
	ES512: {"kty": "EC", "crv": "P-521", "~alg": "ES512"},
	EdDSA: {"kty": "OKP", "~alg": "EdDSA"},
}

// KeyCriteria returns the key-selection criteria for alg as described
// in RFC 7518's algorithm definitions. The zero value is returned for
// SignatureAlgorithmUnknown and for "none", which accepts no key.
func (alg SignatureAlgorithm) KeyCriteria() KeyCriteria {
	return signatureKeyCriteria[alg]
}

var keyManagementKeyCriteria = map[KeyManagementAlgorithm]KeyCriteria{
	RSA1_5:             {"kty": "RSA"},
	RSA_OAEP:           {"kty": "RSA"},
	RSA_OAEP_256:       {"kty": "RSA"},
	A128KW:             {"kty": "oct", "~alg": "A128KW"},
	A192KW:             {"kty": "oct", "~alg": "A192KW"},
	A256KW:             {"kty": "oct", "~alg": "A256KW"},
	Direct:             {"kty": "oct", "~alg": "dir"},
	A128GCMKW:          {"kty": "oct", "~alg": "A128GCMKW"},
	A192GCMKW:          {"kty": "oct", "~alg": "A192GCMKW"},
	A256GCMKW:          {"kty": "oct", "~alg": "A256GCMKW"},
	PBES2_HS256_A128KW: {"kty": "oct"},
	PBES2_HS384_A192KW: {"kty": "oct"},
	PBES2_HS512_A256KW: {"kty": "oct"},
	// ECDH-ES family: kty isn't constrained here. The ecdhes handler
	// accepts only EC (ECDSA) keys; its NewKeyWrapper rejects any other
	// key type, OKP (X25519/X448) keys included.
	ECDH_ES:        {"~use": "enc"},
	ECDH_ES_A128KW: {"~use": "enc"},
	ECDH_ES_A192KW: {"~use": "enc"},
	ECDH_ES_A256KW: {"~use": "enc"},
}

// KeyCriteria returns the key-selection criteria for alg.
func (alg KeyManagementAlgorithm) KeyCriteria() KeyCriteria {
	return keyManagementKeyCriteria[alg]
}
