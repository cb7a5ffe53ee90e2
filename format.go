package jose

import (
	"bytes"
	"encoding/json"
)

// Format identifies the wire serialization of a token handed to Consume.
type Format int

const (
	// FormatUnknown means the input matched neither a JWS nor a JWE
	// serialization.
	FormatUnknown Format = iota

	// FormatJWSCompact is a JWS in Compact Serialization: three
	// dot-separated base64url segments.
	FormatJWSCompact

	// FormatJWECompact is a JWE in Compact Serialization: five
	// dot-separated base64url segments.
	FormatJWECompact

	// FormatJWSJSON is a JWS in (Flattened or General) JSON
	// Serialization: a JSON object carrying "signature" or
	// "signatures".
	FormatJWSJSON

	// FormatJWEJSON is a JWE in (Flattened or General) JSON
	// Serialization: a JSON object carrying "ciphertext".
	FormatJWEJSON
)

// detectFormat classifies data without fully parsing it, following the
// same rule a reader applies by eye: count the dots in a compact
// token, or look at which top-level JSON member the object carries.
func detectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if trimmed[0] == '{' {
		return detectJSONFormat(trimmed)
	}
	switch bytes.Count(trimmed, []byte{'.'}) {
	case 2:
		return FormatJWSCompact
	case 4:
		return FormatJWECompact
	default:
		return FormatUnknown
	}
}

func detectJSONFormat(data []byte) Format {
	var probe struct {
		Signature  json.RawMessage `json:"signature"`
		Signatures json.RawMessage `json:"signatures"`
		Ciphertext json.RawMessage `json:"ciphertext"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return FormatUnknown
	}
	switch {
	case probe.Ciphertext != nil:
		return FormatJWEJSON
	case probe.Signature != nil || probe.Signatures != nil:
		return FormatJWSJSON
	default:
		return FormatUnknown
	}
}
