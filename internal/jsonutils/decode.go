// Package jsonutils decodes the loosely-typed map[string]any a
// standard json.Unmarshal produces into the strongly-typed fields JWK
// and JOSE header parsing need, tracking the first error encountered
// so callers can extract several fields before checking once.
package jsonutils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/url"
	"reflect"
	"strconv"
	"time"
)

// Unmarshal behaves like [json.Unmarshal] but decodes numbers as
// [json.Number] (so large integers and RSA moduli survive round-trip)
// and rejects trailing non-whitespace data after the JSON value.
func Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}

	r := dec.Buffered()
	var buf [16]byte
	for {
		n, err := r.Read(buf[:])
		if err != nil && err != io.EOF {
			return err
		}
		for _, b := range buf[:n] {
			switch b {
			case ' ', '\t', '\r', '\n':
				continue
			default:
				return fmt.Errorf("jsonutils: trailing data")
			}
		}
		if err == io.EOF {
			return nil
		}
	}
}

var b64 = base64.RawURLEncoding

// Decoder pulls typed fields out of a parsed JSON object one name at a
// time, recording the first decoding error rather than failing on the
// spot, so a caller can decode every field of a key or header before
// deciding whether anything went wrong.
type Decoder struct {
	pkg string
	raw map[string]any

	// reused scratch buffers for base64url decoding.
	src []byte
	dst []byte

	err error
}

// NewDecoder returns a Decoder over raw, an already json.Unmarshal'd
// object. pkg names the calling package and is embedded in error
// messages (e.g. "jwk: required parameter d is missing").
func NewDecoder(pkg string, raw map[string]any) *Decoder {
	return &Decoder{pkg: pkg, raw: raw}
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) typeMismatch(name, want string, got any) {
	d.fail(&typeError{pkg: d.pkg, name: name, want: want, got: reflect.TypeOf(got)})
}

func (d *Decoder) missing(name string) {
	d.fail(&missingError{pkg: d.pkg, name: name})
}

func (d *Decoder) grow(n int) {
	if cap(d.src) >= n {
		return
	}
	if n < 64 {
		n = 64
	}
	d.src = make([]byte, n)
	d.dst = make([]byte, b64.DecodedLen(n))
}

// Decode decodes s as unpadded base64url. The returned slice aliases
// the Decoder's scratch buffer and is only valid until the next call.
func (d *Decoder) Decode(s string, name string) []byte {
	d.grow(len(s))
	return d.decode(d.dst, s, name)
}

func (d *Decoder) decode(dst []byte, s, name string) []byte {
	d.grow(len(s))
	src := d.src[:len(s)]
	copy(src, s)
	n, err := b64.Decode(dst, src)
	if err != nil {
		d.fail(&base64DecodeError{pkg: d.pkg, name: name, err: err})
		return nil
	}
	return dst[:n]
}

// Has reports whether name is present in the decoded object.
func (d *Decoder) Has(name string) bool {
	_, ok := d.raw[name]
	return ok
}

// GetString returns the string field name, or ("", false) if absent.
func (d *Decoder) GetString(name string) (string, bool) {
	v, ok := d.raw[name]
	if !ok {
		return "", false
	}
	u, ok := v.(string)
	if !ok {
		d.typeMismatch(name, "string", v)
		return "", false
	}
	return u, true
}

// MustString returns the string field name, recording an error and
// returning "" if it is absent or not a string.
func (d *Decoder) MustString(name string) string {
	v, ok := d.raw[name]
	if !ok {
		d.missing(name)
		return ""
	}
	u, ok := v.(string)
	if !ok {
		d.typeMismatch(name, "string", v)
		return ""
	}
	return u
}

// GetBoolean returns the boolean field name, or (false, false) if absent.
func (d *Decoder) GetBoolean(name string) (bool, bool) {
	v, ok := d.raw[name]
	if !ok {
		return false, false
	}
	u, ok := v.(bool)
	if !ok {
		d.typeMismatch(name, "bool", v)
		return false, false
	}
	return u, true
}

// GetArray returns the array field name, or (nil, false) if absent.
func (d *Decoder) GetArray(name string) ([]any, bool) {
	v, ok := d.raw[name]
	if !ok {
		return nil, false
	}
	u, ok := v.([]any)
	if !ok {
		d.typeMismatch(name, "[]any", v)
		return nil, false
	}
	return u, true
}

// MustArray returns the array field name, recording an error and
// returning nil if it is absent or not an array.
func (d *Decoder) MustArray(name string) []any {
	v, ok := d.raw[name]
	if !ok {
		d.missing(name)
		return nil
	}
	u, ok := v.([]any)
	if !ok {
		d.typeMismatch(name, "[]any", v)
		return nil
	}
	return u
}

// GetObject returns the object field name, or (nil, false) if absent.
func (d *Decoder) GetObject(name string) (map[string]any, bool) {
	v, ok := d.raw[name]
	if !ok {
		return nil, false
	}
	u, ok := v.(map[string]any)
	if !ok {
		d.typeMismatch(name, "map[string]any", v)
		return nil, false
	}
	return u, true
}

// GetStringArray returns the array field name with every element
// required to be a string, or (nil, false) if absent.
func (d *Decoder) GetStringArray(name string) ([]string, bool) {
	array, ok := d.GetArray(name)
	if !ok {
		return nil, false
	}
	ret := make([]string, 0, len(array))
	for i, v := range array {
		s, ok := v.(string)
		if !ok {
			d.typeMismatch(name+"["+strconv.Itoa(i)+"]", "string", v)
			return nil, false
		}
		ret = append(ret, s)
	}
	return ret, true
}

// GetBytes decodes the base64url field name into bytes, or (nil,
// false) if absent.
func (d *Decoder) GetBytes(name string) ([]byte, bool) {
	s, ok := d.GetString(name)
	if !ok {
		return nil, false
	}
	buf := make([]byte, b64.DecodedLen(len(s)))
	return d.decode(buf, s, name), true
}

// MustBytes decodes the base64url field name into bytes, recording an
// error and returning nil if it is absent.
func (d *Decoder) MustBytes(name string) []byte {
	s, ok := d.GetString(name)
	if !ok {
		d.missing(name)
		return nil
	}
	buf := make([]byte, b64.DecodedLen(len(s)))
	return d.decode(buf, s, name)
}

// GetBigInt decodes the base64url, big-endian field name into a
// big.Int, or (nil, false) if absent.
func (d *Decoder) GetBigInt(name string) (*big.Int, bool) {
	s, ok := d.GetString(name)
	if !ok {
		return nil, false
	}
	data := d.Decode(s, name)
	if d.err != nil {
		return nil, false
	}
	return new(big.Int).SetBytes(data), true
}

// MustBigInt decodes the base64url, big-endian field name into a
// big.Int, recording an error and returning nil if it is absent.
func (d *Decoder) MustBigInt(name string) *big.Int {
	n, ok := d.GetBigInt(name)
	if !ok {
		d.missing(name)
		return nil
	}
	return n
}

// GetURL parses the string field name as a URL, or (nil, false) if absent.
func (d *Decoder) GetURL(name string) (*url.URL, bool) {
	s, ok := d.GetString(name)
	if !ok {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		d.fail(fmt.Errorf("%s: failed to parse the parameter %s as url: %v", d.pkg, name, err))
		return nil, false
	}
	return u, true
}

// GetTime parses the numeric field name as seconds since the Unix
// epoch (the NumericDate encoding JWT claims use), or (zero, false) if absent.
func (d *Decoder) GetTime(name string) (time.Time, bool) {
	v, ok := d.raw[name]
	if !ok {
		return time.Time{}, false
	}
	switch v := v.(type) {
	case json.Number:
		var t NumericDate
		if err := t.UnmarshalJSON([]byte(v)); err != nil {
			d.fail(fmt.Errorf("%s: failed to parse parameter %s", d.pkg, name))
			return time.Time{}, false
		}
		return t.Time, true
	case float64:
		i, f := math.Modf(v)
		return time.Unix(int64(i), int64(f*1e9)), true
	}
	d.typeMismatch(name, "number", v)
	return time.Time{}, false
}

// GetInt64 returns the numeric field name as an int64, or (0, false)
// if absent.
func (d *Decoder) GetInt64(name string) (int64, bool) {
	v, ok := d.raw[name]
	if !ok {
		return 0, false
	}
	switch v := v.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			d.fail(fmt.Errorf("%s: failed to parse integer parameter %s: %w", d.pkg, name, err))
			return 0, false
		}
		return i, true
	case float64:
		i, f := math.Modf(v)
		if f != 0 {
			d.fail(fmt.Errorf("%s: failed to parse integer parameter %s", d.pkg, name))
			return 0, false
		}
		if i > math.MaxInt64 || i < math.MinInt64 {
			d.fail(fmt.Errorf("%s: integer parameter %s is overflow", d.pkg, name))
			return 0, false
		}
		return int64(i), true
	}
	d.typeMismatch(name, "number", v)
	return 0, false
}

// MustInt64 returns the numeric field name as an int64, recording an
// error and returning 0 if it is absent.
func (d *Decoder) MustInt64(name string) int64 {
	n, ok := d.GetInt64(name)
	if !ok {
		d.missing(name)
		return 0
	}
	return n
}

// SaveError records err as the Decoder's first error if it is not nil
// and no earlier error has been recorded.
func (d *Decoder) SaveError(err error) {
	d.fail(err)
}

// Err returns the first error recorded during decoding, or nil.
func (d *Decoder) Err() error {
	return d.err
}

type base64DecodeError struct {
	pkg  string
	name string
	err  error
}

func (err *base64DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to parse the parameter %s as base64url: %v", err.pkg, err.name, err.err)
}

func (err *base64DecodeError) Unwrap() error {
	return err.err
}

type typeError struct {
	pkg  string
	name string
	want string
	got  reflect.Type
}

func (err *typeError) Error() string {
	return fmt.Sprintf("%s: want %s for the parameter %s but got %s", err.pkg, err.want, err.name, err.got.String())
}

type missingError struct {
	pkg  string
	name string
}

func (err *missingError) Error() string {
	return fmt.Sprintf("%s: required parameter %s is missing", err.pkg, err.name)
}
