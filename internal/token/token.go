// internal/token/token.go
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Structural errors returned by Decode. Callers use errors.Is to classify;
// a cookie that fails decoding is simply not a JWT and is excluded from the
// audit, never treated as fatal.
var (
	// ErrMalformedSegments indicates the raw value does not split into
	// exactly three non-empty dot-separated segments.
	ErrMalformedSegments = errors.New("token: malformed segments")
	// ErrBadEncoding indicates a header or payload segment is not valid
	// base64url.
	ErrBadEncoding = errors.New("token: bad base64url encoding")
	// ErrBadHeaderFormat indicates the header segment did not parse as a
	// JSON object carrying an "alg" field.
	ErrBadHeaderFormat = errors.New("token: bad header format")
)

// Algorithm is the closed set of signing algorithms the cracker understands.
// Anything outside the symmetric HMAC family (including "none" and the
// asymmetric RS*/ES*/PS* families) maps to Unsupported.
type Algorithm int

const (
	Unsupported Algorithm = iota
	HS256
	HS384
	HS512
)

// String returns the RFC 7518 tag for supported algorithms.
func (a Algorithm) String() string {
	switch a {
	case HS256:
		return "HS256"
	case HS384:
		return "HS384"
	case HS512:
		return "HS512"
	default:
		return "unsupported"
	}
}

// Supported reports whether the cracking engine can attack this algorithm.
func (a Algorithm) Supported() bool {
	return a == HS256 || a == HS384 || a == HS512
}

// parseAlgorithm maps a header "alg" tag onto the closed enumeration.
// Tags are case-sensitive per RFC 7515; "hs256" is not a valid HS256.
func parseAlgorithm(tag string) Algorithm {
	switch tag {
	case "HS256":
		return HS256
	case "HS384":
		return HS384
	case "HS512":
		return HS512
	default:
		return Unsupported
	}
}

// Token is a structurally valid compact JWT. The three raw segments are kept
// in their original base64url form: the verifier signs over
// RawHeader.RawPayload and compares against RawSignature byte for byte, so
// re-encoding must never happen after decode.
type Token struct {
	// Raw is the full compact serialization as captured from the cookie.
	Raw string

	RawHeader    string
	RawPayload   string
	RawSignature string

	// Header is the decoded JOSE header. Always contains "alg".
	Header map[string]interface{}
	// Claims is the decoded payload, when it parses as a JSON object.
	// A payload that is valid base64url but not a JSON object leaves
	// Claims nil; that does not make the token structurally invalid.
	Claims map[string]interface{}

	Algorithm Algorithm
}

// SigningInput returns the bytes the signature was computed over.
func (t *Token) SigningInput() []byte {
	return []byte(t.RawHeader + "." + t.RawPayload)
}

// Decode parses a raw cookie value into a Token. It is a pure function: no
// I/O, no shared state. Inputs that are not JWT-shaped fail with one of the
// structural sentinel errors and produce no Token.
func Decode(raw string) (*Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: got %d segments", ErrMalformedSegments, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty segment", ErrMalformedSegments)
		}
	}

	headerBytes, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadEncoding, err)
	}
	payloadBytes, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrBadEncoding, err)
	}

	var header map[string]interface{}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeaderFormat, err)
	}
	alg, ok := header["alg"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing alg field", ErrBadHeaderFormat)
	}

	t := &Token{
		Raw:          raw,
		RawHeader:    parts[0],
		RawPayload:   parts[1],
		RawSignature: parts[2],
		Header:       header,
		Algorithm:    parseAlgorithm(alg),
	}

	// Claims are best effort; non-object payloads are legal JWS.
	var claims map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &claims); err == nil {
		t.Claims = claims
	}

	return t, nil
}

// decodeSegment is a padding-tolerant base64url decoder. JWT segments are
// normally unpadded, but cookies captured in the wild sometimes carry the
// padded form.
func decodeSegment(seg string) ([]byte, error) {
	if n := len(seg) % 4; n > 0 {
		seg += strings.Repeat("=", 4-n)
	}
	return base64.URLEncoding.DecodeString(seg)
}
