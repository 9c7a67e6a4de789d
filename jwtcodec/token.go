package jwtcodec

import (
	"strings"
	"time"
)

// Reason explains why a decoded token is not valid. Reasons are reported
// in Result, never as errors.
type Reason string

const (
	ReasonInvalid          Reason = "Token invalid"
	ReasonExpired          Reason = "Token expired"
	ReasonNotBefore        Reason = "Token not before"
	ReasonAlgorithmBlocked Reason = "Token algorithm not allowed"
)

// tokenSegments is the number of dot-separated segments in a token
const tokenSegments = 3

// Result is the outcome of Decode. A Result with Valid false and nothing
// else set means the token did not have three segments.
type Result struct {
	Header *Map   `json:"header,omitempty"`
	Claims *Map   `json:"claimset,omitempty"`
	Hash   string `json:"hash,omitempty"`
	Valid  bool   `json:"valid"`
	Reason Reason `json:"error,omitempty"`
}

// Subject returns the sub claim, or "" when absent
func (r *Result) Subject() string {
	if r == nil {
		return ""
	}
	sub, _ := r.Claims.GetString("sub")
	return sub
}

// ExpiresAt returns the exp claim as a time
func (r *Result) ExpiresAt() (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	return numericDate(r.Claims, "exp")
}

// NotBefore returns the nbf claim as a time
func (r *Result) NotBefore() (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	return numericDate(r.Claims, "nbf")
}

// IssuedAt returns the iat claim as a time
func (r *Result) IssuedAt() (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	return numericDate(r.Claims, "iat")
}

// Encode produces header.payload.signature for claims, signed with key. A
// nil header selects the codec's default, {"typ":"JWT","alg":"HS256"}.
func (c *Codec) Encode(claims *Map, key []byte, header *Map) (string, error) {
	if err := c.checkKey(key); err != nil {
		return "", err
	}

	if header == nil {
		header = c.header()
	} else if err := c.checkHeaderAlgorithm(header); err != nil {
		return "", err
	}
	if claims == nil {
		claims = NewMap()
	}

	headerEncoded, err := c.encodeSegment(header)
	if err != nil {
		return "", err
	}
	payloadEncoded, err := c.encodeSegment(claims)
	if err != nil {
		return "", err
	}

	signature, err := sign(headerEncoded, payloadEncoded, key)
	if err != nil {
		return "", err
	}

	return headerEncoded + "." + payloadEncoded + "." + signature, nil
}

// Decode parses token and verifies it against key.
//
// Verification failures (bad signature, wrong key, expiry, not-before,
// disallowed algorithm) are reported through Result.Valid and
// Result.Reason with a nil error. An error is returned only for an
// unusable key, or when a correctly signed token carries a segment that is
// not base64url or not a JSON object.
func (c *Codec) Decode(token string, key []byte) (*Result, error) {
	started := time.Now()

	if err := c.checkKey(key); err != nil {
		return nil, err
	}

	result, err := c.decode(token, key)
	c.logVerification(token, result, err, started)
	return result, err
}

func (c *Codec) decode(token string, key []byte) (*Result, error) {
	parts := strings.Split(token, ".")
	if len(parts) != tokenSegments {
		return &Result{Valid: false}, nil
	}

	signed := verifySignature(parts[0], parts[1], parts[2], key)
	header, headerErr := decodeSegment(parts[0])
	claims, claimsErr := decodeSegment(parts[1])

	result := &Result{Hash: parts[2]}

	if !signed {
		// Unauthenticated bytes are reported, not raised
		if headerErr == nil {
			result.Header = header
		}
		if claimsErr == nil {
			result.Claims = claims
		}
		result.Reason = ReasonInvalid
		return result, nil
	}

	if headerErr != nil {
		return nil, headerErr
	}
	if claimsErr != nil {
		return nil, claimsErr
	}
	result.Header = header
	result.Claims = claims

	if err := c.checkHeaderAlgorithm(header); err != nil {
		result.Reason = ReasonAlgorithmBlocked
		return result, nil
	}

	if !c.lenient && !c.reencodes(header, claims, parts[0], parts[1]) {
		result.Reason = ReasonInvalid
		return result, nil
	}

	if reason := c.validateTemporal(claims); reason != "" {
		result.Reason = reason
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// reencodes reports whether the decoded header and claims encode back to
// exactly the received segments
func (c *Codec) reencodes(header, claims *Map, headerEncoded, payloadEncoded string) bool {
	h, err := c.encodeSegment(header)
	if err != nil || h != headerEncoded {
		return false
	}
	p, err := c.encodeSegment(claims)
	return err == nil && p == payloadEncoded
}

func (c *Codec) encodeSegment(m *Map) (string, error) {
	data, err := serializeJSON(normalizeText(m, c.charset))
	if err != nil {
		return "", err
	}
	return EncodeBase64URL(data), nil
}

func decodeSegment(segment string) (*Map, error) {
	data, err := DecodeBase64URL(segment)
	if err != nil {
		return nil, err
	}
	return parseJSON(data)
}

var defaultCodec = func() *Codec {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}()

// Encode issues a token with the default Codec
func Encode(claims *Map, key []byte, header *Map) (string, error) {
	return defaultCodec.Encode(claims, key, header)
}

// Decode verifies a token with the default Codec
func Decode(token string, key []byte) (*Result, error) {
	return defaultCodec.Decode(token, key)
}
