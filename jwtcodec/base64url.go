package jwtcodec

import (
	"encoding/base64"
	"strings"
)

// EncodeBase64URL encodes b with the URL-safe alphabet and no padding
// (RFC 4648 section 5).
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL reverses EncodeBase64URL. The input is right-padded with
// '=' to a multiple of four before decoding.
func DecodeBase64URL(s string) ([]byte, error) {
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, NewCodecError(ErrCodeMalformedEncoding, "segment is not valid base64url", err)
	}
	return b, nil
}
