package jwtcodec

import (
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AlgHS256 is the only algorithm the codec can compute
	AlgHS256 = "HS256"

	// signatureHexLength is the length of a hex-encoded SHA-256 HMAC
	signatureHexLength = 64
)

// sign computes HMAC-SHA256 over headerEncoded+payloadEncoded (no
// separator) and returns it as lowercase hex. The hex form differs from
// RFC 7519, which base64url-encodes the signature; existing tokens depend
// on it.
func sign(headerEncoded, payloadEncoded string, key []byte) (string, error) {
	sum, err := jwt.SigningMethodHS256.Sign(headerEncoded+payloadEncoded, key)
	if err != nil {
		return "", NewCodecError(ErrCodeInvalidKey, "unable to compute signature", err)
	}
	return hex.EncodeToString(sum), nil
}

// verifySignature checks the presented hex signature against the received
// segments. The MAC comparison is constant-time.
func verifySignature(headerEncoded, payloadEncoded, signature string, key []byte) bool {
	if !isLowerHex(signature) {
		return false
	}
	sum, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return jwt.SigningMethodHS256.Verify(headerEncoded+payloadEncoded, sum, key) == nil
}

// isLowerHex reports whether s has the exact shape sign produces
func isLowerHex(s string) bool {
	if len(s) != signatureHexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
