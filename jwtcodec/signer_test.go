package jwtcodec

import (
	"strings"
	"testing"
)

func TestSign_KnownVector(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	const want = "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"

	got, err := sign("The quick brown fox ", "jumps over the lazy dog", []byte("key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("sign() = %s, want %s", got, want)
	}
}

func TestSign_LowercaseHex(t *testing.T) {
	sig, err := sign("eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9", "e30", []byte("secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64", len(sig))
	}
	if !isLowerHex(sig) {
		t.Errorf("signature %q is not lowercase hex", sig)
	}
}

func TestVerifySignature(t *testing.T) {
	key := []byte("secret")
	header, payload := "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9", "eyJzdWIiOiJ1c2VyMTIzIn0"

	sig, err := sign(header, payload, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		header    string
		payload   string
		signature string
		key       []byte
		want      bool
	}{
		{name: "valid", header: header, payload: payload, signature: sig, key: key, want: true},
		{name: "wrong key", header: header, payload: payload, signature: sig, key: []byte("other"), want: false},
		{name: "uppercase hex", header: header, payload: payload, signature: strings.ToUpper(sig), key: key, want: false},
		{name: "truncated", header: header, payload: payload, signature: sig[:62], key: key, want: false},
		{name: "empty", header: header, payload: payload, signature: "", key: key, want: false},
		{name: "not hex", header: header, payload: payload, signature: strings.Repeat("z", 64), key: key, want: false},
		{name: "payload changed", header: header, payload: payload + "A", signature: sig, key: key, want: false},
		{name: "segments shifted", header: header + payload[:1], payload: payload[1:], signature: sig, key: key, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifySignature(tt.header, tt.payload, tt.signature, tt.key); got != tt.want {
				t.Errorf("verifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
