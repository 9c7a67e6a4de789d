package jwtcodec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// TestNewCodecOptions tests option validation
func TestNewCodecOptions(t *testing.T) {
	tests := []struct {
		name        string
		options     []Option
		wantErr     bool
		errContains string
		description string
	}{
		{
			name:        "Defaults",
			options:     nil,
			description: "Should build a codec without options",
		},
		{
			name:        "All options",
			options:     []Option{WithClock(time.Now), WithLeeway(time.Minute), WithLogger(nil), WithAllowedAlgorithms("HS256"), WithFallbackCharset(charmap.Windows1252), WithLenientEncoding(), WithMinKeyLength(32)},
			description: "Should accept every valid option",
		},
		{
			name:        "Negative leeway",
			options:     []Option{WithLeeway(-time.Second)},
			wantErr:     true,
			errContains: "leeway must be non-negative",
			description: "Should reject negative leeway",
		},
		{
			name:        "Nil clock",
			options:     []Option{WithClock(nil)},
			wantErr:     true,
			errContains: "clock cannot be nil",
			description: "Should reject nil clock",
		},
		{
			name:        "None algorithm",
			options:     []Option{WithAllowedAlgorithms("NONE")},
			wantErr:     true,
			errContains: "none algorithm is prohibited",
			description: "Should reject none in any case",
		},
		{
			name:        "Uncomputable algorithm",
			options:     []Option{WithAllowedAlgorithms("HS256", "RS256")},
			wantErr:     true,
			errContains: "RS256 is not supported",
			description: "Should reject algorithms the codec cannot compute",
		},
		{
			name:        "Empty allow-list",
			options:     []Option{WithAllowedAlgorithms()},
			wantErr:     true,
			errContains: "at least one algorithm must be allowed",
			description: "Should reject an empty allow-list",
		},
		{
			name:        "Nil charset",
			options:     []Option{WithFallbackCharset(nil)},
			wantErr:     true,
			errContains: "charset cannot be nil",
			description: "Should reject nil fallback charset",
		},
		{
			name:        "Zero minimum key length",
			options:     []Option{WithMinKeyLength(0)},
			wantErr:     true,
			errContains: "at least 1",
			description: "Should keep empty keys rejected",
		},
		{
			name:        "Nil default header",
			options:     []Option{WithDefaultHeader(nil)},
			wantErr:     true,
			errContains: "default header cannot be nil",
			description: "Should reject nil default header",
		},
		{
			name:        "Default header with foreign algorithm",
			options:     []Option{WithDefaultHeader(NewMap().Set("typ", "JWT").Set("alg", "HS512"))},
			wantErr:     true,
			errContains: "default header rejected",
			description: "Should reject a default header it would refuse on decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := New(tt.options...)

			if tt.wantErr {
				if err == nil {
					t.Errorf("%s: expected error containing %q, got nil", tt.description, tt.errContains)
					return
				}
				if !errors.Is(err, ErrConfig) {
					t.Errorf("%s: expected CONFIG_ERROR, got %v", tt.description, err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("%s: expected error containing %q, got %q", tt.description, tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.description, err)
			}
			if codec == nil {
				t.Fatalf("%s: expected codec, got nil", tt.description)
			}
		})
	}
}

func TestCodecAccessors(t *testing.T) {
	codec, err := New(WithLeeway(30 * time.Second))
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}

	if got := codec.AllowedAlgorithms(); len(got) != 1 || got[0] != AlgHS256 {
		t.Errorf("AllowedAlgorithms() = %v, want [HS256]", got)
	}
	if codec.Leeway() != 30*time.Second {
		t.Errorf("Leeway() = %v, want 30s", codec.Leeway())
	}
	if codec.Logger() != nil {
		t.Error("Logger() should be nil by default")
	}
}

func TestWithMinKeyLength(t *testing.T) {
	codec := newTestCodec(t, WithMinKeyLength(32))

	_, err := codec.Encode(NewMap(), []byte("short"), nil)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected INVALID_KEY, got %v", err)
	}
	if !strings.Contains(err.Error(), "at least 32 bytes") {
		t.Errorf("unexpected message: %v", err)
	}

	if _, err := codec.Decode("a.b.c", []byte("short")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected INVALID_KEY on decode, got %v", err)
	}

	if _, err := codec.Encode(NewMap(), []byte(strings.Repeat("k", 32)), nil); err != nil {
		t.Errorf("unexpected error for 32-byte key: %v", err)
	}
}

func TestWithDefaultHeader(t *testing.T) {
	header := NewMap().Set("alg", "HS256").Set("typ", "JWT").Set("kid", "primary")
	codec := newTestCodec(t, WithDefaultHeader(header))
	key := []byte("secret")

	token, err := codec.Encode(NewMap().Set("sub", "u1"), key, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := codec.Decode(token, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid token, got %q", result.Reason)
	}
	if kid, _ := result.Header.GetString("kid"); kid != "primary" {
		t.Errorf("kid = %q, want primary", kid)
	}
}

func TestWithDefaultHeader_Copied(t *testing.T) {
	header := NewMap().Set("typ", "JWT").Set("alg", "HS256").Set("ctx", NewMap().Set("env", "prod"))
	codec := newTestCodec(t, WithDefaultHeader(header))
	key := []byte("secret")

	header.Set("alg", "none").Set("kid", "late")
	nested, _ := header.Get("ctx")
	nested.(*Map).Set("env", "dev")

	token, err := codec.Encode(NewMap().Set("sub", "u1"), key, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := codec.Decode(token, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid token, got %q", result.Reason)
	}
	if alg, _ := result.Header.GetString("alg"); alg != "HS256" {
		t.Errorf("alg = %q, want HS256", alg)
	}
	if result.Header.Has("kid") {
		t.Error("key added after New leaked into the codec header")
	}
	ctx, _ := result.Header.Get("ctx")
	if env, _ := ctx.(*Map).GetString("env"); env != "prod" {
		t.Errorf("ctx.env = %q, want prod", env)
	}
}

func TestWithFallbackCharset(t *testing.T) {
	codec := newTestCodec(t, WithFallbackCharset(charmap.Windows1252))
	key := []byte("secret")

	token, err := codec.Encode(NewMap().Set("price", "\x805"), key, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := codec.Decode(token, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price, _ := result.Claims.GetString("price"); price != "€5" {
		t.Errorf("price = %q, want %q", price, "€5")
	}
}

func TestCodecError(t *testing.T) {
	inner := errors.New("boom")
	err := NewCodecError(ErrCodeMalformedPayload, "invalid JSON", inner)

	if err.Error() != "[MALFORMED_PAYLOAD] invalid JSON" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose the internal error")
	}
	if !errors.Is(err, ErrMalformedPayload) {
		t.Error("expected code match against sentinel")
	}
	if errors.Is(err, ErrMalformedEncoding) {
		t.Error("codes must not cross-match")
	}
	if errorCode(err) != "MALFORMED_PAYLOAD" || errorCode(inner) != "UNKNOWN" {
		t.Error("errorCode mismatch")
	}
}
