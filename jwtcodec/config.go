package jwtcodec

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding"
)

// Codec issues and verifies tokens. It holds no key material and is
// immutable after New, so a single Codec may be shared between goroutines.
type Codec struct {
	now               func() time.Time
	leeway            time.Duration
	logger            *slog.Logger
	allowedAlgorithms map[string]struct{}
	charset           encoding.Encoding
	lenient           bool
	minKeyLength      int
	defaultHeader     *Map
}

// Option is a functional option for configuring a Codec
type Option func(*Codec) error

// New creates a new immutable Codec with the given options
func New(opts ...Option) (*Codec, error) {
	c := &Codec{
		now:               time.Now,
		allowedAlgorithms: map[string]struct{}{AlgHS256: {}},
		charset:           defaultFallbackCharset,
		minKeyLength:      1,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, NewCodecError(ErrCodeConfig, fmt.Sprintf("configuration error: %v", err), err)
		}
	}

	if len(c.allowedAlgorithms) == 0 {
		return nil, NewCodecError(ErrCodeConfig, "at least one algorithm must be allowed", nil)
	}

	if c.defaultHeader != nil {
		if err := c.checkHeaderAlgorithm(c.defaultHeader); err != nil {
			return nil, NewCodecError(ErrCodeConfig, "default header rejected", err)
		}
	}

	return c, nil
}

// WithClock sets the time source used for exp/nbf checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.now = now
		return nil
	}
}

// WithLeeway sets a tolerance applied to exp/nbf. The default is zero.
func WithLeeway(leeway time.Duration) Option {
	return func(c *Codec) error {
		if leeway < 0 {
			return fmt.Errorf("leeway must be non-negative, got %v", leeway)
		}
		c.leeway = leeway
		return nil
	}
}

// WithLogger sets a structured logger for verification events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) error {
		c.logger = logger
		return nil
	}
}

// WithAllowedAlgorithms replaces the set of header alg values accepted on
// decode and on encode with a custom header. Only HS256 can be computed.
func WithAllowedAlgorithms(algs ...string) Option {
	return func(c *Codec) error {
		allowed := make(map[string]struct{}, len(algs))
		for _, alg := range algs {
			if strings.EqualFold(alg, "none") {
				return fmt.Errorf("none algorithm is prohibited")
			}
			if alg != AlgHS256 {
				return fmt.Errorf("algorithm %s is not supported (available: %s)", alg, AlgHS256)
			}
			allowed[alg] = struct{}{}
		}
		c.allowedAlgorithms = allowed
		return nil
	}
}

// WithFallbackCharset sets the charset used to reinterpret strings that are
// not valid UTF-8. The default is ISO-8859-1.
func WithFallbackCharset(charset encoding.Encoding) Option {
	return func(c *Codec) error {
		if charset == nil {
			return fmt.Errorf("fallback charset cannot be nil")
		}
		c.charset = charset
		return nil
	}
}

// WithLenientEncoding skips the byte-for-byte re-encoding check on decode.
// The signature is still verified over the received bytes, so tokens from
// issuers whose JSON layout differs from this codec's are accepted.
func WithLenientEncoding() Option {
	return func(c *Codec) error {
		c.lenient = true
		return nil
	}
}

// WithMinKeyLength rejects keys shorter than n bytes. Keys are always
// required to be non-empty.
func WithMinKeyLength(n int) Option {
	return func(c *Codec) error {
		if n < 1 {
			return fmt.Errorf("minimum key length must be at least 1, got %d", n)
		}
		c.minKeyLength = n
		return nil
	}
}

// WithDefaultHeader replaces the header used when Encode is given none.
// The header is copied; later changes to it do not affect the codec.
func WithDefaultHeader(header *Map) Option {
	return func(c *Codec) error {
		if header == nil {
			return fmt.Errorf("default header cannot be nil")
		}
		c.defaultHeader = header.clone()
		return nil
	}
}

// AllowedAlgorithms returns a sorted list of accepted alg values
func (c *Codec) AllowedAlgorithms() []string {
	algs := make([]string, 0, len(c.allowedAlgorithms))
	for alg := range c.allowedAlgorithms {
		algs = append(algs, alg)
	}
	sort.Strings(algs)
	return algs
}

func (c *Codec) Leeway() time.Duration {
	return c.leeway
}

func (c *Codec) Logger() *slog.Logger {
	return c.logger
}

// DefaultHeader returns a fresh copy of the header used when none is given
func DefaultHeader() *Map {
	return NewMap().Set("typ", "JWT").Set("alg", AlgHS256)
}

func (c *Codec) header() *Map {
	if c.defaultHeader != nil {
		return c.defaultHeader
	}
	return DefaultHeader()
}

// checkHeaderAlgorithm rejects headers whose alg is missing, not a string,
// or not allowed
func (c *Codec) checkHeaderAlgorithm(header *Map) error {
	raw, exists := header.Get("alg")
	if !exists {
		return NewCodecError(ErrCodeUnsupportedAlgorithm, "missing algorithm in header", nil)
	}
	alg, ok := raw.(string)
	if !ok {
		return NewCodecError(ErrCodeUnsupportedAlgorithm, "algorithm header must be a string", nil)
	}
	if _, allowed := c.allowedAlgorithms[alg]; !allowed {
		return NewCodecError(
			ErrCodeUnsupportedAlgorithm,
			fmt.Sprintf("algorithm %s not allowed (available: %s)", alg, strings.Join(c.AllowedAlgorithms(), ", ")),
			nil,
		)
	}
	return nil
}

func (c *Codec) checkKey(key []byte) error {
	if len(key) < c.minKeyLength {
		if len(key) == 0 {
			return NewCodecError(ErrCodeInvalidKey, "key cannot be empty", nil)
		}
		return NewCodecError(ErrCodeInvalidKey, fmt.Sprintf("key must be at least %d bytes, got %d bytes", c.minKeyLength, len(key)), nil)
	}
	return nil
}
