package jwtcodec

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// VerificationEvent represents a structured log entry for one Decode call
type VerificationEvent struct {
	EventID      string        // Correlation ID
	Outcome      string        // "valid", "invalid" or "error"
	Timestamp    time.Time     // Event timestamp
	Subject      string        // sub claim (empty when unavailable)
	Algorithm    string        // alg header (empty when unavailable)
	Reason       string        // Reason or error code
	TokenPreview string        // Redacted token preview
	Latency      time.Duration // Decode latency
}

// LogValue implements slog.LogValuer for structured logging with redaction
func (e VerificationEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("event_id", e.EventID),
		slog.String("outcome", e.Outcome),
		slog.Time("timestamp", e.Timestamp),
		slog.String("subject", e.Subject),
		slog.String("algorithm", e.Algorithm),
		slog.String("reason", e.Reason),
		slog.String("token", redactToken(e.TokenPreview)),
		slog.Duration("latency", e.Latency),
	)
}

// redactToken redacts sensitive token data
func redactToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}

// logVerification emits a verification event via the configured logger
func (c *Codec) logVerification(token string, result *Result, err error, started time.Time) {
	if c.logger == nil {
		return // Logging disabled
	}

	event := VerificationEvent{
		EventID:      uuid.NewString(),
		Timestamp:    c.now(),
		TokenPreview: token,
		Latency:      time.Since(started),
	}

	switch {
	case err != nil:
		event.Outcome = "error"
		event.Reason = errorCode(err)
		c.logger.Error("token decode failed", "verification", event)
		return
	case result.Valid:
		event.Outcome = "valid"
	default:
		event.Outcome = "invalid"
		event.Reason = string(result.Reason)
	}

	event.Subject = result.Subject()
	if alg, ok := result.Header.GetString("alg"); ok {
		event.Algorithm = alg
	}

	if result.Valid {
		c.logger.Info("token verified", "verification", event)
	} else {
		c.logger.Warn("token rejected", "verification", event)
	}
}
