package translate

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned when the remote service rejects the call
	// because the request frequency limit was exceeded. It is the only
	// error worth retrying.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized is returned when the service rejects the configured
	// credentials. Not retryable.
	ErrUnauthorized = errors.New("unauthorized credentials")
)

// ProbeText is the fixed string translated to verify connectivity and
// credentials before any batch work begins.
const ProbeText = "测试"

// Translator translates a single Chinese text into English.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Probe performs a connectivity check against the translation service by
// translating a fixed known string. Any failure (including rate limiting)
// means the service is not usable for batch work.
func Probe(ctx context.Context, t Translator) error {
	if _, err := t.Translate(ctx, ProbeText); err != nil {
		return fmt.Errorf("translation service probe failed: %w", err)
	}
	return nil
}
