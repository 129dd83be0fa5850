package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sidekick-labs/sidekick/ai"
)

// classifyError maps provider failures onto the ai package's sentinel errors
// so that retry policies can tell fatal failures from transient ones. Errors
// that match nothing are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key"):
		return fmt.Errorf("%w: %w", ai.ErrAuth, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	}
	return err
}
