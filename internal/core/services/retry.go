package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

// maxAttempts bounds how often a command is replayed after its write lost a
// version race outside the repository's own locking.
const maxAttempts = 5

// withRetry runs attempt until it succeeds, fails with anything other than
// domain.ErrConflict, or runs out of attempts. Each attempt must reload the
// aggregate so the command is applied to the current state.
func withRetry[T any](ctx context.Context, attempt func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := attempt()
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return zero, err
		}
		lastErr = err
	}
	return zero, fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
}
