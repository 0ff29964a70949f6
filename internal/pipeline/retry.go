package pipeline

import (
	"errors"
	"math/rand"
	"time"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

// IsRetryable checks if an error is worth retrying. Only transient
// provider failures qualify; alignment and document errors never do.
func IsRetryable(err error) bool {
	var pe *translate.ProviderError
	return errors.As(err, &pe) && pe.Retryable()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
