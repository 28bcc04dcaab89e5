package plugin

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	networkRetries      = 3
	networkRetryBackoff = 500 * time.Millisecond
)

// withNetworkRetry retries fn with exponential backoff. fn marks an error as
// retryable with retry.RetryableError.
func withNetworkRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(networkRetries, retry.NewExponential(networkRetryBackoff))
	return retry.Do(ctx, backoff, fn)
}
