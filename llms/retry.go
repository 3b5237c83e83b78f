package llms

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/kadirpekel/minion/internal/httpclient"
	"github.com/kadirpekel/minion/schema"
)

// RetryPolicy bounds the capped exponential backoff applied to transient
// provider errors. Non-transient errors (auth, bad request, context
// overflow) always propagate immediately, per §4.2.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the teacher's own conservative backoff
// bounds (a handful of attempts, capped at a few seconds).
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 4, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// isTransient reports whether err is worth retrying: rate limiting or a
// RetryableError signalled by the transport layer.
func isTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var re *httpclient.RetryableError
	return errors.As(err, &re) && re.IsRetryable()
}

// retrying wraps a Provider so Generate retries transient failures with
// capped exponential backoff. GenerateStream and GenerateStreamResponse
// pass straight through to the wrapped Provider without retry: a partial
// stream cannot be safely replayed without duplicating already-emitted
// chunks.
type retrying struct {
	Provider
	policy RetryPolicy
}

// WithRetry wraps p so that only transient errors are retried, with
// capped exponential backoff, up to policy.MaxAttempts.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	return &retrying{Provider: p, policy: policy}
}

func (r *retrying) Generate(ctx context.Context, messages []schema.Message, opts GenerateOptions) (Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		resp, err := r.Provider.Generate(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isTransient(err) {
			return Response{}, err
		}
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(r.policy.delay(attempt)):
		}
	}
	return Response{}, lastErr
}
