package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// APIError is a non-2xx response from an upstream provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// retryableStatuses are the transient upstream failures worth retrying.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	529: true,
}

// IsRetryable reports whether an error is a transient upstream failure.
// Auth and client errors are terminal.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatuses[apiErr.StatusCode]
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// RetryPolicy retries an operation with exponential backoff. The
// classifier and narrator calls use distinct budgets.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// ClassifierRetry is the fast-call budget.
var ClassifierRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

// NarratorRetry is the slow-call budget.
var NarratorRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second}

// Do runs fn, retrying transient failures until the attempt budget is
// spent. The last error is returned unwrapped so callers can inspect it.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.BaseDelay * (1 << (attempt - 1))
			logger.Warn("retrying after transient failure",
				"op", op, "attempt", attempt, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
	}
	return err
}
