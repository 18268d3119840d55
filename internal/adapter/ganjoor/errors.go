package ganjoor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
	"github.com/ganjineh/ganjineh-backend/pkg/retry"
)

// StatusError is returned for non-2xx upstream responses. It carries the
// HTTP status so retry policies can classify it.
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ganjoor: %s: unexpected status %d", e.Path, e.Status)
}

// StatusCode satisfies retry.StatusCoder.
func (e *StatusError) StatusCode() int { return e.Status }

// mapError translates a transport failure, after the retry budget is spent,
// into the domain taxonomy: an upstream 404 means the entity does not exist,
// a retryable failure (5xx, 429, network) means the corpus is temporarily
// unreachable. Context errors and other statuses pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return fmt.Errorf("ganjoor: %s: %w", statusErr.Path, domain.ErrNotFound)
	}

	if retry.IsRetryable(err) {
		return fmt.Errorf("%v: %w", err, domain.ErrUnavailable)
	}

	return err
}
