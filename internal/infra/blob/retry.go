package blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"devexchange-service/internal/domain"
)

// Store is the blob contract shared by every backend.
type Store interface {
	Upload(ctx context.Context, container, name, contentType string, body io.Reader) (string, error)
	Download(ctx context.Context, container, name string) ([]byte, error)
	Delete(ctx context.Context, container, name string) error
}

// DefaultRetries is how many times a failed download is retried.
const DefaultRetries = 3

// Retrying retries downloads with linear backoff (1s, 2s, 3s...). Uploads and
// deletes pass straight through. A missing blob is never retried.
type Retrying struct {
	next    Store
	retries int
	step    time.Duration
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Store, logger *slog.Logger) *Retrying {
	return &Retrying{
		next:    next,
		retries: DefaultRetries,
		step:    time.Second,
		logger:  logger,
		sleep:   sleepContext,
	}
}

func (r *Retrying) Upload(ctx context.Context, container, name, contentType string, body io.Reader) (string, error) {
	return r.next.Upload(ctx, container, name, contentType, body)
}

func (r *Retrying) Delete(ctx context.Context, container, name string) error {
	return r.next.Delete(ctx, container, name)
}

func (r *Retrying) Download(ctx context.Context, container, name string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * r.step
			r.logger.Warn("retrying blob download",
				"container", container,
				"name", name,
				"attempt", attempt,
				"wait", wait.String(),
				"err", lastErr)
			if err := r.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		data, err := r.next.Download(ctx, container, name)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, domain.ErrBlobNotFound) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
