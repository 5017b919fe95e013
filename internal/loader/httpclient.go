package loader

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client tuned for fetching report files.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{Timeout: timeout, Transport: tr}
}

// RetryPolicy controls how often and how patiently a fetch is retried.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// permanentError stops Retry from trying again.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retry runs fn until it succeeds, returns a permanent error, or attempts are exhausted.
// The delay doubles after every failure up to MaxBackoff.
func Retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	var permanent *permanentError

	d := p.Backoff
	attempts := max(p.Attempts, 1)

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}

			if d < p.MaxBackoff {
				d = min(d*2, p.MaxBackoff)
			}
		}

		if err = fn(); err == nil {
			return nil
		}
		if errors.As(err, &permanent) {
			return permanent.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return err
}
