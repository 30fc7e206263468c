package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/willie68/go_vendortiles/internal/logging"
)

const (
	userAgent      = "go_vendortiles/0.1"
	defaultRetries = 3
	defaultTimeout = 30
	maxBackoff     = 5 * time.Second
)

// fetcher loads tiles from a http tile server
type fetcher struct {
	log     *slog.Logger
	cl      *http.Client
	headers map[string]string
	retries int // additional attempts on server errors
	backoff time.Duration
}

func newFetcher(config Config) *fetcher {
	retries := config.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &fetcher{
		log: logging.New("fetch"),
		cl: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 64,
			},
		},
		headers: config.Headers,
		retries: retries,
		backoff: 200 * time.Millisecond,
	}
}

func setDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
}

// get requests the url and returns the body on status 200. Server errors are
// retried up to f.retries times after the first attempt.
func (f *fetcher) get(ctx context.Context, u string) (io.ReadCloser, error) {
	sleep := f.backoff
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleep):
			}
			sleep = min(sleep*2, maxBackoff)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
		setDefaultHeaders(req)
		for key, value := range f.headers {
			req.Header.Set(key, value)
		}

		resp, err := f.cl.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "tile request %s", u)
		}
		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		f.log.Error("error on tile request", "url", u, "status", resp.Status, "body", string(body))

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
			return nil, errors.Wrapf(ErrNoTile, "status %s", resp.Status)
		case resp.StatusCode < 500:
			return nil, errors.Errorf("tile error, status %s", resp.Status)
		}
		lastErr = errors.Errorf("tile error, status %s", resp.Status)
	}
	return nil, errors.Wrapf(lastErr, "ran out of retries for %s", u)
}
