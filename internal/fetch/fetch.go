// Package fetch downloads source audio over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTooLarge is wrapped when the source exceeds the configured byte limit.
var ErrTooLarge = errors.New("source exceeds size limit")

// Error describes a failed retrieval: either a non-success status or a
// transport failure in Err.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Config struct {
	Timeout      time.Duration
	MaxRedirects int   // 0 disables redirects
	MaxBytes     int64 // 0 means unlimited
}

// Fetcher retrieves remote audio with a plain GET, following redirects.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

func New(cfg Config) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBytes: cfg.MaxBytes,
	}
}

// Fetch returns the full body of url. Any non-2xx response is an *Error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &Error{URL: url, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, &Error{URL: url, Err: fmt.Errorf("%w of %d bytes", ErrTooLarge, f.maxBytes)}
	}
	return data, nil
}
