package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPClient is used by DoGet.
var DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string // first bytes of the response, for diagnostics
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// DoGet performs a GET with DefaultHTTPClient.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	return DoGetWith(ctx, DefaultHTTPClient, url, headers)
}

// DoGetWith performs a GET request and returns the open body on 2xx.
// The caller must close it. Other statuses return a *StatusError with the
// body already closed.
func DoGetWith(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, resp.StatusCode, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return resp.Body, resp.StatusCode, nil
}
