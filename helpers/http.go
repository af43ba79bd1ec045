package helpers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// HTTP client shared by all fetch helpers.
var (
	client = &http.Client{
		Timeout: 15 * time.Second,
	}
)

// Response holds the outcome of a completed HTTP exchange. Any status code,
// including 4xx/5xx, is a normal Response; only transport failures are errors.
type Response struct {
	Status int
	Body   []byte
}

// SetTransport replaces the underlying transport, e.g. to route requests
// through a forward proxy. Passing nil restores the default transport.
func SetTransport(rt http.RoundTripper) {
	client.Transport = rt
}

// Fetch performs a GET with the given headers and cookies and returns the
// status and raw body. It never treats an HTTP error status as a Go error,
// so callers can branch on 404 vs 503 themselves.
func Fetch(url string, headers map[string]string, cookies []*http.Cookie) (*Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// FetchWithRetry retries Fetch on transport errors and 5xx responses only.
// 4xx and 2xx/3xx return immediately. The delay between attempts grows
// linearly: baseDelay, 2*baseDelay, 3*baseDelay, ...
func FetchWithRetry(url string, headers map[string]string, cookies []*http.Cookie, maxAttempts int, baseDelay time.Duration) (*Response, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := Fetch(url, headers, cookies)
		if err == nil && resp.Status < 500 {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("fetch %s: server error %d", url, resp.Status)
		}

		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * baseDelay)
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

// DecodeToUTF8 converts a response body to UTF-8 based on the Content-Type
// hint and the body content itself. Bodies already in UTF-8 are returned
// unchanged.
func DecodeToUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to convert body to UTF-8: %w", err)
	}
	return buf.Bytes(), nil
}
