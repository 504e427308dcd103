// Package fetch downloads the standings page.
//
// A fetch is a single blocking GET with fixed headers and a fixed timeout.
// There is no retry: a transport error or a non-2xx status ends the run.
// Bodies are decoded to UTF-8 from the charset the response declares.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// ErrStatus is matched by every StatusError.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Client fetches raw page markup.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates a client that sends headers on every request and gives
// up after timeout.
func NewClient(headers map[string]string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New()
	client.SetHeaders(headers)
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	return &Client{http: client, logger: logger}
}

// Fetch returns the body of url as a UTF-8 string.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}

	c.logger.Info("Fetched page",
		"url", url,
		"status", res.StatusCode(),
		"bytes", len(res.Body()),
		"duration", time.Since(start).Round(time.Millisecond))

	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return "", &StatusError{URL: url, StatusCode: res.StatusCode(), Body: truncate(res.Body(), 200)}
	}

	body, name, err := decode(res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode %s as %s: %w", url, name, err)
	}
	c.logger.Debug("Decoded page", "url", url, "charset", name)
	return body, nil
}

// decode converts body to UTF-8. A charset named in contentType wins; a
// <meta> declaration comes next. Without a declaration, bytes that already
// form valid UTF-8 are kept as they are and anything else is read as
// windows-1252. Invalid UTF-8 never leaves this function.
func decode(body []byte, contentType string) (string, string, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return strings.ToValidUTF8(string(body), "\uFFFD"), "utf-8", nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", name, err
	}
	return string(out), name, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
