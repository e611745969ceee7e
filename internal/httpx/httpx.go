// Package httpx builds the HTTP client shared by the resolvers and the downloader.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultUserAgent = "apodwall/0.1"

	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second
)

// Options configure NewClient.
type Options struct {
	UserAgent string
	// RetryMax is the number of immediate re-attempts after a transport error
	// (not counting the first try). Only replayable requests are retried.
	RetryMax int
}

// Transport stamps a User-Agent on each request and retries replayable
// requests that fail before a response arrives.
type Transport struct {
	Base      http.RoundTripper
	UserAgent string
	RetryMax  int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	retries := t.RetryMax
	if retries < 0 || !canRetry {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}
		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewClient returns a client without an overall timeout: large image bodies are
// bounded by the caller's context instead.
func NewClient(opts Options) *http.Client {
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSHandshakeTimeout = tlsHandshakeTimeout
	base.ResponseHeaderTimeout = responseHeaderTimeout
	return &http.Client{
		Transport: &Transport{
			Base:      base,
			UserAgent: ua,
			RetryMax:  opts.RetryMax,
		},
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.StatusCode)
}

// CheckStatus returns a *StatusError unless resp carries a 2xx status.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &StatusError{URL: u, StatusCode: resp.StatusCode}
}
