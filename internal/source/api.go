package source

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/five82/apodwall/internal/fault"
	"github.com/five82/apodwall/internal/httpx"
)

// apodResponse is the subset of the APOD API payload we read. Every field is
// optional; a day without an image simply omits both URLs.
type apodResponse struct {
	HDURL     string `json:"hdurl"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	MediaType string `json:"media_type"`
}

// maxResponseBytes bounds how much of the API response is read.
const maxResponseBytes = 1 << 20

// APIResolver reads the structured APOD endpoint.
type APIResolver struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Resolver = (*APIResolver)(nil)

// NewAPIResolver builds a resolver for endpoint. An empty endpoint uses
// APIEndpoint and an empty key uses DefaultAPIKey.
func NewAPIResolver(client *http.Client, endpoint, apiKey string) *APIResolver {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = APIEndpoint
	}
	if strings.TrimSpace(apiKey) == "" {
		apiKey = DefaultAPIKey
	}
	if client == nil {
		client = httpx.NewClient(httpx.Options{})
	}
	return &APIResolver{endpoint: endpoint, apiKey: strings.TrimSpace(apiKey), http: client}
}

func (r *APIResolver) Name() string { return KindAPI }

// Resolve fetches today's entry: hdurl becomes the primary URL, url the fallback.
func (r *APIResolver) Resolve(ctx context.Context) (Candidate, error) {
	const op = "resolve api"

	reqURL, err := r.requestURL()
	if err != nil {
		return Candidate{}, fault.Wrap(fault.SourceMalformed, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactKey(urlErr.URL)
		}
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httpx.CheckStatus(resp); err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) {
			statusErr.URL = redactKey(statusErr.URL)
		}
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, fmt.Errorf("read response: %w", err))
	}
	var payload apodResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Candidate{}, fault.Wrap(fault.SourceMalformed, op, fmt.Errorf("decode response: %w", err))
	}

	return Candidate{
		Primary:   strings.TrimSpace(payload.HDURL),
		Fallback:  strings.TrimSpace(payload.URL),
		Title:     strings.TrimSpace(payload.Title),
		Date:      strings.TrimSpace(payload.Date),
		MediaType: strings.TrimSpace(payload.MediaType),
	}, nil
}

// requestURL keeps any query already present on the endpoint and sets api_key.
func (r *APIResolver) requestURL() (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", r.endpoint, err)
	}
	q := u.Query()
	q.Set("api_key", r.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redactKey replaces the api_key query value so the key never reaches error
// text, logs or the status view.
func redactKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("api_key") {
		return raw
	}
	q.Set("api_key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
