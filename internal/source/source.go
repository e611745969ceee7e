package source

import (
	"context"
	"strings"
)

// Resolver turns a remote source into today's Candidate.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context) (Candidate, error)
}

// Candidate is the best-known URL for today's picture plus an optional
// lower-quality alternative.
type Candidate struct {
	Primary   string
	Fallback  string
	Title     string
	Date      string
	MediaType string
}

// URL returns Primary when usable, else Fallback, else "" (no candidate).
func (c Candidate) URL() string {
	if p := strings.TrimSpace(c.Primary); p != "" {
		return p
	}
	return strings.TrimSpace(c.Fallback)
}

// Empty reports whether the candidate carries no usable URL.
func (c Candidate) Empty() bool {
	return c.URL() == ""
}

// Compiled source locations. They are deliberately not configurable.
const (
	APIEndpoint   = "https://api.nasa.gov/planetary/apod"
	PageURL       = "https://apod.nasa.gov/apod/astropix.html"
	PageBaseURL   = "https://apod.nasa.gov/apod/"
	DefaultAPIKey = "DEMO_KEY"
)

// Kind names accepted by New.
const (
	KindAPI    = "api"
	KindScrape = "scrape"
)
