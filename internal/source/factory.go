package source

import (
	"fmt"
	"net/http"
	"strings"
)

// New returns the resolver named by kind using the compiled source locations.
func New(kind string, client *http.Client, apiKey string) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAPI:
		return NewAPIResolver(client, APIEndpoint, apiKey), nil
	case KindScrape:
		return NewScrapeResolver(client, PageURL, PageBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want %q or %q)", kind, KindAPI, KindScrape)
	}
}
