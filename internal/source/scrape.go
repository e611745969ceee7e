package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/five82/apodwall/internal/fault"
	"github.com/five82/apodwall/internal/httpx"
)

// ImageMarker is the relative href prefix of the full-size picture link on the
// APOD landing page.
const ImageMarker = "image/"

// maxPageBytes bounds how much of the landing page is read.
const maxPageBytes = 4 << 20

// ScrapeResolver reads the APOD landing page when the API is unavailable or
// rate limited. It never yields a fallback URL.
type ScrapeResolver struct {
	pageURL string
	baseURL string
	http    *http.Client
}

var _ Resolver = (*ScrapeResolver)(nil)

// NewScrapeResolver builds a resolver for pageURL whose image links are
// relative to baseURL. Empty values use PageURL and PageBaseURL.
func NewScrapeResolver(client *http.Client, pageURL, baseURL string) *ScrapeResolver {
	if strings.TrimSpace(pageURL) == "" {
		pageURL = PageURL
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = PageBaseURL
	}
	if client == nil {
		client = httpx.NewClient(httpx.Options{})
	}
	return &ScrapeResolver{pageURL: pageURL, baseURL: baseURL, http: client}
}

func (r *ScrapeResolver) Name() string { return KindScrape }

// Resolve downloads the landing page and extracts the first image link.
func (r *ScrapeResolver) Resolve(ctx context.Context) (Candidate, error) {
	const op = "resolve scrape"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.pageURL, nil)
	if err != nil {
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "text/html")

	resp, err := r.http.Do(req)
	if err != nil {
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httpx.CheckStatus(resp); err != nil {
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, err)
	}
	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Candidate{}, fault.Wrap(fault.SourceUnavailable, op, fmt.Errorf("read page: %w", err))
	}

	rel, title := ExtractImageLink(page)
	if rel == "" {
		return Candidate{}, fault.New(fault.SourceMalformed, op, fmt.Sprintf("no %q link on %s", ImageMarker, r.pageURL))
	}
	return Candidate{
		Primary: r.baseURL + rel,
		Title:   title,
	}, nil
}

// ExtractImageLink returns the href of the first anchor whose target starts
// with ImageMarker, and the page title. It parses the markup first and falls
// back to a raw text scan so malformed pages still resolve. rel is "" when
// no such link exists.
func ExtractImageLink(page []byte) (rel, title string) {
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		title = strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if strings.HasPrefix(href, ImageMarker) {
				rel = href
				return false
			}
			return true
		})
		if rel != "" {
			return rel, title
		}
	}
	return scanImageLink(string(page)), title
}

// scanImageLink looks for href="image/... in the raw text and returns the
// substring from the marker up to the next quote.
func scanImageLink(text string) string {
	const needle = `href="` + ImageMarker
	idx := strings.Index(text, needle)
	if idx < 0 {
		return ""
	}
	start := idx + len(`href="`)
	end := strings.IndexByte(text[start:], '"')
	if end < 0 {
		return ""
	}
	return text[start : start+end]
}
