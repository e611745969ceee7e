// Package pipeline runs one wallpaper cycle: resolve today's picture, skip it
// when nothing changed, download it, apply it, and record it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/five82/apodwall/internal/source"
	"github.com/five82/apodwall/internal/wallpaper"
)

// CacheBaseName is the stem of the single cached image file.
const CacheBaseName = "apod_image"

// AllowedExtensions lists the image types handed to the wallpaper applier.
var AllowedExtensions = []string{".jpg", ".png", ".bmp"}

// StateStore is the durable record of the last applied URL.
type StateStore interface {
	LastURL() (string, error)
	SetLastURL(url string) error
}

// Fetcher downloads url to dest without ever exposing a partial dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Outcome describes what a cycle decided.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeApplied
	OutcomeNoCandidate
	OutcomeUnchanged
	OutcomeUnsupported
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoCandidate:
		return "no candidate"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUnsupported:
		return "unsupported extension"
	default:
		return "none"
	}
}

// Result reports a completed cycle. Path is set only when Outcome is OutcomeApplied.
type Result struct {
	Outcome Outcome
	URL     string
	Title   string
	Path    string
}

// Pipeline wires the cycle's collaborators together.
type Pipeline struct {
	resolver source.Resolver
	state    StateStore
	fetcher  Fetcher
	applier  wallpaper.Applier
	cacheDir string
}

// New builds a Pipeline that caches images in cacheDir.
func New(resolver source.Resolver, state StateStore, fetcher Fetcher, applier wallpaper.Applier, cacheDir string) (*Pipeline, error) {
	switch {
	case resolver == nil:
		return nil, errors.New("pipeline requires a resolver")
	case state == nil:
		return nil, errors.New("pipeline requires a state store")
	case fetcher == nil:
		return nil, errors.New("pipeline requires a fetcher")
	case applier == nil:
		return nil, errors.New("pipeline requires an applier")
	case strings.TrimSpace(cacheDir) == "":
		return nil, errors.New("pipeline requires a cache directory")
	}
	return &Pipeline{
		resolver: resolver,
		state:    state,
		fetcher:  fetcher,
		applier:  applier,
		cacheDir: cacheDir,
	}, nil
}

// Run executes one cycle. The state store is written only after the wallpaper
// was applied successfully, so a failed or cancelled cycle is retried in full
// on the next run.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	logger := slogcontext.FromCtx(ctx).With("source", p.resolver.Name())

	lastURL, err := p.state.LastURL()
	if err != nil {
		// An unreadable record only costs one redundant download.
		logger.Warn("read last applied url", "error", err)
		lastURL = ""
	}

	candidate, err := p.resolver.Resolve(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{URL: candidate.URL(), Title: candidate.Title}

	if res.URL == "" {
		logger.Info("no image published", "media_type", candidate.MediaType, "date", candidate.Date)
		res.Outcome = OutcomeNoCandidate
		return res, nil
	}
	if res.URL == lastURL {
		logger.Debug("image unchanged", "url", res.URL)
		res.Outcome = OutcomeUnchanged
		return res, nil
	}
	ext, ok := ImageExtension(res.URL)
	if !ok {
		logger.Info("skipping unsupported image type", "url", res.URL, "ext", ext)
		res.Outcome = OutcomeUnsupported
		return res, nil
	}

	dest := filepath.Join(p.cacheDir, CacheBaseName+ext)
	logger.Info("downloading image", "url", res.URL, "dest", dest, "title", candidate.Title)
	if err := p.fetcher.Fetch(ctx, res.URL, dest); err != nil {
		return res, err
	}
	if err := p.applier.Apply(ctx, dest); err != nil {
		return res, err
	}
	if err := p.state.SetLastURL(res.URL); err != nil {
		return res, fmt.Errorf("commit last applied url: %w", err)
	}

	res.Outcome = OutcomeApplied
	res.Path = dest
	p.removeStale(ctx, dest)
	logger.Info("wallpaper applied", "url", res.URL, "path", dest)
	return res, nil
}

// removeStale deletes cached images left behind under another extension so
// only the current file remains.
func (p *Pipeline) removeStale(ctx context.Context, keep string) {
	for _, ext := range AllowedExtensions {
		candidate := filepath.Join(p.cacheDir, CacheBaseName+ext)
		if candidate == keep {
			continue
		}
		if err := os.Remove(candidate); err != nil && !errors.Is(err, os.ErrNotExist) {
			slogcontext.FromCtx(ctx).Warn("remove stale cache file", "path", candidate, "error", err)
		}
	}
}

// ImageExtension returns the lower-cased extension of rawURL's path and
// whether it is one of AllowedExtensions. Query and fragment are ignored.
func ImageExtension(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, true
		}
	}
	return ext, false
}
