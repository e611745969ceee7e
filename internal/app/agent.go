package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/five82/apodwall/internal/config"
	"github.com/five82/apodwall/internal/download"
	"github.com/five82/apodwall/internal/httpx"
	"github.com/five82/apodwall/internal/pipeline"
	"github.com/five82/apodwall/internal/source"
	"github.com/five82/apodwall/internal/state"
	"github.com/five82/apodwall/internal/wallpaper"
)

// agent adapts a pipeline run into a scheduler job and reports results to
// the status store.
type agent struct {
	pipeline *pipeline.Pipeline
	store    *state.Store
}

func newAgent(cfg config.Config, applier wallpaper.Applier, store *state.Store) (*agent, error) {
	client := httpx.NewClient(httpx.Options{RetryMax: cfg.HTTPRetries})
	resolver, err := source.New(cfg.Source, client, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("init source: %w", err)
	}
	return assemble(resolver, client, cfg, applier, store)
}

func assemble(resolver source.Resolver, client *http.Client, cfg config.Config, applier wallpaper.Applier, store *state.Store) (*agent, error) {
	p, err := pipeline.New(
		resolver,
		state.NewFile(cfg.StatePath),
		download.New(client),
		applier,
		cfg.CacheDir,
	)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	return &agent{pipeline: p, store: store}, nil
}

func (a *agent) cycle(ctx context.Context) error {
	res, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	if a.store != nil {
		a.store.RecordResult(res.Outcome.String(), res.URL, res.Title)
	}
	return nil
}
