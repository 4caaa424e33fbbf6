package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oghuzrustamli/iranisrael/internal/extract"
	"github.com/oghuzrustamli/iranisrael/internal/geo"
	"github.com/oghuzrustamli/iranisrael/internal/mapview"
	"github.com/oghuzrustamli/iranisrael/internal/model"
	"github.com/oghuzrustamli/iranisrael/internal/news"
	"github.com/oghuzrustamli/iranisrael/internal/observability"
	"github.com/oghuzrustamli/iranisrael/internal/pipeline"
	"github.com/oghuzrustamli/iranisrael/internal/queue"
	"github.com/oghuzrustamli/iranisrael/internal/store"
)

// app holds the wired application: the pipeline with all its
// collaborators, built once per command invocation.
type app struct {
	cfg       *model.Config
	logger    *slog.Logger
	gazetteer *geo.Gazetteer
	incidents *store.Incidents
	scheduler *queue.Scheduler
	pipeline  *pipeline.Pipeline

	mongo *store.MongoStore
}

// buildApp wires collaborators from configuration, loads persisted
// incidents, and returns the ready application.
func buildApp(ctx context.Context, cfg *model.Config) (*app, error) {
	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a := &app{cfg: cfg, logger: logger}

	docs, err := a.openDocStore(ctx)
	if err != nil {
		return nil, err
	}

	var view mapview.View = mapview.NopView{}
	if cfg.Output.GeoJSONPath != "" {
		view = mapview.NewGeoJSONView(cfg.Output.GeoJSONPath, logger)
	}

	a.gazetteer = geo.New()
	a.incidents = store.NewIncidents(docs, view, logger)
	a.incidents.Load(ctx)

	extractor, err := extract.NewClient(cfg.Extract)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.scheduler = queue.New(extractor, cfg.Queue, logger)
	a.scheduler.SetStatusSink(view)

	fetcher := news.NewFetcher(cfg.News, logger)
	a.pipeline = pipeline.New(cfg, fetcher, a.scheduler, a.gazetteer,
		a.incidents, observability.NewMetrics(), logger)

	return a, nil
}

// buildEntryApp wires only what manual entry needs: no extraction client,
// so no inference API key is required.
func buildEntryApp(ctx context.Context, cfg *model.Config) (*app, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	a := &app{cfg: cfg, logger: logger}

	docs, err := a.openDocStore(ctx)
	if err != nil {
		return nil, err
	}

	var view mapview.View = mapview.NopView{}
	if cfg.Output.GeoJSONPath != "" {
		view = mapview.NewGeoJSONView(cfg.Output.GeoJSONPath, logger)
	}

	a.gazetteer = geo.New()
	a.incidents = store.NewIncidents(docs, view, logger)
	a.incidents.Load(ctx)

	return a, nil
}

func (a *app) openDocStore(ctx context.Context) (store.DocStore, error) {
	switch a.cfg.Store.Backend {
	case "mongo":
		if a.cfg.Store.MongoURI == "" {
			return nil, fmt.Errorf("store.mongo_uri is required for the mongo backend")
		}
		mongo, err := store.NewMongoStore(ctx, a.cfg.Store.MongoURI, a.cfg.Store.MongoDatabase)
		if err != nil {
			return nil, err
		}
		a.mongo = mongo
		return mongo, nil
	case "", "file":
		dir := a.cfg.Store.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("find home directory: %w", err)
			}
			dir = filepath.Join(home, ".iranisrael", "data")
		}
		return store.NewFileStore(dir), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected file or mongo)", a.cfg.Store.Backend)
	}
}

func (a *app) close(ctx context.Context) {
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			a.logger.Warn("closing mongo connection failed", "error", err)
		}
	}
}
