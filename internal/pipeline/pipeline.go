package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/oghuzrustamli/iranisrael/internal/extract"
	"github.com/oghuzrustamli/iranisrael/internal/geo"
	"github.com/oghuzrustamli/iranisrael/internal/model"
	"github.com/oghuzrustamli/iranisrael/internal/observability"
	"github.com/oghuzrustamli/iranisrael/internal/store"
)

// ArticleSource supplies raw articles for one topic query.
type ArticleSource interface {
	Search(ctx context.Context, query string) ([]model.Article, error)
}

// Extractor hands article text to the serialized extraction queue and
// waits for its verdict.
type Extractor interface {
	Submit(ctx context.Context, text string) (*extract.Result, error)
	Len() int
}

// Pipeline orchestrates one full refresh: fetch per topic query, filter
// by novelty and recency, extract through the queue, apply the acceptance
// policy, and merge accepted facts into the incident store.
type Pipeline struct {
	cfg       *model.Config
	source    ArticleSource
	scheduler Extractor
	gazetteer *geo.Gazetteer
	incidents *store.Incidents
	metrics   *observability.Metrics
	logger    *slog.Logger
	clock     clockwork.Clock

	mu      sync.Mutex
	running bool
	// seen holds session title fingerprints; it resets on restart and
	// the persisted store remains the source of truth across runs.
	seen map[string]struct{}
}

// New creates a pipeline over the given collaborators.
func New(cfg *model.Config, source ArticleSource, scheduler Extractor, gazetteer *geo.Gazetteer, incidents *store.Incidents, metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		scheduler: scheduler,
		gazetteer: gazetteer,
		incidents: incidents,
		metrics:   metrics,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
		seen:      make(map[string]struct{}),
	}
}

// SetClock swaps the time source for tests.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// RunFetchCycle executes one full refresh. A cycle already in progress
// makes this a no-op; per-query and per-article failures are logged and
// never abort the remaining work. The full store is persisted at the end.
func (p *Pipeline) RunFetchCycle(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.logger.Info("fetch cycle already running, skipping trigger")
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.metrics.CycleRunning.Set(1)
	start := p.clock.Now()
	defer func() {
		p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
		p.metrics.CycleRunning.Set(0)
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	for _, query := range p.cfg.News.Queries {
		if err := ctx.Err(); err != nil {
			return err
		}

		articles, err := p.source.Search(ctx, query)
		if err != nil {
			p.metrics.SourceErrors.Inc()
			p.logger.Error("query fetch failed", "query", query, "error", err)
			continue
		}
		p.metrics.ArticlesFetched.Add(float64(len(articles)))
		p.processArticles(ctx, articles)
	}

	if err := p.incidents.SaveAll(ctx); err != nil {
		p.logger.Error("persisting store after cycle failed", "error", err)
	}

	p.logger.Info("fetch cycle complete",
		"incidents", p.incidents.Len(), "duration", p.clock.Since(start))
	return nil
}

// Refresh clears automated records (manual records survive) and runs a
// fresh fetch cycle.
func (p *Pipeline) Refresh(ctx context.Context) error {
	if err := p.incidents.ClearAutomatedPreserveManual(ctx); err != nil {
		p.logger.Error("clearing automated incidents failed", "error", err)
	}
	return p.RunFetchCycle(ctx)
}

// Run loops fetch cycles at the configured interval until ctx is
// cancelled. A tick firing while a cycle is still running is a no-op.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.RunFetchCycle(ctx); err != nil {
		p.logger.Error("fetch cycle failed", "error", err)
	}

	ticker := p.clock.NewTicker(p.cfg.News.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := p.RunFetchCycle(ctx); err != nil {
				p.logger.Error("fetch cycle failed", "error", err)
			}
		}
	}
}

func (p *Pipeline) processArticles(ctx context.Context, articles []model.Article) {
	for _, article := range articles {
		fp := model.Fingerprint(article.Title)
		if fp == "" {
			continue
		}
		if _, dup := p.seen[fp]; dup {
			p.metrics.ArticlesSkipped.WithLabelValues("duplicate").Inc()
			continue
		}
		// Cutoff boundary is exclusive: an article published exactly at
		// the cutoff is stale.
		if !article.PublishedAt.After(p.cfg.News.CutoffDate) {
			p.metrics.ArticlesSkipped.WithLabelValues("stale").Inc()
			continue
		}
		// Mark processed before extraction: an article is attempted at
		// most once per process lifetime, even if extraction fails.
		p.seen[fp] = struct{}{}

		id := model.AutoID(article.Title)
		if p.incidents.Has(id) {
			p.metrics.ArticlesSkipped.WithLabelValues("stored").Inc()
			continue
		}

		p.metrics.QueueDepth.Set(float64(p.scheduler.Len()))
		result, err := p.scheduler.Submit(ctx, article.Title+" "+article.Description)
		if err != nil {
			p.metrics.Extractions.WithLabelValues("failed").Inc()
			p.logger.Warn("extraction failed", "title", article.Title, "error", err)
			continue
		}
		if result == nil {
			p.metrics.Extractions.WithLabelValues("empty").Inc()
			continue
		}

		loc, ok := p.accept(result)
		if !ok {
			p.metrics.Extractions.WithLabelValues("rejected").Inc()
			p.logger.Debug("extraction rejected by acceptance policy", "title", article.Title)
			continue
		}

		rec := model.IncidentRecord{
			ID:          id,
			Title:       article.Title,
			Description: article.Description,
			Source:      article.Source.Name,
			URL:         article.URL,
			Timestamp:   article.PublishedAt,
			Locations:   []model.LocationFact{loc},
		}
		if err := p.incidents.Upsert(ctx, rec); err != nil {
			p.logger.Error("storing incident failed", "id", id, "error", err)
		}
		p.metrics.Extractions.WithLabelValues("accepted").Inc()
		p.logger.Info("incident recorded", "id", id, "city", loc.Name)
	}
}

// accept applies the acceptance policy: a confirmed city that resolves in
// the gazetteer, a named attacker, confidence at or above the threshold,
// and a successful attack status. Anything else is discarded.
func (p *Pipeline) accept(result *extract.Result) (model.LocationFact, bool) {
	if result.AttackedCity == nil || *result.AttackedCity == "" {
		return model.LocationFact{}, false
	}
	if int(result.Confidence) < p.cfg.Extract.ConfidenceThreshold {
		return model.LocationFact{}, false
	}
	if result.Attacker == nil || *result.Attacker == "" {
		return model.LocationFact{}, false
	}
	if result.Details.AttackStatus != model.StatusSuccessful {
		return model.LocationFact{}, false
	}

	loc, ok := p.gazetteer.Lookup(*result.AttackedCity)
	if !ok {
		return model.LocationFact{}, false
	}

	attacker := model.NormalizeAttacker(*result.Attacker)
	if attacker == "" {
		// Fall back to the target's side: Iranian targets imply Israel.
		if geo.IsIranian(loc.Name) {
			attacker = model.AttackerIsrael
		} else {
			attacker = model.AttackerIran
		}
	}

	return model.LocationFact{
		Name:         loc.Name,
		Lat:          loc.Lat,
		Lon:          loc.Lon,
		Attacker:     attacker,
		TargetType:   result.Details.TargetType,
		AttackTime:   result.Details.AttackTime,
		AttackStatus: result.Details.AttackStatus,
		Casualties: model.Casualties{
			Dead:    result.Casualties.Dead,
			Wounded: result.Casualties.Wounded,
		},
		WeaponType: result.WeaponType,
		IsToday:    result.IsToday,
	}, true
}
