package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"

	"pubmed-explorer/config"
	"pubmed-explorer/models"
	"pubmed-explorer/providers"
)

// ArticleStore is the persistence the pipeline drives. *store.Store implements it.
type ArticleStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, rec models.ArticleRecord) bool
	Stats(ctx context.Context) (models.Stats, error)
	RecordRun(ctx context.Context, run *models.IngestRun) error
	ListSearchTerms(ctx context.Context) ([]models.SearchTerm, error)
	ListSearchFilters(ctx context.Context) ([]models.SearchFilter, error)
}

// Archiver keeps a copy of each fetched raw document.
type Archiver interface {
	Archive(ctx context.Context, provider string, doc providers.Document) error
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID      uint         `json:"run_id"`
	Term       string       `json:"term"`
	Provider   string       `json:"provider"`
	Found      int          `json:"found"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Stats      models.Stats `json:"stats"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Pipeline runs search, fetch, map and store for one catalog, one article at a time.
type Pipeline struct {
	Store    ArticleStore
	Provider providers.Provider
	// Archiver is optional.
	Archiver Archiver
	Logger   *zap.Logger

	scheduledMax int
	limiter      *rate.Limiter
	mu           sync.Mutex
}

// NewPipeline creates a pipeline that waits at least cfg.RequestDelay between
// fetch calls. A nil archiver disables raw document archiving.
func NewPipeline(cfg *config.Config, st ArticleStore, provider providers.Provider, archiver Archiver, logger *zap.Logger) *Pipeline {
	p := &Pipeline{
		Store:        st,
		Provider:     provider,
		Archiver:     archiver,
		Logger:       logger.With(zap.String("component", "pipeline"), zap.String("provider", provider.Name())),
		scheduledMax: cfg.ScheduledMaxArticles,
	}
	if cfg.RequestDelay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	}
	return p
}

// Run ingests up to maxArticles articles found for term. Only an unusable store is
// returned as an error; failed fetches and stores are counted in the report.
// Runs on the same pipeline are serialized.
func (p *Pipeline) Run(ctx context.Context, term string, maxArticles int) (*RunReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := p.Logger.With(zap.String("term", term), zap.Int("max_articles", maxArticles))
	report := &RunReport{Term: term, Provider: p.Provider.Name(), StartedAt: time.Now()}

	if err := p.Store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("preparing schema: %w", err)
	}

	log.Info("Searching catalog")
	ids := p.Provider.Search(ctx, term, maxArticles)
	report.Found = len(ids)
	if len(ids) == 0 {
		log.Warn("No articles found")
	} else {
		log.Info("Articles found", zap.Int("count", len(ids)))
	}

	for i, id := range ids {
		if err := p.wait(ctx); err != nil {
			return nil, fmt.Errorf("run interrupted after %d of %d articles: %w", i, len(ids), err)
		}
		if p.process(ctx, log, id) {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	stats, err := p.Store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading store statistics: %w", err)
	}
	report.Stats = stats
	report.FinishedAt = time.Now()

	run := &models.IngestRun{
		Term:        term,
		Provider:    report.Provider,
		MaxArticles: maxArticles,
		Found:       report.Found,
		Succeeded:   report.Succeeded,
		Failed:      report.Failed,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
	}
	if snapshot, err := json.Marshal(stats); err == nil {
		run.Stats = datatypes.JSON(snapshot)
	}
	if err := p.Store.RecordRun(ctx, run); err != nil {
		log.Error("Failed to record run", zap.Error(err))
	} else {
		report.RunID = run.ID
	}

	pipelineRuns.WithLabelValues(report.Provider).Inc()
	log.Info("Run finished",
		zap.Int("found", report.Found),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int64("total_articles", stats.TotalArticles),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// RunAllSearchTerms runs every saved search term once per saved filter, or once on
// its own when no filter exists, each capped at SCHEDULED_MAX_ARTICLES.
func (p *Pipeline) RunAllSearchTerms(ctx context.Context) ([]*RunReport, error) {
	terms, err := p.Store.ListSearchTerms(ctx)
	if err != nil {
		return nil, err
	}
	filters, err := p.Store.ListSearchFilters(ctx)
	if err != nil {
		return nil, err
	}

	var queries []string
	for _, t := range terms {
		if len(filters) == 0 {
			queries = append(queries, t.Term)
			continue
		}
		for _, f := range filters {
			queries = append(queries, fmt.Sprintf("(%s) %s", t.Term, f.FilterQuery))
		}
	}
	p.Logger.Info("Starting run for all search terms",
		zap.Int("terms", len(terms)), zap.Int("filters", len(filters)))

	reports := make([]*RunReport, 0, len(queries))
	for _, q := range queries {
		report, err := p.Run(ctx, q, p.scheduledMax)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (p *Pipeline) wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// process fetches, maps, archives and stores one article and reports success.
func (p *Pipeline) process(ctx context.Context, log *zap.Logger, id string) bool {
	provider := p.Provider.Name()
	log = log.With(zap.String("id", id))

	start := time.Now()
	doc, ok := p.Provider.Fetch(ctx, id)
	fetchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if !ok {
		log.Warn("Article could not be fetched")
		articleFailures.WithLabelValues(provider, "fetch").Inc()
		return false
	}

	rec := doc.Record()
	if rec.PMID <= 0 {
		if pmid, err := strconv.ParseInt(id, 10, 64); err == nil {
			rec.PMID = pmid
		}
	}

	if p.Archiver != nil {
		if err := p.Archiver.Archive(ctx, provider, doc); err != nil {
			log.Warn("Failed to archive raw document", zap.Error(err))
		}
	}

	if !p.Store.Upsert(ctx, rec) {
		articleFailures.WithLabelValues(provider, "store").Inc()
		return false
	}
	articlesStored.WithLabelValues(provider).Inc()
	return true
}
