package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news_scraper/internal/domain"
)

// Pipeline composes one full pass: feed sync, recent-articles query,
// concurrent scrape fan-out, final summary.
type Pipeline struct {
	sync         *SyncService
	articles     ArticleStore
	orchestrator *Orchestrator
	lookbackDays int
	logger       *slog.Logger
}

func NewPipeline(
	sync *SyncService,
	articles ArticleStore,
	orchestrator *Orchestrator,
	lookbackDays int,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sync:         sync,
		articles:     articles,
		orchestrator: orchestrator,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

func (p *Pipeline) Run(ctx context.Context) (*domain.Stats, error) {
	start := time.Now()
	var total domain.Stats

	syncStats, err := p.sync.Sync(ctx)
	total.Merge(syncStats)
	if err != nil {
		return &total, fmt.Errorf("sync feed: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -p.lookbackDays)
	recent, err := p.articles.ListRecent(ctx, cutoff)
	if err != nil {
		return &total, fmt.Errorf("list recent articles: %w", err)
	}
	p.logger.Info("scraping recent articles", "count", len(recent), "lookback_days", p.lookbackDays)

	total.Merge(p.orchestrator.Run(ctx, recent))
	total.Duration = time.Since(start)

	p.logger.Info("pass completed",
		"articles_created", total.ArticlesCreated,
		"articles_updated", total.ArticlesUpdated,
		"articles_skipped", total.ArticlesSkipped,
		"authors_created", total.AuthorsCreated,
		"author_links", total.AuthorLinks,
		"comments_created", total.CommentsCreated,
		"comments_updated", total.CommentsUpdated,
		"published", total.Published,
		"errors", total.Errors,
		"anomalies", total.Anomalies,
		"duration", total.Duration,
	)
	return &total, nil
}
