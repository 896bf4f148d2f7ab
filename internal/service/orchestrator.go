package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"news_scraper/internal/domain"
)

// Orchestrator fans the enrichment and comment scrapers out over the
// working set with a hard bound on tasks in flight. Each task holds one
// exclusive rendering session; a failing task is reported with the
// article's identity and never blocks the others.
type Orchestrator struct {
	enricher       ArticleEnricher
	comments       CommentSyncer
	sessions       SessionFactory
	concurrency    int
	siteBaseURL    string
	cookieSelector string
	logger         *slog.Logger
}

func NewOrchestrator(
	enricher ArticleEnricher,
	comments CommentSyncer,
	sessions SessionFactory,
	concurrency int,
	siteBaseURL string,
	cookieSelector string,
	logger *slog.Logger,
) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		enricher:       enricher,
		comments:       comments,
		sessions:       sessions,
		concurrency:    concurrency,
		siteBaseURL:    siteBaseURL,
		cookieSelector: cookieSelector,
		logger:         logger,
	}
}

type taskResult struct {
	guid  string
	title string
	stats domain.Stats
	err   error
}

// Run processes every article exactly once and returns the folded
// counters. Progress is reported in completion order, not submission
// order.
func (o *Orchestrator) Run(ctx context.Context, articles []domain.Article) domain.Stats {
	var total domain.Stats
	if len(articles) == 0 {
		return total
	}

	o.acceptCookieBanner(ctx)

	jobs := make(chan domain.Article, len(articles))
	for _, article := range articles {
		jobs <- article
	}
	close(jobs)

	results := make(chan taskResult, len(articles))

	workers := o.concurrency
	if workers > len(articles) {
		workers = len(articles)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for article := range jobs {
				stats, err := o.processArticle(ctx, &article)
				results <- taskResult{guid: article.GUID, title: article.Title, stats: stats, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		total.Merge(res.stats)
		if res.err != nil {
			total.Errors++
			o.logger.Error("article scrape failed",
				"guid", res.guid,
				"title", res.title,
				"error", res.err,
			)
		}
		o.logger.Info("scrape progress",
			"completed", completed,
			"total", len(articles),
			"percent", completed*100/len(articles),
			"title", res.title,
		)
	}

	return total
}

// processArticle runs both scrapers for one article under a dedicated
// session. The session is closed on every exit path.
func (o *Orchestrator) processArticle(ctx context.Context, article *domain.Article) (domain.Stats, error) {
	var stats domain.Stats

	sess, err := o.sessions(ctx)
	if err != nil {
		return stats, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			o.logger.Warn("close session", "guid", article.GUID, "error", cerr)
		}
	}()

	var errs []error

	enrichStats, err := o.enricher.Enrich(ctx, article)
	stats.Merge(enrichStats)
	if err != nil {
		errs = append(errs, fmt.Errorf("enrich: %w", err))
	}

	commentStats, err := o.comments.Sync(ctx, sess, article)
	stats.Merge(commentStats)
	if err != nil {
		errs = append(errs, fmt.Errorf("comments: %w", err))
	}

	return stats, errors.Join(errs...)
}

// acceptCookieBanner primes the shared browser with the consent cookie so
// article pages render without the overlay. Absence of the banner is fine.
func (o *Orchestrator) acceptCookieBanner(ctx context.Context) {
	if o.siteBaseURL == "" || o.cookieSelector == "" {
		return
	}

	sess, err := o.sessions(ctx)
	if err != nil {
		o.logger.Warn("cookie banner session", "error", err)
		return
	}
	defer sess.Close()

	if err := sess.Navigate(o.siteBaseURL); err != nil {
		o.logger.Warn("cookie banner navigation", "error", err)
		return
	}
	if err := sess.WaitVisible(o.cookieSelector); err != nil {
		o.logger.Debug("cookie banner not shown", "error", err)
		return
	}
	if err := sess.Click(o.cookieSelector); err != nil {
		o.logger.Warn("cookie banner click", "error", err)
	}
}
