package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news_scraper/internal/domain"
)

// UpdatePolicy decides what happens to an article whose guid is already
// persisted. The source republished content often enough that both
// behaviors exist in the wild, so the call site picks one explicitly.
type UpdatePolicy int

const (
	// SkipExisting leaves persisted articles untouched.
	SkipExisting UpdatePolicy = iota
	// RefreshContent overwrites the content field with the feed's version.
	RefreshContent
)

func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch s {
	case "skip", "":
		return SkipExisting, nil
	case "refresh":
		return RefreshContent, nil
	default:
		return SkipExisting, fmt.Errorf("unknown update policy %q", s)
	}
}

// SyncService reconciles feed entries against persisted articles by guid.
type SyncService struct {
	source    FeedSource
	articles  ArticleStore
	publisher Publisher
	policy    UpdatePolicy
	logger    *slog.Logger
}

func NewSyncService(
	source FeedSource,
	articles ArticleStore,
	publisher Publisher,
	policy UpdatePolicy,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:    source,
		articles:  articles,
		publisher: publisher,
		policy:    policy,
		logger:    logger.With("source", source.Name()),
	}
}

// Sync fetches the feed once and applies every entry independently. A
// failing entry is counted and logged but never aborts the batch, so
// re-running on the same feed converges to the same persisted set.
func (s *SyncService) Sync(ctx context.Context) (domain.Stats, error) {
	start := time.Now()
	var stats domain.Stats

	entries, err := s.source.Fetch(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch feed: %w", err)
	}

	s.logger.Info("syncing feed entries", "count", len(entries))

	for i := range entries {
		if err := s.syncEntry(ctx, &entries[i], &stats); err != nil {
			stats.Errors++
			s.logger.Error("sync entry failed", "guid", entries[i].GUID, "error", err)
		}
	}

	stats.Duration = time.Since(start)
	s.logger.Info("feed sync completed",
		"created", stats.ArticlesCreated,
		"updated", stats.ArticlesUpdated,
		"skipped", stats.ArticlesSkipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (s *SyncService) syncEntry(ctx context.Context, entry *domain.FeedEntry, stats *domain.Stats) error {
	existing, err := s.articles.GetByGUID(ctx, entry.GUID)
	if err != nil {
		return fmt.Errorf("lookup article: %w", err)
	}

	if existing == nil {
		article := &domain.Article{
			GUID:        entry.GUID,
			Title:       entry.Title,
			Link:        entry.Link,
			PubDate:     entry.PubDate,
			PublishedAt: entry.PublishedAt,
			ISODate:     entry.ISODate,
		}
		if entry.Content != "" {
			article.Content = &entry.Content
		}
		if entry.Snippet != "" {
			article.Snippet = &entry.Snippet
		}

		id, err := s.articles.Insert(ctx, article)
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		article.ID = id
		stats.ArticlesCreated++
		s.publish(ctx, article, true, stats)
		return nil
	}

	if s.policy == SkipExisting {
		stats.ArticlesSkipped++
		return nil
	}

	if err := s.articles.UpdateContent(ctx, entry.GUID, entry.Content); err != nil {
		return fmt.Errorf("refresh content: %w", err)
	}
	stats.ArticlesUpdated++
	s.publish(ctx, existing, false, stats)
	return nil
}

func (s *SyncService) publish(ctx context.Context, article *domain.Article, isNew bool, stats *domain.Stats) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, article, isNew); err != nil {
		stats.Errors++
		s.logger.Error("publish article failed", "guid", article.GUID, "error", err)
		return
	}
	stats.Published++
}
