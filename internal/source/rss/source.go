// Package rss adapts the external syndication feed to the domain model.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"news_scraper/internal/domain"
)

type Config struct {
	URL     string
	Timeout time.Duration
}

type Source struct {
	parser *gofeed.Parser
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		parser: gofeed.NewParser(),
		cfg:    cfg,
		logger: logger.With("source", "rss"),
	}
}

func (s *Source) Name() string {
	return "rss"
}

// Fetch downloads and parses the feed, mapping every item to a FeedEntry.
// Items without any usable identity (no guid and no link) are dropped.
func (s *Source) Fetch(ctx context.Context) ([]domain.FeedEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(s.cfg.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.cfg.URL, err)
	}

	entries := make([]domain.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		if guid == "" {
			s.logger.Warn("dropping feed item without identity", "title", item.Title)
			continue
		}

		entry := domain.FeedEntry{
			Title:   item.Title,
			Link:    item.Link,
			PubDate: item.Published,
			Content: item.Content,
			Snippet: item.Description,
			GUID:    guid,
		}
		if item.PublishedParsed != nil {
			entry.PublishedAt = *item.PublishedParsed
			entry.ISODate = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	s.logger.Debug("feed fetched", "items", len(entries))
	return entries, nil
}
