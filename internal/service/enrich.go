package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"news_scraper/internal/domain"
)

const (
	bodySelector        = `[class*="Article_body"]`
	infoboxSelector     = `[type="typeInfoboxSummary"]`
	slideshowSelector   = `[class*="Article_elementSlideshow"]`
	bylineSelector      = `[class*="Article_elementAuthors"]`
	videoBylineSelector = `[class*="VideoArticleLead_authors"]`
	breadcrumbScriptSel = `script[type="application/ld+json"]`
	categorySeparator   = " > "
	bylinePrefix        = "von"
)

// EnrichService scrapes category, body content and byline authors from an
// article's page. The three extractions are independent; any of them may
// find nothing, which is a legitimate outcome and not an error.
type EnrichService struct {
	articles  ArticleStore
	authors   AuthorStore
	fetcher   PageFetcher
	converter HTMLConverter
	tx        TransactionManager
	logger    *slog.Logger
}

func NewEnrichService(
	articles ArticleStore,
	authors AuthorStore,
	fetcher PageFetcher,
	converter HTMLConverter,
	tx TransactionManager,
	logger *slog.Logger,
) *EnrichService {
	return &EnrichService{
		articles:  articles,
		authors:   authors,
		fetcher:   fetcher,
		converter: converter,
		tx:        tx,
		logger:    logger,
	}
}

func (e *EnrichService) Enrich(ctx context.Context, article *domain.Article) (domain.Stats, error) {
	var stats domain.Stats
	if article.Link == "" {
		return stats, nil
	}

	html, err := e.fetcher.Get(ctx, article.Link)
	if err != nil {
		return stats, fmt.Errorf("fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stats, fmt.Errorf("parse page: %w", err)
	}

	var errs []error
	if err := e.extractCategory(ctx, doc, article); err != nil {
		errs = append(errs, fmt.Errorf("category: %w", err))
	}
	if err := e.extractBody(ctx, doc, article); err != nil {
		errs = append(errs, fmt.Errorf("body: %w", err))
	}
	if err := e.extractAuthors(ctx, doc, article, &stats); err != nil {
		errs = append(errs, fmt.Errorf("authors: %w", err))
	}
	return stats, errors.Join(errs...)
}

type breadcrumbList struct {
	ItemListElement []struct {
		Item struct {
			Name string `json:"name"`
		} `json:"item"`
	} `json:"itemListElement"`
}

// extractCategory joins the breadcrumb segments, minus the final self
// segment, into the article's category path.
func (e *EnrichService) extractCategory(ctx context.Context, doc *goquery.Document, article *domain.Article) error {
	var raw string
	doc.Find(breadcrumbScriptSel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), "BreadcrumbList") {
			raw = s.Text()
			return false
		}
		return true
	})
	if raw == "" {
		return nil
	}

	var list breadcrumbList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// malformed structured data is treated as absent
		e.logger.Debug("unparsable breadcrumb descriptor", "guid", article.GUID, "error", err)
		return nil
	}
	if len(list.ItemListElement) < 2 {
		return nil
	}

	segments := make([]string, 0, len(list.ItemListElement)-1)
	for _, el := range list.ItemListElement[:len(list.ItemListElement)-1] {
		segments = append(segments, el.Item.Name)
	}
	category := strings.Join(segments, categorySeparator)

	if err := e.articles.UpdateCategory(ctx, article.GUID, category); err != nil {
		return fmt.Errorf("store category: %w", err)
	}
	return nil
}

// extractBody converts the main body region to markdown after stripping
// inline summary boxes and slideshow widgets.
func (e *EnrichService) extractBody(ctx context.Context, doc *goquery.Document, article *domain.Article) error {
	body := doc.Find(bodySelector).First()
	if body.Length() == 0 {
		return nil
	}

	body.Find(infoboxSelector).Remove()
	body.Find(slideshowSelector).Remove()

	fragment, err := body.Html()
	if err != nil {
		return fmt.Errorf("serialize body: %w", err)
	}

	text, err := e.converter.ConvertString(fragment)
	if err != nil {
		return fmt.Errorf("convert body: %w", err)
	}

	if err := e.articles.UpdateContent(ctx, article.GUID, text); err != nil {
		return fmt.Errorf("store content: %w", err)
	}
	return nil
}

// extractAuthors splits the byline on commas and upserts each author plus
// its article link. Author and link are written in one transaction so a
// partial pair never persists.
func (e *EnrichService) extractAuthors(ctx context.Context, doc *goquery.Document, article *domain.Article, stats *domain.Stats) error {
	byline := doc.Find(bylineSelector).First()
	if byline.Length() == 0 {
		byline = doc.Find(videoBylineSelector).First()
	}
	if byline.Length() == 0 {
		return nil
	}

	text := strings.TrimSpace(byline.Text())
	text = strings.TrimSpace(strings.TrimPrefix(text, bylinePrefix))

	for _, fragment := range strings.Split(text, ",") {
		name := domain.NormalizeAuthorName(fragment)
		if name == "" {
			continue
		}

		var created, linked bool
		err := e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			var authorID int64
			var err error
			authorID, created, err = e.authors.Upsert(txCtx, name)
			if err != nil {
				return fmt.Errorf("upsert author %q: %w", name, err)
			}
			linked, err = e.authors.LinkArticle(txCtx, article.ID, authorID)
			if err != nil {
				return fmt.Errorf("link author %q: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if created {
			stats.AuthorsCreated++
		}
		if linked {
			stats.AuthorLinks++
		}
	}
	return nil
}
