package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"news_scraper/internal/domain"
)

type ArticleStore interface {
	GetByGUID(ctx context.Context, guid string) (*domain.Article, error)
	Insert(ctx context.Context, article *domain.Article) (int64, error)
	UpdateContent(ctx context.Context, guid, content string) error
	UpdateCategory(ctx context.Context, guid, category string) error
	ListRecent(ctx context.Context, since time.Time) ([]domain.Article, error)
}

type AuthorStore interface {
	Upsert(ctx context.Context, name string) (int64, bool, error)
	LinkArticle(ctx context.Context, articleID, authorID int64) (bool, error)
}

type CommentStore interface {
	FindIDByContent(ctx context.Context, articleID int64, content string) (int64, bool, error)
	Insert(ctx context.Context, comment *domain.Comment) (int64, error)
	UpdateReactions(ctx context.Context, id int64, reactions domain.Reactions) error
}

type FeedSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.FeedEntry, error)
}

// PageFetcher returns raw markup without executing scripts.
type PageFetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// HTMLConverter turns an HTML fragment into markdown text.
type HTMLConverter interface {
	ConvertString(html string) (string, error)
}

// Session is one exclusive, closable handle to a live page context.
type Session interface {
	Navigate(url string) error
	WaitVisible(selector string) error
	Click(selector string) error
	Evaluate(expr string, out any) error
	Close() error
}

// SessionFactory opens a fresh rendering session. Acquisition is where
// backpressure occurs once all sessions are in use.
type SessionFactory func(ctx context.Context) (Session, error)

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article, isNew bool) error
	Close() error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ArticleEnricher scrapes category, body and byline for one article.
type ArticleEnricher interface {
	Enrich(ctx context.Context, article *domain.Article) (domain.Stats, error)
}

// CommentSyncer harvests and persists one article's comment forest using
// the given session.
type CommentSyncer interface {
	Sync(ctx context.Context, sess Session, article *domain.Article) (domain.Stats, error)
}
