package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"news_scraper/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// GetByGUID returns the article with the given guid, or nil if none exists.
func (s *ArticleStore) GetByGUID(ctx context.Context, guid string) (*domain.Article, error) {
	var article domain.Article
	err := s.db.GetContext(ctx, &article, `
		SELECT id, guid, title, link, pub_date, published_at, content,
		       snippet, category, iso_date, created_at, updated_at
		FROM articles
		WHERE guid = $1`, guid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *ArticleStore) Insert(ctx context.Context, article *domain.Article) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (guid, title, link, pub_date, published_at, content, snippet, iso_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		article.GUID,
		article.Title,
		article.Link,
		article.PubDate,
		article.PublishedAt,
		article.Content,
		article.Snippet,
		article.ISODate,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *ArticleStore) UpdateContent(ctx context.Context, guid, content string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET content = $1, updated_at = now() WHERE guid = $2`,
		content, guid,
	)
	return err
}

func (s *ArticleStore) UpdateCategory(ctx context.Context, guid, category string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET category = $1, updated_at = now() WHERE guid = $2`,
		category, guid,
	)
	return err
}

// ListRecent returns all articles published after the cutoff, the working
// set the orchestrator fans out over.
func (s *ArticleStore) ListRecent(ctx context.Context, since time.Time) ([]domain.Article, error) {
	var articles []domain.Article
	err := s.db.SelectContext(ctx, &articles, `
		SELECT id, guid, title, link, pub_date, published_at, content,
		       snippet, category, iso_date, created_at, updated_at
		FROM articles
		WHERE published_at > $1
		ORDER BY published_at DESC`, since)
	return articles, err
}
