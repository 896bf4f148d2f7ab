package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"news_scraper/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id           BIGSERIAL PRIMARY KEY,
		guid         TEXT NOT NULL UNIQUE,
		title        TEXT NOT NULL DEFAULT '',
		link         TEXT NOT NULL DEFAULT '',
		pub_date     TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		content      TEXT,
		snippet      TEXT,
		category     TEXT,
		iso_date     TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at)`,

	`CREATE TABLE IF NOT EXISTS authors (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_authors_name_lower ON authors (lower(name))`,

	`CREATE TABLE IF NOT EXISTS article_authors (
		article_id BIGINT NOT NULL REFERENCES articles(id),
		author_id  BIGINT NOT NULL REFERENCES authors(id),
		PRIMARY KEY (article_id, author_id)
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id                 BIGSERIAL PRIMARY KEY,
		article_id         BIGINT NOT NULL REFERENCES articles(id),
		parent_id          BIGINT REFERENCES comments(id),
		author             TEXT,
		created_at_text    TEXT,
		content            TEXT,
		reactions_quatsch  INT NOT NULL DEFAULT 0,
		reactions_unnoetig INT NOT NULL DEFAULT 0,
		reactions_genau    INT NOT NULL DEFAULT 0,
		reactions_love_it  INT NOT NULL DEFAULT 0,
		reactions_smart    INT NOT NULL DEFAULT 0,
		reactions_so_nicht INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_article_content ON comments (article_id, content)`,
}

// Migrate brings the schema up to date. It runs on every process start and
// every statement is idempotent; the legacy author-column migration checks
// the current schema shape first so its data move happens exactly once.
func Migrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := migrateLegacyAuthorColumn(ctx, db, logger); err != nil {
		return fmt.Errorf("migrate legacy author column: %w", err)
	}

	return nil
}

// migrateLegacyAuthorColumn moves data out of the single comma-separated
// "author" text column early versions kept on articles, into the authors
// and article_authors tables, then drops the column.
func migrateLegacyAuthorColumn(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	var exists bool
	err := db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'articles' AND column_name = 'author'
		)`)
	if err != nil {
		return fmt.Errorf("inspect articles schema: %w", err)
	}
	if !exists {
		return nil
	}

	logger.Info("migrating legacy author column")

	type legacyRow struct {
		ID     int64   `db:"id"`
		Author *string `db:"author"`
	}
	var rows []legacyRow
	if err := db.SelectContext(ctx, &rows, `SELECT id, author FROM articles WHERE author IS NOT NULL AND author <> ''`); err != nil {
		return fmt.Errorf("read legacy authors: %w", err)
	}

	authorStore := NewAuthorStore(db)
	for _, row := range rows {
		for _, name := range strings.Split(*row.Author, ",") {
			name = domain.NormalizeAuthorName(name)
			if name == "" {
				continue
			}
			authorID, _, err := authorStore.Upsert(ctx, name)
			if err != nil {
				return fmt.Errorf("migrate author %q: %w", name, err)
			}
			if _, err := authorStore.LinkArticle(ctx, row.ID, authorID); err != nil {
				return fmt.Errorf("link author %q: %w", name, err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, `ALTER TABLE articles DROP COLUMN author`); err != nil {
		return fmt.Errorf("drop legacy column: %w", err)
	}

	logger.Info("legacy author column migrated", "articles", len(rows))
	return nil
}
