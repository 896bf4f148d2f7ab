package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type AuthorStore struct {
	db *sqlx.DB
}

func NewAuthorStore(db *sqlx.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

// Upsert inserts the author if no row with that name exists yet, matching
// case-insensitively, and returns the row id and whether it was created.
// Participates in an ambient transaction when one is carried by ctx.
func (s *AuthorStore) Upsert(ctx context.Context, name string) (int64, bool, error) {
	ex := GetExecutor(ctx, s.db)

	var id int64
	err := ex.QueryRowxContext(ctx, `
		INSERT INTO authors (name) VALUES ($1)
		ON CONFLICT (lower(name)) DO NOTHING
		RETURNING id`, name,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	err = ex.QueryRowxContext(ctx,
		`SELECT id FROM authors WHERE lower(name) = lower($1)`, name,
	).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// LinkArticle records the article-author association, reporting whether a
// new link row was created. At most one row per pair is kept.
func (s *AuthorStore) LinkArticle(ctx context.Context, articleID, authorID int64) (bool, error) {
	ex := GetExecutor(ctx, s.db)

	res, err := ex.ExecContext(ctx, `
		INSERT INTO article_authors (article_id, author_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, articleID, authorID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// NamesForArticle returns the author names linked to an article.
func (s *AuthorStore) NamesForArticle(ctx context.Context, articleID int64) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `
		SELECT a.name
		FROM authors a
		INNER JOIN article_authors aa ON aa.author_id = a.id
		WHERE aa.article_id = $1
		ORDER BY a.name`, articleID)
	return names, err
}
