package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"news_scraper/internal/domain"
)

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// FindIDByContent looks up the comment with exactly this text on the given
// article. This is the dedup key for reconciliation across scrape runs.
func (s *CommentStore) FindIDByContent(ctx context.Context, articleID int64, content string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM comments
		WHERE article_id = $1 AND content = $2
		LIMIT 1`, articleID, content,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *CommentStore) Insert(ctx context.Context, comment *domain.Comment) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (
			article_id, parent_id, author, created_at_text, content,
			reactions_quatsch, reactions_unnoetig, reactions_genau,
			reactions_love_it, reactions_smart, reactions_so_nicht
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		comment.ArticleID,
		comment.ParentID,
		comment.Author,
		comment.CreatedAt,
		comment.Content,
		comment.Reactions.Quatsch,
		comment.Reactions.Unnoetig,
		comment.Reactions.Genau,
		comment.Reactions.LoveIt,
		comment.Reactions.Smart,
		comment.Reactions.SoNicht,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateReactions overwrites all six counters with the latest observed
// snapshot. Author, timestamp and content of an existing row stay untouched.
func (s *CommentStore) UpdateReactions(ctx context.Context, id int64, r domain.Reactions) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE comments SET
			reactions_quatsch  = $1,
			reactions_unnoetig = $2,
			reactions_genau    = $3,
			reactions_love_it  = $4,
			reactions_smart    = $5,
			reactions_so_nicht = $6
		WHERE id = $7`,
		r.Quatsch, r.Unnoetig, r.Genau, r.LoveIt, r.Smart, r.SoNicht, id,
	)
	return err
}
