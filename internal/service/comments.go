package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news_scraper/internal/domain"
)

const commentsLinkText = "Alle Kommentare anzeigen"

// commentsLinkJS resolves the href of the "show all comments" affordance,
// or the empty string when the article has no comment section.
const commentsLinkJS = `(() => {
	const link = Array.from(document.querySelectorAll("a"))
		.find((a) => a.textContent.includes(%q));
	return link ? link.getAttribute("href") || "" : "";
})()`

// scrollStepJS jumps to the bottom and reports the current scrollable
// height, the signal the load-more loop polls for stability.
const scrollStepJS = `(() => {
	window.scrollTo(0, document.body.scrollHeight);
	return document.body.scrollHeight;
})()`

// commentForestJS extracts the full nested forest in one round trip.
// Reaction indicator titles are returned raw; parsing happens here, not in
// the page, so a malformed label is isolated to its comment.
const commentForestJS = `(() => {
	const parseNode = (el) => {
		const author = el.querySelector(".authorNickname");
		const createdAt = el.querySelector(".createdAt");
		const content = el.querySelector(":scope > div > p");
		return {
			author: author ? author.textContent : null,
			createdAt: createdAt ? createdAt.textContent : null,
			content: content ? content.textContent : null,
			reactions: Array.from(
				el.querySelectorAll("[class*='commentReactionGraph_graph__']")
			).map((g) => g.getAttribute("title") || ""),
			children: Array.from(
				el.querySelectorAll(":scope > div article")
			).map(parseNode),
		};
	};
	return Array.from(
		document.querySelectorAll("#commentSection > div > article")
	).map(parseNode);
})()`

const commentSectionSelector = "#commentSection"

// CommentService reconstructs and persists one article's discussion tree
// from a live rendering session.
type CommentService struct {
	comments       CommentStore
	baseURL        string
	scrollInterval time.Duration
	scrollMaxPolls int
	logger         *slog.Logger
}

func NewCommentService(comments CommentStore, baseURL string, scrollInterval time.Duration, scrollMaxPolls int, logger *slog.Logger) *CommentService {
	return &CommentService{
		comments:       comments,
		baseURL:        baseURL,
		scrollInterval: scrollInterval,
		scrollMaxPolls: scrollMaxPolls,
		logger:         logger,
	}
}

// Sync navigates to the article, follows the comments affordance, loads
// the full thread and persists it. A missing affordance, a vanished
// comments page or an empty section all mean "no comments", not an error.
func (c *CommentService) Sync(ctx context.Context, sess Session, article *domain.Article) (domain.Stats, error) {
	var stats domain.Stats
	if article.Link == "" {
		return stats, nil
	}

	if err := sess.Navigate(article.Link); err != nil {
		return stats, fmt.Errorf("navigate to article: %w", err)
	}

	var href string
	if err := sess.Evaluate(fmt.Sprintf(commentsLinkJS, commentsLinkText), &href); err != nil {
		return stats, fmt.Errorf("locate comments link: %w", err)
	}
	if href == "" {
		return stats, nil
	}

	if err := sess.Navigate(c.baseURL + href); err != nil {
		c.logger.Debug("comments page unavailable", "guid", article.GUID, "error", err)
		return stats, nil
	}
	if err := sess.WaitVisible(commentSectionSelector); err != nil {
		c.logger.Debug("comment section did not appear", "guid", article.GUID, "error", err)
		return stats, nil
	}

	if err := c.loadAllComments(ctx, sess); err != nil {
		return stats, fmt.Errorf("load comments: %w", err)
	}

	var forest []domain.CommentNode
	if err := sess.Evaluate(commentForestJS, &forest); err != nil {
		return stats, fmt.Errorf("extract comment forest: %w", err)
	}

	if err := c.persistForest(ctx, article.ID, forest, &stats); err != nil {
		return stats, err
	}
	return stats, nil
}

// loadAllComments scrolls until the page height stops growing. The poll
// count is capped so a page that never stabilizes cannot hang the task.
func (c *CommentService) loadAllComments(ctx context.Context, sess Session) error {
	prev := int64(-1)
	for i := 0; i < c.scrollMaxPolls; i++ {
		var height int64
		if err := sess.Evaluate(scrollStepJS, &height); err != nil {
			return err
		}
		if height == prev {
			return nil
		}
		prev = height

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.scrollInterval):
		}
	}
	c.logger.Debug("scroll poll ceiling reached", "polls", c.scrollMaxPolls)
	return nil
}

type commentWork struct {
	node     domain.CommentNode
	parentID *int64
}

// persistForest walks the forest with an explicit work list so deeply
// nested threads cannot exhaust the call stack. A parent is always written
// before its children because the child row needs the parent's generated
// id.
func (c *CommentService) persistForest(ctx context.Context, articleID int64, forest []domain.CommentNode, stats *domain.Stats) error {
	work := make([]commentWork, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		work = append(work, commentWork{node: forest[i]})
	}

	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]

		reactions, anomalies := c.parseReactions(item.node.Reactions)
		stats.Anomalies += anomalies

		id, err := c.upsertComment(ctx, articleID, item, reactions, stats)
		if err != nil {
			return err
		}

		parentID := id
		for i := len(item.node.Children) - 1; i >= 0; i-- {
			work = append(work, commentWork{node: item.node.Children[i], parentID: &parentID})
		}
	}
	return nil
}

func (c *CommentService) upsertComment(ctx context.Context, articleID int64, item commentWork, reactions domain.Reactions, stats *domain.Stats) (int64, error) {
	if item.node.Content != nil {
		existing, found, err := c.comments.FindIDByContent(ctx, articleID, *item.node.Content)
		if err != nil {
			return 0, fmt.Errorf("lookup comment: %w", err)
		}
		if found {
			if err := c.comments.UpdateReactions(ctx, existing, reactions); err != nil {
				return 0, fmt.Errorf("update reactions: %w", err)
			}
			stats.CommentsUpdated++
			return existing, nil
		}
	}

	id, err := c.comments.Insert(ctx, &domain.Comment{
		ArticleID: articleID,
		ParentID:  item.parentID,
		Author:    item.node.Author,
		CreatedAt: item.node.CreatedAt,
		Content:   item.node.Content,
		Reactions: reactions,
	})
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	stats.CommentsCreated++
	return id, nil
}

// parseReactions maps raw indicator labels onto the fixed reaction set.
// Unknown or malformed labels are dropped and counted as anomalies.
func (c *CommentService) parseReactions(labels []string) (domain.Reactions, int) {
	var reactions domain.Reactions
	anomalies := 0
	for _, label := range labels {
		kind, count, err := domain.ParseReactionLabel(label)
		if err != nil {
			anomalies++
			c.logger.Warn("dropping reaction label", "label", label, "error", err)
			continue
		}
		reactions.Set(kind, count)
	}
	return reactions, anomalies
}
