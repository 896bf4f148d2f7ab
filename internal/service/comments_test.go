package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"news_scraper/internal/domain"
	"news_scraper/internal/service"
	"news_scraper/internal/service/mocks"
	"news_scraper/testdata/utils"
)

type CommentServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	comments *mocks.MockCommentStore
	sess     *mocks.MockSession

	service *service.CommentService
}

func (s *CommentServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.comments = mocks.NewMockCommentStore(s.ctrl)
	s.sess = mocks.NewMockSession(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = service.NewCommentService(
		s.comments,
		"https://www.example.com",
		time.Millisecond,
		10,
		logger,
	)
}

func (s *CommentServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCommentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommentServiceTestSuite))
}

// expectHref matches the link-locating evaluation and writes href into the
// caller's output.
func (s *CommentServiceTestSuite) expectHref(href string) *gomock.Call {
	return s.sess.EXPECT().Evaluate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(expr string, out any) error {
			s.Contains(expr, "Alle Kommentare anzeigen")
			*(out.(*string)) = href
			return nil
		},
	)
}

func (s *CommentServiceTestSuite) expectScroll(heights ...int64) {
	for _, h := range heights {
		height := h
		s.sess.EXPECT().Evaluate(gomock.Any(), gomock.Any()).DoAndReturn(
			func(expr string, out any) error {
				s.Contains(expr, "scrollTo")
				*(out.(*int64)) = height
				return nil
			},
		)
	}
}

func (s *CommentServiceTestSuite) expectForest(forest []domain.CommentNode) {
	s.sess.EXPECT().Evaluate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(expr string, out any) error {
			s.Contains(expr, "commentSection")
			*(out.(*[]domain.CommentNode)) = forest
			return nil
		},
	)
}

func (s *CommentServiceTestSuite) TestSync_NoCommentsAffordance() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("")

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *CommentServiceTestSuite) TestSync_PersistsParentBeforeChild() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	forest := []domain.CommentNode{
		{
			Author:    utils.Ptr("alpenfan"),
			CreatedAt: utils.Ptr("vor 2 Stunden"),
			Content:   utils.Ptr("Endlich Schnee!"),
			Reactions: []string{"Genau: (4)", "Love it: (2)"},
			Children: []domain.CommentNode{
				{
					Author:    utils.Ptr("stadtkind"),
					Content:   utils.Ptr("Bleib du mal im Stau stehen."),
					Reactions: []string{"Quatsch: (1)"},
				},
			},
		},
	}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(nil)
	s.expectScroll(900, 900)
	s.expectForest(forest)

	s.comments.EXPECT().FindIDByContent(ctx, int64(100), "Endlich Schnee!").Return(int64(0), false, nil)
	s.comments.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Comment) (int64, error) {
			s.Nil(c.ParentID)
			s.Equal(4, c.Reactions.Genau)
			s.Equal(2, c.Reactions.LoveIt)
			return 10, nil
		},
	)
	s.comments.EXPECT().FindIDByContent(ctx, int64(100), "Bleib du mal im Stau stehen.").Return(int64(0), false, nil)
	s.comments.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Comment) (int64, error) {
			s.Require().NotNil(c.ParentID)
			s.Equal(int64(10), *c.ParentID)
			s.Equal(1, c.Reactions.Quatsch)
			return 11, nil
		},
	)

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(2, stats.CommentsCreated)
	s.Equal(0, stats.CommentsUpdated)
	s.Equal(0, stats.Anomalies)
}

func (s *CommentServiceTestSuite) TestSync_ExistingCommentRefreshesReactions() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	forest := []domain.CommentNode{
		{
			Author:    utils.Ptr("alpenfan"),
			Content:   utils.Ptr("Endlich Schnee!"),
			Reactions: []string{"Genau: (9)", "So nicht: (3)"},
		},
	}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(nil)
	s.expectScroll(900, 900)
	s.expectForest(forest)

	s.comments.EXPECT().FindIDByContent(ctx, int64(100), "Endlich Schnee!").Return(int64(42), true, nil)
	s.comments.EXPECT().UpdateReactions(ctx, int64(42), domain.Reactions{Genau: 9, SoNicht: 3}).Return(nil)

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(0, stats.CommentsCreated)
	s.Equal(1, stats.CommentsUpdated)
}

func (s *CommentServiceTestSuite) TestSync_MalformedReactionLabel() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	forest := []domain.CommentNode{
		{
			Content:   utils.Ptr("Kommentar"),
			Reactions: []string{"Genau: (4)", "Mega: (7)", "kaputt"},
		},
	}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(nil)
	s.expectScroll(500, 500)
	s.expectForest(forest)

	s.comments.EXPECT().FindIDByContent(ctx, int64(100), "Kommentar").Return(int64(0), false, nil)
	s.comments.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Comment) (int64, error) {
			s.Equal(domain.Reactions{Genau: 4}, c.Reactions)
			return 10, nil
		},
	)

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(1, stats.CommentsCreated)
	s.Equal(2, stats.Anomalies)
}

func (s *CommentServiceTestSuite) TestSync_DeletedCommentAlwaysInserted() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	// content is nil for tombstoned comments, so no dedup lookup happens
	forest := []domain.CommentNode{
		{Author: utils.Ptr("alpenfan")},
	}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(nil)
	s.expectScroll(500, 500)
	s.expectForest(forest)

	s.comments.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Comment) (int64, error) {
			s.Nil(c.Content)
			return 10, nil
		},
	)

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(1, stats.CommentsCreated)
}

func (s *CommentServiceTestSuite) TestSync_CommentsPageGone() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(errors.New("net::ERR_ABORTED"))

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *CommentServiceTestSuite) TestSync_SectionNeverAppears() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(context.DeadlineExceeded)

	stats, err := s.service.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *CommentServiceTestSuite) TestSync_ScrollCeiling() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	svc := service.NewCommentService(
		s.comments,
		"https://www.example.com",
		time.Millisecond,
		3,
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	)

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(nil)
	// height grows on every poll; the cap stops the loop after three rounds
	s.expectScroll(100, 200, 300)
	s.expectForest(nil)

	stats, err := svc.Sync(ctx, s.sess, article)

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *CommentServiceTestSuite) TestSync_ForestExtractionError() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://www.example.com/story/1"}

	s.sess.EXPECT().Navigate(article.Link).Return(nil)
	s.expectHref("/comment/12345")
	s.sess.EXPECT().Navigate("https://www.example.com/comment/12345").Return(nil)
	s.sess.EXPECT().WaitVisible("#commentSection").Return(nil)
	s.expectScroll(500, 500)
	s.sess.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(errors.New("context canceled"))

	_, err := s.service.Sync(ctx, s.sess, article)

	s.Error(err)
	s.True(strings.Contains(err.Error(), "extract comment forest"))
}
