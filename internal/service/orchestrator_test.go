package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"news_scraper/internal/domain"
	"news_scraper/internal/service"
	"news_scraper/internal/service/mocks"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	enricher *mocks.MockArticleEnricher
	comments *mocks.MockCommentSyncer

	logger *slog.Logger
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.enricher = mocks.NewMockArticleEnricher(s.ctrl)
	s.comments = mocks.NewMockCommentSyncer(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

// countingFactory hands out mock sessions and tallies opens and closes so
// tests can assert every session is released.
type countingFactory struct {
	mu     sync.Mutex
	ctrl   *gomock.Controller
	opened int
	closed int
}

func (f *countingFactory) open(ctx context.Context) (service.Session, error) {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()

	sess := mocks.NewMockSession(f.ctrl)
	sess.EXPECT().Close().DoAndReturn(func() error {
		f.mu.Lock()
		f.closed++
		f.mu.Unlock()
		return nil
	})
	return sess, nil
}

func (s *OrchestratorTestSuite) TestRun_EmptyWorkingSet() {
	factory := &countingFactory{ctrl: s.ctrl}
	orch := service.NewOrchestrator(s.enricher, s.comments, factory.open, 2, "", "", s.logger)

	stats := orch.Run(context.Background(), nil)

	s.Equal(domain.Stats{}, stats)
	s.Equal(0, factory.opened)
}

func (s *OrchestratorTestSuite) TestRun_BoundedFanOut() {
	ctx := context.Background()
	articles := []domain.Article{
		{ID: 1, GUID: "g1", Title: "a1"},
		{ID: 2, GUID: "g2", Title: "a2"},
		{ID: 3, GUID: "g3", Title: "a3"},
		{ID: 4, GUID: "g4", Title: "a4"},
		{ID: 5, GUID: "g5", Title: "a5"},
	}

	var mu sync.Mutex
	processed := map[string]int{}

	s.enricher.EXPECT().Enrich(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, article *domain.Article) (domain.Stats, error) {
			mu.Lock()
			processed[article.GUID]++
			mu.Unlock()

			switch article.GUID {
			case "g2":
				return domain.Stats{}, errors.New("page vanished")
			default:
				return domain.Stats{AuthorLinks: 1}, nil
			}
		},
	).Times(5)

	s.comments.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ service.Session, article *domain.Article) (domain.Stats, error) {
			if article.GUID == "g4" {
				return domain.Stats{}, errors.New("section timeout")
			}
			return domain.Stats{CommentsCreated: 2}, nil
		},
	).Times(5)

	factory := &countingFactory{ctrl: s.ctrl}
	orch := service.NewOrchestrator(s.enricher, s.comments, factory.open, 2, "", "", s.logger)

	stats := orch.Run(ctx, articles)

	for guid, n := range processed {
		s.Equal(1, n, "article %s processed more than once", guid)
	}
	s.Len(processed, 5)
	s.Equal(5, factory.opened)
	s.Equal(5, factory.closed)

	// g2 contributes no author link, g4 still enriched before its comment
	// pass failed
	s.Equal(4, stats.AuthorLinks)
	s.Equal(8, stats.CommentsCreated)
	s.Equal(2, stats.Errors)
}

func (s *OrchestratorTestSuite) TestRun_SessionOpenFailure() {
	ctx := context.Background()
	articles := []domain.Article{{ID: 1, GUID: "g1", Title: "a1"}}

	factory := func(ctx context.Context) (service.Session, error) {
		return nil, errors.New("browser gone")
	}
	orch := service.NewOrchestrator(s.enricher, s.comments, factory, 1, "", "", s.logger)

	stats := orch.Run(ctx, articles)

	s.Equal(1, stats.Errors)
	s.Equal(0, stats.CommentsCreated)
}

func (s *OrchestratorTestSuite) TestRun_CookieBannerPrimed() {
	ctx := context.Background()
	articles := []domain.Article{{ID: 1, GUID: "g1", Title: "a1"}}

	banner := mocks.NewMockSession(s.ctrl)
	banner.EXPECT().Navigate("https://www.example.com").Return(nil)
	banner.EXPECT().WaitVisible("#accept").Return(nil)
	banner.EXPECT().Click("#accept").Return(nil)
	banner.EXPECT().Close().Return(nil)

	work := mocks.NewMockSession(s.ctrl)
	work.EXPECT().Close().Return(nil)

	sessions := []service.Session{banner, work}
	var mu sync.Mutex
	factory := func(ctx context.Context) (service.Session, error) {
		mu.Lock()
		defer mu.Unlock()
		sess := sessions[0]
		sessions = sessions[1:]
		return sess, nil
	}

	s.enricher.EXPECT().Enrich(gomock.Any(), gomock.Any()).Return(domain.Stats{}, nil)
	s.comments.EXPECT().Sync(gomock.Any(), work, gomock.Any()).Return(domain.Stats{}, nil)

	orch := service.NewOrchestrator(s.enricher, s.comments, factory, 1, "https://www.example.com", "#accept", s.logger)

	stats := orch.Run(ctx, articles)

	s.Equal(0, stats.Errors)
	s.Empty(sessions)
}

func (s *OrchestratorTestSuite) TestRun_BannerAbsentIsTolerated() {
	ctx := context.Background()
	articles := []domain.Article{{ID: 1, GUID: "g1", Title: "a1"}}

	banner := mocks.NewMockSession(s.ctrl)
	banner.EXPECT().Navigate("https://www.example.com").Return(nil)
	banner.EXPECT().WaitVisible("#accept").Return(context.DeadlineExceeded)
	banner.EXPECT().Close().Return(nil)

	work := mocks.NewMockSession(s.ctrl)
	work.EXPECT().Close().Return(nil)

	sessions := []service.Session{banner, work}
	var mu sync.Mutex
	factory := func(ctx context.Context) (service.Session, error) {
		mu.Lock()
		defer mu.Unlock()
		sess := sessions[0]
		sessions = sessions[1:]
		return sess, nil
	}

	s.enricher.EXPECT().Enrich(gomock.Any(), gomock.Any()).Return(domain.Stats{}, nil)
	s.comments.EXPECT().Sync(gomock.Any(), work, gomock.Any()).Return(domain.Stats{}, nil)

	orch := service.NewOrchestrator(s.enricher, s.comments, factory, 1, "https://www.example.com", "#accept", s.logger)

	stats := orch.Run(ctx, articles)

	s.Equal(0, stats.Errors)
}
