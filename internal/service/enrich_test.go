package service_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"news_scraper/internal/domain"
	"news_scraper/internal/service"
	"news_scraper/internal/service/mocks"
)

const articlePageHTML = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">{"@type":"BreadcrumbList","itemListElement":[
  {"item":{"name":"Front"}},
  {"item":{"name":"Schweiz"}},
  {"item":{"name":"Schneechaos im Mittelland"}}
]}</script>
</head>
<body>
<div class="Article_elementAuthors__9x2Kk">von Anna Meier, Beat  Huber</div>
<div class="Article_body__Qq3de">
  <p>Erster Absatz.</p>
  <div type="typeInfoboxSummary"><p>Darum gehts</p></div>
  <div class="Article_elementSlideshow__55aa1"><img src="a.jpg"></div>
  <p>Zweiter Absatz.</p>
</div>
</body>
</html>`

type EnrichServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	articles  *mocks.MockArticleStore
	authors   *mocks.MockAuthorStore
	fetcher   *mocks.MockPageFetcher
	converter *mocks.MockHTMLConverter
	txManager *mocks.MockTransactionManager

	service *service.EnrichService
}

func (s *EnrichServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.authors = mocks.NewMockAuthorStore(s.ctrl)
	s.fetcher = mocks.NewMockPageFetcher(s.ctrl)
	s.converter = mocks.NewMockHTMLConverter(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = service.NewEnrichService(
		s.articles,
		s.authors,
		s.fetcher,
		s.converter,
		s.txManager,
		logger,
	)
}

func (s *EnrichServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestEnrichServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EnrichServiceTestSuite))
}

func (s *EnrichServiceTestSuite) passthroughTx(times int) {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).Times(times)
}

func (s *EnrichServiceTestSuite) TestEnrich_FullPage() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://example.com/story/1"}

	s.fetcher.EXPECT().Get(ctx, article.Link).Return(articlePageHTML, nil)

	s.articles.EXPECT().UpdateCategory(ctx, "guid-1", "Front > Schweiz").Return(nil)

	s.converter.EXPECT().ConvertString(gomock.Any()).DoAndReturn(
		func(fragment string) (string, error) {
			s.Contains(fragment, "Erster Absatz.")
			s.Contains(fragment, "Zweiter Absatz.")
			s.NotContains(fragment, "Darum gehts")
			s.NotContains(fragment, "a.jpg")
			return "Erster Absatz.\n\nZweiter Absatz.", nil
		},
	)
	s.articles.EXPECT().UpdateContent(ctx, "guid-1", "Erster Absatz.\n\nZweiter Absatz.").Return(nil)

	s.passthroughTx(2)
	s.authors.EXPECT().Upsert(gomock.Any(), "Anna Meier").Return(int64(1), true, nil)
	s.authors.EXPECT().LinkArticle(gomock.Any(), int64(100), int64(1)).Return(true, nil)
	s.authors.EXPECT().Upsert(gomock.Any(), "Beat Huber").Return(int64(2), false, nil)
	s.authors.EXPECT().LinkArticle(gomock.Any(), int64(100), int64(2)).Return(true, nil)

	stats, err := s.service.Enrich(ctx, article)

	s.NoError(err)
	s.Equal(1, stats.AuthorsCreated)
	s.Equal(2, stats.AuthorLinks)
}

func (s *EnrichServiceTestSuite) TestEnrich_EmptyLink() {
	stats, err := s.service.Enrich(context.Background(), &domain.Article{GUID: "guid-1"})

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *EnrichServiceTestSuite) TestEnrich_BarePage() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://example.com/story/1"}

	s.fetcher.EXPECT().Get(ctx, article.Link).Return("<html><body><p>nothing here</p></body></html>", nil)

	stats, err := s.service.Enrich(ctx, article)

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *EnrichServiceTestSuite) TestEnrich_MalformedBreadcrumb() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://example.com/story/1"}

	page := `<html><head>
<script type="application/ld+json">{"@type":"BreadcrumbList","itemListElement":[broken</script>
</head><body></body></html>`
	s.fetcher.EXPECT().Get(ctx, article.Link).Return(page, nil)

	stats, err := s.service.Enrich(ctx, article)

	s.NoError(err)
	s.Equal(domain.Stats{}, stats)
}

func (s *EnrichServiceTestSuite) TestEnrich_VideoBylineFallback() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://example.com/story/1"}

	page := `<html><body>
<div class="VideoArticleLead_authors__Hh2a">von Clara Stoll</div>
</body></html>`
	s.fetcher.EXPECT().Get(ctx, article.Link).Return(page, nil)

	s.passthroughTx(1)
	s.authors.EXPECT().Upsert(gomock.Any(), "Clara Stoll").Return(int64(7), true, nil)
	s.authors.EXPECT().LinkArticle(gomock.Any(), int64(100), int64(7)).Return(true, nil)

	stats, err := s.service.Enrich(ctx, article)

	s.NoError(err)
	s.Equal(1, stats.AuthorsCreated)
	s.Equal(1, stats.AuthorLinks)
}

func (s *EnrichServiceTestSuite) TestEnrich_FetchError() {
	ctx := context.Background()
	article := &domain.Article{ID: 100, GUID: "guid-1", Link: "https://example.com/story/1"}

	s.fetcher.EXPECT().Get(ctx, article.Link).Return("", context.DeadlineExceeded)

	_, err := s.service.Enrich(ctx, article)

	s.Error(err)
	s.True(strings.Contains(err.Error(), "fetch page"))
}
