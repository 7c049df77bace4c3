package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/models"
	"pubmed-explorer/providers"
	"pubmed-explorer/services"
	"pubmed-explorer/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDocument struct {
	rec models.ArticleRecord
}

func (d stubDocument) ID() string                   { return "" }
func (d stubDocument) Record() models.ArticleRecord { return d.rec }
func (d stubDocument) Raw() []byte                  { return nil }
func (d stubDocument) Format() string               { return "xml" }

type stubProvider struct {
	records map[string]models.ArticleRecord
	ids     []string
	pingErr error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(context.Context, string, int) []string { return p.ids }

func (p *stubProvider) Fetch(_ context.Context, id string) (providers.Document, bool) {
	rec, ok := p.records[id]
	return stubDocument{rec: rec}, ok
}

func (p *stubProvider) Ping(context.Context) error { return p.pingErr }

type testServer struct {
	router   *gin.Engine
	store    *store.Store
	provider *stubProvider
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()

	cfg := &config.Config{
		DBDriver:             "sqlite",
		DBPath:               ":memory:",
		APISecretKey:         apiKey,
		MaxArticles:          150,
		ScheduledMaxArticles: 5,
	}
	st, err := store.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.EnsureSchema(context.Background()))

	provider := &stubProvider{records: map[string]models.ArticleRecord{}}
	pipeline := services.NewPipeline(cfg, st, provider, nil, zap.NewNop())

	return &testServer{
		router:   newRouter(cfg, st, pipeline, zap.NewNop()),
		store:    st,
		provider: provider,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func yearPtr(y int) *int { return &y }

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	recs := []models.ArticleRecord{
		{PMID: 101, Title: "Immunotherapy in 2021", PublicationYear: yearPtr(2021), JournalTitle: "Lancet"},
		{PMID: 102, Title: "Immunotherapy in 2023", Abstract: "Checkpoint inhibitors.", PublicationYear: yearPtr(2023), JournalTitle: "Lancet",
			Authors: []models.AuthorRecord{{LastName: "Smith", FirstName: "John", MiddleName: "A"}}, MeshTerms: []string{"Neoplasms", "Immunotherapy"}},
		{PMID: 103, Title: "Immunotherapy in 2024", PublicationYear: yearPtr(2024), JournalTitle: "BMJ"},
	}
	for _, rec := range recs {
		require.True(t, s.store.Upsert(context.Background(), rec))
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[services.HealthReport](t, w)
	assert.Equal(t, services.StatusHealthy, report.Status)
	assert.Equal(t, services.StatusHealthy, report.Checks["database"].Status)

	s.provider.pingErr = errors.New("eutils unreachable")
	w = s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	report = decode[services.HealthReport](t, w)
	assert.Equal(t, services.StatusUnhealthy, report.Checks["catalog"].Status)
}

func TestAPIKeyGuard(t *testing.T) {
	s := newTestServer(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/stats", "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/stats", "", "X-API-KEY", "wrong").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/stats", "", "X-API-KEY", "secret").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", "").Code)
}

func TestArticleSearch(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t)

	w := s.do(t, http.MethodGet, "/articles/search?q=immunotherapy&year=2022-2024", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Count    int                    `json:"count"`
		Articles []store.ArticleSummary `json:"articles"`
	}](t, w)
	require.Equal(t, 2, body.Count)
	assert.EqualValues(t, 103, body.Articles[0].PMID)
	assert.EqualValues(t, 102, body.Articles[1].PMID)
	assert.Equal(t, "Lancet", body.Articles[1].JournalTitle)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/articles/search?year=20x4", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/articles/search?limit=-1", "").Code)
}

func TestRecentArticles(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t)

	w := s.do(t, http.MethodGet, "/articles/recent?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]store.ArticleSummary](t, w)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 103, rows[0].PMID)
}

func TestGetArticle(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t)

	w := s.do(t, http.MethodGet, "/articles/102", "")
	require.Equal(t, http.StatusOK, w.Code)
	article := decode[store.ArticleDetail](t, w)
	assert.Equal(t, "Immunotherapy in 2023", article.Title)
	require.Len(t, article.Authors, 1)
	assert.Equal(t, "John A Smith", article.Authors[0].FullName)
	assert.Equal(t, []string{"Immunotherapy", "Neoplasms"}, article.MeshTerms)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/articles/999", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/articles/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/articles/0", "").Code)
}

func TestExportArticle(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t)

	w := s.do(t, http.MethodGet, "/articles/102/export?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="article-102.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "pmid,title,abstract,publication_year,journal,authors,mesh_terms\n"+
		"102,Immunotherapy in 2023,Checkpoint inhibitors.,2023,Lancet,John A Smith,Immunotherapy; Neoplasms\n", w.Body.String())

	w = s.do(t, http.MethodGet, "/articles/102/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="article-102.json"`, w.Header().Get("Content-Disposition"))

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/articles/102/export?format=xml", "").Code)
}

func TestStatsRoutes(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t)

	w := s.do(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Stats     models.Stats `json:"stats"`
		YearRange string       `json:"year_range"`
	}](t, w)
	assert.EqualValues(t, 3, body.Stats.TotalArticles)
	assert.EqualValues(t, 2, body.Stats.TotalJournals)
	assert.Equal(t, "2021 - 2024", body.YearRange)

	w = s.do(t, http.MethodGet, "/stats/top-journals?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.NamedCount{{Name: "Lancet", Count: 2}}, decode[[]models.NamedCount](t, w))

	w = s.do(t, http.MethodGet, "/stats/years", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.YearCount](t, w), 3)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/stats/top-authors", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/stats/top-mesh-terms", "").Code)
}

func TestReadOnlyQuery(t *testing.T) {
	s := newTestServer(t, "")
	s.seed(t)

	w := s.do(t, http.MethodPost, "/query", `{"sql": "SELECT pmid, created_at FROM articles ORDER BY pmid"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Count int              `json:"count"`
		Rows  []map[string]any `json:"rows"`
	}](t, w)
	assert.Equal(t, 3, body.Count)
	assert.EqualValues(t, 101, body.Rows[0]["pmid"])

	for _, sql := range []string{"DELETE FROM articles", "SELECT 1; DROP TABLE articles", "UPDATE articles SET title = ''"} {
		w := s.do(t, http.MethodPost, "/query", `{"sql": "`+sql+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, sql)
	}
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/query", `{}`).Code)

	stats, err := s.store.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalArticles)
}

func TestSearchTermRoutes(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(t, http.MethodPost, "/search-terms", `{"term": "  cancer   immunotherapy "}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "cancer immunotherapy", decode[models.SearchTerm](t, w).Term)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/search-terms", `{"term": "cancer immunotherapy"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/search-terms", `{"term": "<b>"}`).Code)

	w = s.do(t, http.MethodGet, "/search-terms", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.SearchTerm](t, w), 1)

	w = s.do(t, http.MethodPost, "/search-filters", `{"name": "Published 2023", "filter_query": "AND 2023[PDAT]"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/search-filters", `{"name": "empty"}`).Code)

	w = s.do(t, http.MethodGet, "/search-filters", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.SearchFilter](t, w), 1)
}

func TestETLRun(t *testing.T) {
	s := newTestServer(t, "")
	s.provider.ids = []string{"30", "10"}
	s.provider.records["30"] = models.ArticleRecord{PMID: 30, Title: "Thirty"}

	w := s.do(t, http.MethodPost, "/etl/run", `{"term": "sepsis", "max_articles": 2}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var runs []models.IngestRun
	require.Eventually(t, func() bool {
		var err error
		runs, err = s.store.ListRuns(context.Background(), 10)
		return err == nil && len(runs) == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "sepsis", runs[0].Term)
	assert.Equal(t, 2, runs[0].Found)
	assert.Equal(t, 1, runs[0].Succeeded)
	assert.Equal(t, 1, runs[0].Failed)

	w = s.do(t, http.MethodGet, "/etl/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.IngestRun](t, w), 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/etl/run", `{"term": "x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/etl/run", `{"term": "sepsis", "max_articles": 20000}`).Code)
}
