package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pubmed-explorer/config"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		PubMedBaseURL:  ts.URL,
		PubMedTool:     "pubmed-explorer-test",
		PubMedPageSize: 100,
		HTTPTimeout:    5 * time.Second,
	}
	return NewFetcher(cfg, zap.NewNop())
}

func esearchXML(count int, ids ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8" ?><eSearchResult><Count>%d</Count><RetMax>%d</RetMax><IdList>`, count, len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "<Id>%s</Id>", id)
	}
	b.WriteString("</IdList></eSearchResult>")
	return b.String()
}

func TestSearchPreservesOrder(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "xml", q.Get("retmode"))
		assert.Equal(t, "cancer immunotherapy", q.Get("term"))
		assert.Equal(t, "10", q.Get("retmax"))
		assert.Equal(t, "0", q.Get("retstart"))
		assert.Equal(t, "pubmed-explorer-test", q.Get("tool"))
		fmt.Fprint(w, esearchXML(3, "30", "10", "20"))
	})

	ids := f.Search(context.Background(), "cancer immunotherapy", 10)
	assert.Equal(t, []string{"30", "10", "20"}, ids)
}

func TestSearchPaginates(t *testing.T) {
	var calls int32
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		start, _ := strconv.Atoi(r.URL.Query().Get("retstart"))
		retmax, _ := strconv.Atoi(r.URL.Query().Get("retmax"))
		var ids []string
		for i := start; i < start+retmax && i < 5; i++ {
			ids = append(ids, strconv.Itoa(100+i))
		}
		fmt.Fprint(w, esearchXML(5, ids...))
	})
	f.Config.PubMedPageSize = 2

	ids := f.Search(context.Background(), "term", 10)
	assert.Equal(t, []string{"100", "101", "102", "103", "104"}, ids)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchStopsAtMaxResults(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("retstart"))
		retmax, _ := strconv.Atoi(r.URL.Query().Get("retmax"))
		var ids []string
		for i := start; i < start+retmax; i++ {
			ids = append(ids, strconv.Itoa(i+1))
		}
		fmt.Fprint(w, esearchXML(1000, ids...))
	})
	f.Config.PubMedPageSize = 4

	ids := f.Search(context.Background(), "term", 6)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids)
}

func TestSearchNoResults(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, esearchXML(0))
	})

	ids := f.Search(context.Background(), "nothing matches this", 10)
	require.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSearchFailSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<eSearchResult><IdList><Id>1</Id>")
		}},
		{"unexpected root", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>maintenance</body></html>")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(t, tt.handler)
			ids := f.Search(context.Background(), "term", 10)
			require.NotNil(t, ids)
			assert.Empty(t, ids)
		})
	}
}

func TestSearchTransportFailure(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {})
	f.Config.PubMedBaseURL = "http://127.0.0.1:1"

	assert.Empty(t, f.Search(context.Background(), "term", 10))
}

func TestSearchNonPositiveMax(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	assert.Empty(t, f.Search(context.Background(), "term", 0))
}

func TestFetchReturnsDocument(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "efetch_article.xml"))
	require.NoError(t, err)

	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, "34567890", r.URL.Query().Get("id"))
		w.Write(body)
	})
	f.Config.PubMedAPIKey = "secret"

	doc, ok := f.Fetch(context.Background(), "34567890")
	require.True(t, ok)
	assert.Equal(t, "34567890", doc.ID())
	assert.Equal(t, "xml", doc.Format())
	assert.Equal(t, body, doc.Raw())

	rec := doc.Record()
	assert.Equal(t, int64(34567890), rec.PMID)
	assert.Equal(t, "Nature medicine", rec.JournalTitle)
}

func TestFetchSendsAPIKey(t *testing.T) {
	var gotKey string
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		fmt.Fprint(w, "<PubmedArticleSet></PubmedArticleSet>")
	})
	f.Config.PubMedAPIKey = "secret"

	f.Fetch(context.Background(), "1")
	assert.Equal(t, "secret", gotKey)
}

func TestFetchAbsent(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"no article element", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<PubmedArticleSet></PubmedArticleSet>")
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"garbage", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not xml at all")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFetcher(t, tt.handler)
			doc, ok := f.Fetch(context.Background(), "1")
			assert.False(t, ok)
			assert.Nil(t, doc)
		})
	}
}

func TestPing(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, esearchXML(1, "1"))
	})
	assert.NoError(t, f.Ping(context.Background()))

	down := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Ping(context.Background()))
}
