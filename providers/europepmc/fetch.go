package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/models"
	"pubmed-explorer/providers"
)

const providerName = "europepmc"

// maxPageSize is the API's page size limit. Tests lower it to exercise paging.
var maxPageSize = 1000

// Fetcher implements providers.Provider for Europe PMC, restricted to MEDLINE records
// so that every identifier is a PMID.
type Fetcher struct {
	Config     *config.Config
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// NewFetcher creates a new Europe PMC fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config:     cfg,
		Logger:     logger.With(zap.String("provider", providerName)),
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Name returns the provider name.
func (f *Fetcher) Name() string {
	return providerName
}

// Search pages through the idlist results with cursor marks and returns PMIDs in
// relevance order. Failures yield an empty slice.
func (f *Fetcher) Search(ctx context.Context, term string, maxResults int) []string {
	log := f.Logger.With(zap.String("term", term))
	ids := []string{}
	if maxResults <= 0 {
		return ids
	}

	query := fmt.Sprintf("(%s) AND SRC:MED", term)
	cursor := "*"
	for len(ids) < maxResults {
		pageSize := min(maxPageSize, maxResults-len(ids))
		params := url.Values{}
		params.Set("query", query)
		params.Set("format", "json")
		params.Set("resultType", "idlist")
		params.Set("pageSize", fmt.Sprint(pageSize))
		params.Set("cursorMark", cursor)

		var resp SearchResponse
		if _, err := f.getJSON(ctx, params, &resp); err != nil {
			log.Error("Europe PMC search failed", zap.Error(err))
			return []string{}
		}

		for _, result := range resp.ResultList.Result {
			if result.PMID != "" {
				ids = append(ids, result.PMID)
			}
		}
		if len(resp.ResultList.Result) < pageSize || resp.NextCursorMark == "" || resp.NextCursorMark == cursor {
			break
		}
		cursor = resp.NextCursorMark
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	log.Info("Europe PMC search finished", zap.Int("total_ids", len(ids)))
	return ids
}

// Fetch retrieves the core record for one PMID.
func (f *Fetcher) Fetch(ctx context.Context, id string) (providers.Document, bool) {
	log := f.Logger.With(zap.String("pmid", id))

	params := url.Values{}
	params.Set("query", fmt.Sprintf("EXT_ID:%s AND SRC:MED", id))
	params.Set("format", "json")
	params.Set("resultType", "core")

	var resp SearchResponse
	body, err := f.getJSON(ctx, params, &resp)
	if err != nil {
		log.Error("Europe PMC fetch failed", zap.Error(err))
		return nil, false
	}
	if len(resp.ResultList.Result) == 0 {
		log.Warn("No result in Europe PMC response")
		return nil, false
	}

	return &Document{id: id, raw: body, Article: resp.ResultList.Result[0]}, true
}

// Ping checks that the search endpoint answers.
func (f *Fetcher) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("query", "test")
	params.Set("format", "json")
	params.Set("pageSize", "1")
	var resp SearchResponse
	_, err := f.getJSON(ctx, params, &resp)
	return err
}

func (f *Fetcher) getJSON(ctx context.Context, params url.Values, out any) ([]byte, error) {
	reqURL := strings.TrimRight(f.Config.EuropePMCBaseURL, "/") + "/search?" + params.Encode()
	f.Logger.Debug("Calling Europe PMC", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("europe pmc search failed: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("decoding europe pmc response: %w", err)
	}
	return body, nil
}

// Document is a Europe PMC core result with the raw JSON body.
type Document struct {
	id      string
	raw     []byte
	Article Article
}

func (d *Document) ID() string     { return d.id }
func (d *Document) Raw() []byte    { return d.raw }
func (d *Document) Format() string { return "json" }

// Record maps the result; see Article.Record.
func (d *Document) Record() models.ArticleRecord {
	return d.Article.Record()
}
