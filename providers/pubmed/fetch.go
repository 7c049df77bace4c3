package pubmed

import (
	"context"
	"encoding/xml"
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

const providerName = "pubmed"

// Fetcher wraps the ESearch/EFetch calls against PubMed.
type Fetcher struct {
	Config     *config.Config
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// NewFetcher creates a PubMed fetcher using the configured base URL and timeout.
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

// Search runs ESearch page by page and returns at most maxResults PMIDs in the order
// PubMed ranked them. Any failure discards the partial result and yields an empty slice.
func (f *Fetcher) Search(ctx context.Context, term string, maxResults int) []string {
	log := f.Logger.With(zap.String("term", term))
	ids := []string{}
	if maxResults <= 0 {
		return ids
	}

	pageSize := f.Config.PubMedPageSize
	if pageSize <= 0 {
		pageSize = maxResults
	}

	for len(ids) < maxResults {
		retmax := min(pageSize, maxResults-len(ids))
		result, err := f.searchPage(ctx, term, retmax, len(ids))
		if err != nil {
			log.Error("ESearch request failed", zap.Int("retstart", len(ids)), zap.Error(err))
			return []string{}
		}
		ids = append(ids, result.IDs...)
		log.Debug("ESearch page received", zap.Int("count", len(result.IDs)), zap.Int("total", result.Count))

		if len(result.IDs) < retmax || (result.Count > 0 && len(ids) >= result.Count) {
			break
		}
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	log.Info("PubMed ESearch finished", zap.Int("total_ids", len(ids)))
	return ids
}

func (f *Fetcher) searchPage(ctx context.Context, term string, retmax, retstart int) (*ESearchResult, error) {
	params := f.baseParams()
	params.Set("term", term)
	params.Set("retmax", fmt.Sprint(retmax))
	params.Set("retstart", fmt.Sprint(retstart))

	body, err := f.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var result ESearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding esearch response: %w", err)
	}
	if result.Error != "" && len(result.IDs) == 0 {
		f.Logger.Warn("ESearch reported an error", zap.String("error", result.Error))
	}
	return &result, nil
}

// Fetch retrieves one PubmedArticle via EFetch. It returns false when the response holds
// no article or the request fails.
func (f *Fetcher) Fetch(ctx context.Context, id string) (providers.Document, bool) {
	log := f.Logger.With(zap.String("pmid", id))

	params := f.baseParams()
	params.Set("id", id)

	body, err := f.get(ctx, "efetch.fcgi", params)
	if err != nil {
		log.Error("EFetch request failed", zap.Error(err))
		return nil, false
	}

	var set PubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		log.Error("Failed to parse EFetch response", zap.Error(err))
		return nil, false
	}
	if len(set.PubmedArticle) == 0 {
		log.Warn("No PubmedArticle in EFetch response")
		return nil, false
	}

	return &Document{id: id, raw: body, Article: set.PubmedArticle[0]}, true
}

// Ping issues a minimal ESearch to check that E-utilities answers.
func (f *Fetcher) Ping(ctx context.Context) error {
	params := f.baseParams()
	params.Set("term", "test")
	params.Set("retmax", "1")
	_, err := f.get(ctx, "esearch.fcgi", params)
	return err
}

func (f *Fetcher) baseParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "xml")
	if f.Config.PubMedAPIKey != "" {
		params.Set("api_key", f.Config.PubMedAPIKey)
	}
	if f.Config.PubMedTool != "" {
		params.Set("tool", f.Config.PubMedTool)
	}
	if f.Config.PubMedEmail != "" {
		params.Set("email", f.Config.PubMedEmail)
	}
	return params
}

func (f *Fetcher) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := strings.TrimRight(f.Config.PubMedBaseURL, "/") + "/" + endpoint + "?" + params.Encode()
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
		return nil, fmt.Errorf("%s failed: status %d", endpoint, resp.StatusCode)
	}
	return body, nil
}

// Document is a fetched PubmedArticle together with the raw EFetch body.
type Document struct {
	id      string
	raw     []byte
	Article PubmedArticle
}

func (d *Document) ID() string     { return d.id }
func (d *Document) Raw() []byte    { return d.raw }
func (d *Document) Format() string { return "xml" }

// Record maps the article; see PubmedArticle.Record.
func (d *Document) Record() models.ArticleRecord {
	return d.Article.Record()
}
