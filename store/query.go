package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"pubmed-explorer/models"
)

const (
	defaultLimit = 20
	maxLimit     = 1000
	// maxQueryRows caps the result of RunReadOnlyQuery.
	maxQueryRows = 1000
)

// ErrArticleNotFound is returned by GetArticle for unknown PMIDs.
var ErrArticleNotFound = errors.New("article not found")

// YearFilter restricts publication years. Nil bounds are open.
type YearFilter struct {
	From *int
	To   *int
}

// ParseYearFilter accepts "", "all", a single year ("2023") or an inclusive range
// ("2022-2024").
func ParseYearFilter(s string) (YearFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return YearFilter{}, nil
	}

	if from, to, ok := strings.Cut(s, "-"); ok {
		lo, err := parseYear(from)
		if err != nil {
			return YearFilter{}, err
		}
		hi, err := parseYear(to)
		if err != nil {
			return YearFilter{}, err
		}
		if lo > hi {
			return YearFilter{}, fmt.Errorf("year range %q is reversed", s)
		}
		return YearFilter{From: &lo, To: &hi}, nil
	}

	y, err := parseYear(s)
	if err != nil {
		return YearFilter{}, err
	}
	return YearFilter{From: &y, To: &y}, nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < 1000 || y > 9999 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

// SearchParams filters SearchArticles. Query matches title or abstract, Journal
// matches the journal title; both are case-insensitive substrings.
type SearchParams struct {
	Query   string
	Years   YearFilter
	Journal string
	Limit   int
}

// ArticleSummary is one row of a search result.
type ArticleSummary struct {
	PMID            int64  `json:"pmid" gorm:"column:pmid"`
	Title           string `json:"title" gorm:"column:title"`
	PublicationYear *int   `json:"publication_year,omitempty" gorm:"column:publication_year"`
	JournalTitle    string `json:"journal_title" gorm:"column:journal_title"`
}

// ArticleDetail is a stored article with its associations.
type ArticleDetail struct {
	models.Article
	Authors   []models.Author `json:"authors"`
	MeshTerms []string        `json:"mesh_terms"`
}

// SearchArticles returns the newest matching articles first; articles without a
// year come last.
func (s *Store) SearchArticles(ctx context.Context, p SearchParams) ([]ArticleSummary, error) {
	q := s.db.WithContext(ctx).
		Table("articles").
		Select("articles.pmid, articles.title, articles.publication_year, COALESCE(journals.title, '') AS journal_title").
		Joins("LEFT JOIN journals ON journals.id = articles.journal_id")

	if term := strings.TrimSpace(p.Query); term != "" {
		pattern := likePattern(term)
		q = q.Where("(LOWER(articles.title) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(articles.abstract, '')) LIKE ? ESCAPE '\\')",
			pattern, pattern)
	}
	if p.Years.From != nil {
		q = q.Where("articles.publication_year >= ?", *p.Years.From)
	}
	if p.Years.To != nil {
		q = q.Where("articles.publication_year <= ?", *p.Years.To)
	}
	if journal := strings.TrimSpace(p.Journal); journal != "" {
		q = q.Where("LOWER(journals.title) LIKE ? ESCAPE '\\'", likePattern(journal))
	}

	var out []ArticleSummary
	err := q.Order("articles.publication_year IS NULL").
		Order("articles.publication_year DESC").
		Order("articles.pmid DESC").
		Limit(clampLimit(p.Limit)).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	return out, nil
}

// RecentArticles lists the newest articles by publication year.
func (s *Store) RecentArticles(ctx context.Context, limit int) ([]ArticleSummary, error) {
	return s.SearchArticles(ctx, SearchParams{Limit: limit})
}

// GetArticle loads one article with its journal, authors and MeSH terms.
func (s *Store) GetArticle(ctx context.Context, pmid int64) (*ArticleDetail, error) {
	db := s.db.WithContext(ctx)

	var detail ArticleDetail
	err := db.Preload("Journal").Where("pmid = ?", pmid).First(&detail.Article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading article %d: %w", pmid, err)
	}

	err = db.Joins("JOIN article_authors ON article_authors.author_id = authors.id").
		Where("article_authors.article_pmid = ?", pmid).
		Order("authors.id").
		Find(&detail.Authors).Error
	if err != nil {
		return nil, fmt.Errorf("loading authors of %d: %w", pmid, err)
	}

	err = db.Model(&models.MeshTerm{}).
		Joins("JOIN article_mesh_terms ON article_mesh_terms.mesh_term_id = mesh_terms.id").
		Where("article_mesh_terms.article_pmid = ?", pmid).
		Order("mesh_terms.term").
		Pluck("mesh_terms.term", &detail.MeshTerms).Error
	if err != nil {
		return nil, fmt.Errorf("loading mesh terms of %d: %w", pmid, err)
	}
	return &detail, nil
}

// Stats counts the catalog entities and finds the publication year range.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	db := s.db.WithContext(ctx)
	var st models.Stats

	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.Article{}, &st.TotalArticles},
		{&models.Author{}, &st.TotalAuthors},
		{&models.Journal{}, &st.TotalJournals},
		{&models.MeshTerm{}, &st.TotalMeshTerms},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return models.Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}

	var years struct {
		MinYear *int
		MaxYear *int
	}
	err := db.Model(&models.Article{}).
		Select("MIN(publication_year) AS min_year, MAX(publication_year) AS max_year").
		Where("publication_year IS NOT NULL").
		Scan(&years).Error
	if err != nil {
		return models.Stats{}, fmt.Errorf("reading year range: %w", err)
	}
	st.MinYear, st.MaxYear = years.MinYear, years.MaxYear
	return st, nil
}

// TopJournals ranks journals by stored article count.
func (s *Store) TopJournals(ctx context.Context, limit int) ([]models.NamedCount, error) {
	return s.topN(ctx, "journals",
		"journals.title AS name, COUNT(articles.pmid) AS article_count",
		"JOIN articles ON articles.journal_id = journals.id",
		"journals.id, journals.title", limit)
}

// TopAuthors ranks authors by stored article count.
func (s *Store) TopAuthors(ctx context.Context, limit int) ([]models.NamedCount, error) {
	return s.topN(ctx, "authors",
		"authors.full_name AS name, COUNT(article_authors.article_pmid) AS article_count",
		"JOIN article_authors ON article_authors.author_id = authors.id",
		"authors.id, authors.full_name", limit)
}

// TopMeshTerms ranks MeSH descriptors by stored article count.
func (s *Store) TopMeshTerms(ctx context.Context, limit int) ([]models.NamedCount, error) {
	return s.topN(ctx, "mesh_terms",
		"mesh_terms.term AS name, COUNT(article_mesh_terms.article_pmid) AS article_count",
		"JOIN article_mesh_terms ON article_mesh_terms.mesh_term_id = mesh_terms.id",
		"mesh_terms.id, mesh_terms.term", limit)
}

func (s *Store) topN(ctx context.Context, table, sel, join, group string, limit int) ([]models.NamedCount, error) {
	var out []models.NamedCount
	err := s.db.WithContext(ctx).
		Table(table).
		Select(sel).
		Joins(join).
		Group(group).
		Order("article_count DESC").
		Order("name ASC").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("ranking %s: %w", table, err)
	}
	return out, nil
}

// ArticlesByYear counts articles per publication year, oldest first.
func (s *Store) ArticlesByYear(ctx context.Context) ([]models.YearCount, error) {
	var out []models.YearCount
	err := s.db.WithContext(ctx).
		Model(&models.Article{}).
		Select("publication_year AS year, COUNT(*) AS article_count").
		Where("publication_year IS NOT NULL").
		Group("publication_year").
		Order("publication_year").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("counting articles by year: %w", err)
	}
	return out, nil
}

// RunReadOnlyQuery executes a caller supplied SELECT and returns at most
// maxQueryRows rows. The statement must already have passed validation.
func (s *Store) RunReadOnlyQuery(ctx context.Context, query string) ([]map[string]any, error) {
	query = strings.TrimRight(strings.TrimSpace(query), "; \n\t")
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", query, maxQueryRows)

	var rows []map[string]any
	if err := s.db.WithContext(ctx).Raw(wrapped).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}
