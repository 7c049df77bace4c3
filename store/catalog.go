package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pubmed-explorer/models"
)

// DefaultSearchTerms are seeded into an empty search_terms table.
var DefaultSearchTerms = []string{
	"machine learning medicine",
	"cancer immunotherapy",
	"COVID-19 vaccine",
	"artificial intelligence healthcare",
	"diabetes treatment",
	"neuroscience research",
}

// DefaultSearchFilters are seeded into an empty search_filters table.
func DefaultSearchFilters() []models.SearchFilter {
	var filters []models.SearchFilter
	for year := 2021; year <= 2025; year++ {
		filters = append(filters, models.SearchFilter{
			Name:        fmt.Sprintf("Published %d", year),
			FilterQuery: fmt.Sprintf("AND %d[PDAT]", year),
		})
	}
	return filters
}

// SeedDefaults fills the search term and filter tables when they are empty.
func (s *Store) SeedDefaults(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.SearchTerm{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting search terms: %w", err)
	}
	if count == 0 {
		terms := make([]models.SearchTerm, 0, len(DefaultSearchTerms))
		for _, t := range DefaultSearchTerms {
			terms = append(terms, models.SearchTerm{Term: t})
		}
		if err := db.Create(&terms).Error; err != nil {
			return fmt.Errorf("seeding search terms: %w", err)
		}
		s.log.Info("Seeded default search terms", zap.Int("count", len(terms)))
	}

	if err := db.Model(&models.SearchFilter{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting search filters: %w", err)
	}
	if count == 0 {
		filters := DefaultSearchFilters()
		if err := db.Create(&filters).Error; err != nil {
			return fmt.Errorf("seeding search filters: %w", err)
		}
		s.log.Info("Seeded default search filters", zap.Int("count", len(filters)))
	}
	return nil
}

func (s *Store) ListSearchTerms(ctx context.Context) ([]models.SearchTerm, error) {
	var terms []models.SearchTerm
	if err := s.db.WithContext(ctx).Order("id").Find(&terms).Error; err != nil {
		return nil, fmt.Errorf("listing search terms: %w", err)
	}
	return terms, nil
}

func (s *Store) CreateSearchTerm(ctx context.Context, term *models.SearchTerm) error {
	if err := s.db.WithContext(ctx).Create(term).Error; err != nil {
		return fmt.Errorf("creating search term %q: %w", term.Term, err)
	}
	return nil
}

func (s *Store) ListSearchFilters(ctx context.Context) ([]models.SearchFilter, error) {
	var filters []models.SearchFilter
	if err := s.db.WithContext(ctx).Order("id").Find(&filters).Error; err != nil {
		return nil, fmt.Errorf("listing search filters: %w", err)
	}
	return filters, nil
}

func (s *Store) CreateSearchFilter(ctx context.Context, filter *models.SearchFilter) error {
	if err := s.db.WithContext(ctx).Create(filter).Error; err != nil {
		return fmt.Errorf("creating search filter %q: %w", filter.Name, err)
	}
	return nil
}

// RecordRun appends a pipeline run to the history.
func (s *Store) RecordRun(ctx context.Context, run *models.IngestRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.IngestRun, error) {
	var runs []models.IngestRun
	err := s.db.WithContext(ctx).Order("id DESC").Limit(clampLimit(limit)).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
