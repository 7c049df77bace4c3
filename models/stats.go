package models

import "fmt"

// Stats summarizes the stored catalog.
type Stats struct {
	TotalArticles  int64 `json:"total_articles"`
	TotalAuthors   int64 `json:"total_authors"`
	TotalJournals  int64 `json:"total_journals"`
	TotalMeshTerms int64 `json:"total_mesh_terms"`
	MinYear        *int  `json:"min_year,omitempty"`
	MaxYear        *int  `json:"max_year,omitempty"`
}

// YearRange renders "min - max", or "" when no article has a year.
func (s Stats) YearRange() string {
	if s.MinYear == nil || s.MaxYear == nil {
		return ""
	}
	return fmt.Sprintf("%d - %d", *s.MinYear, *s.MaxYear)
}

// NamedCount is one row of a top-N aggregate.
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count" gorm:"column:article_count"`
}

// YearCount is the number of articles published in one year.
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count" gorm:"column:article_count"`
}
