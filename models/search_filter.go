package models

// SearchFilter is a reusable query suffix combined with every saved search term.
type SearchFilter struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`       // e.g. "Published 2023"
	FilterQuery string `json:"filter_query" gorm:"type:text;not null"` // e.g. "AND 2023[PDAT]"
}

func (SearchFilter) TableName() string {
	return "search_filters"
}
