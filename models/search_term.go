package models

// SearchTerm is a saved catalog query picked up by the scheduled run.
type SearchTerm struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Term string `json:"term" gorm:"uniqueIndex;not null"` // e.g. "cancer immunotherapy"
}

// TableName pins the table name.
func (SearchTerm) TableName() string {
	return "search_terms"
}
