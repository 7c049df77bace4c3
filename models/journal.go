package models

import "time"

// Journal is reconciled by its title; the first article referencing a title creates it.
type Journal struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Title string  `json:"title" gorm:"size:500;uniqueIndex;not null"`
	ISSN  *string `json:"issn,omitempty" gorm:"column:issn;size:20"`
}

// TableName pins the table name.
func (Journal) TableName() string {
	return "journals"
}
