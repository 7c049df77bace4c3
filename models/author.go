package models

import "time"

// Author is keyed by (last name, first name). Two people sharing both are the same row.
type Author struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	LastName   string `json:"last_name" gorm:"size:100;not null;uniqueIndex:idx_authors_name"`
	FirstName  string `json:"first_name" gorm:"size:100;not null;default:'';uniqueIndex:idx_authors_name"`
	MiddleName string `json:"middle_name" gorm:"size:100;not null;default:''"`
	FullName   string `json:"full_name" gorm:"size:300;not null"`
}

func (Author) TableName() string {
	return "authors"
}
