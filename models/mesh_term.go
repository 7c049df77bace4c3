package models

import "time"

// MeshTerm is a MeSH descriptor, reconciled by its text.
type MeshTerm struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Term string `json:"term" gorm:"size:200;uniqueIndex;not null"`
}

func (MeshTerm) TableName() string {
	return "mesh_terms"
}
