package models

import (
	"time"

	"gorm.io/datatypes"
)

// IngestRun records the outcome of one pipeline run.
type IngestRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Term        string `json:"term" gorm:"type:text;not null"`
	Provider    string `json:"provider" gorm:"size:50;index"`
	MaxArticles int    `json:"max_articles"`
	Found       int    `json:"found"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Snapshot of Stats after the run.
	Stats datatypes.JSON `json:"stats"`
}

func (IngestRun) TableName() string {
	return "ingest_runs"
}
