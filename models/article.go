package models

import "time"

// Article is keyed by its PubMed identifier. Rows are written once and never updated.
type Article struct {
	PMID      int64     `json:"pmid" gorm:"column:pmid;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`

	Title           string  `json:"title" gorm:"type:text;not null"`
	Abstract        *string `json:"abstract,omitempty" gorm:"type:text"`
	PublicationYear *int    `json:"publication_year,omitempty" gorm:"index"`

	JournalID *uint    `json:"journal_id,omitempty" gorm:"index"`
	Journal   *Journal `json:"journal,omitempty" gorm:"foreignKey:JournalID"`
}

func (Article) TableName() string {
	return "articles"
}

// ArticleAuthor links an article to one of its authors.
type ArticleAuthor struct {
	ArticlePMID int64 `gorm:"column:article_pmid;primaryKey;autoIncrement:false"`
	AuthorID    uint  `gorm:"column:author_id;primaryKey;autoIncrement:false"`

	Article *Article `gorm:"foreignKey:ArticlePMID;references:PMID"`
	Author  *Author  `gorm:"foreignKey:AuthorID"`
}

func (ArticleAuthor) TableName() string {
	return "article_authors"
}

// ArticleMeshTerm links an article to one of its MeSH descriptors.
type ArticleMeshTerm struct {
	ArticlePMID int64 `gorm:"column:article_pmid;primaryKey;autoIncrement:false"`
	MeshTermID  uint  `gorm:"column:mesh_term_id;primaryKey;autoIncrement:false"`

	Article  *Article  `gorm:"foreignKey:ArticlePMID;references:PMID"`
	MeshTerm *MeshTerm `gorm:"foreignKey:MeshTermID"`
}

func (ArticleMeshTerm) TableName() string {
	return "article_mesh_terms"
}
