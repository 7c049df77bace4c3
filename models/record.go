package models

import "strings"

// ArticleRecord is the provider-neutral result of mapping one catalog document.
// Empty strings and a nil year mean the field was absent in the source.
type ArticleRecord struct {
	PMID            int64          `json:"pmid"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract,omitempty"`
	PublicationYear *int           `json:"publication_year,omitempty"`
	JournalTitle    string         `json:"journal_title,omitempty"`
	JournalISSN     string         `json:"journal_issn,omitempty"`
	Authors         []AuthorRecord `json:"authors,omitempty"`
	MeshTerms       []string       `json:"mesh_terms,omitempty"`
}

// AuthorRecord carries the name parts of one author.
type AuthorRecord struct {
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
}

// FullName joins the non-empty parts as "first middle last".
func (a AuthorRecord) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.FirstName, a.MiddleName, a.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsEmpty reports whether the author carries no name at all.
func (a AuthorRecord) IsEmpty() bool {
	return a.LastName == "" && a.FirstName == "" && a.MiddleName == ""
}
