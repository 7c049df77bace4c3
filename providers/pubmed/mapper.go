package pubmed

import (
	"strconv"
	"strings"

	"pubmed-explorer/models"
	"pubmed-explorer/providers"
)

// Record maps the article into an ArticleRecord. Every field falls back to its empty
// value when the source element is missing.
func (a *PubmedArticle) Record() models.ArticleRecord {
	citation := a.MedlineCitation
	article := citation.Article

	rec := models.ArticleRecord{
		PMID:            parsePMID(citation.PMID),
		Title:           providers.CleanText(article.Title.Inner),
		Abstract:        joinAbstract(article.AbstractText),
		PublicationYear: parseYear(article.Journal.PubDate.Year),
		JournalTitle:    providers.CleanText(article.Journal.Title),
		JournalISSN:     strings.TrimSpace(article.Journal.ISSN),
	}

	for _, author := range article.Authors {
		rec.Authors = append(rec.Authors, models.AuthorRecord{
			LastName:   providers.CleanText(author.LastName),
			FirstName:  providers.CleanText(author.ForeName),
			MiddleName: providers.CleanText(author.MiddleName),
		})
	}

	for _, heading := range citation.MeshHeadings {
		if term := providers.CleanText(heading.DescriptorName); term != "" {
			rec.MeshTerms = append(rec.MeshTerms, term)
		}
	}

	return rec
}

// joinAbstract concatenates the sections of a structured abstract.
func joinAbstract(sections []MarkupText) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if text := providers.CleanText(s.Inner); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func parseYear(s string) *int {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &year
}

func parsePMID(s string) int64 {
	pmid, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || pmid <= 0 {
		return 0
	}
	return pmid
}
