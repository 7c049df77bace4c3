package europepmc

import (
	"strconv"
	"strings"

	"pubmed-explorer/models"
	"pubmed-explorer/providers"
)

// Record maps a core result into an ArticleRecord. Europe PMC has no middle-name field.
func (a *Article) Record() models.ArticleRecord {
	rec := models.ArticleRecord{
		Title:        providers.CleanText(a.Title),
		Abstract:     providers.CleanText(a.AbstractText),
		JournalTitle: providers.CleanText(a.JournalInfo.Journal.Title),
		JournalISSN:  strings.TrimSpace(a.JournalInfo.Journal.ISSN),
	}
	if rec.JournalISSN == "" {
		rec.JournalISSN = strings.TrimSpace(a.JournalInfo.Journal.ESSN)
	}
	if pmid, err := strconv.ParseInt(strings.TrimSpace(a.PMID), 10, 64); err == nil && pmid > 0 {
		rec.PMID = pmid
	}
	if year, err := strconv.Atoi(strings.TrimSpace(a.PubYear)); err == nil {
		rec.PublicationYear = &year
	}

	for _, author := range a.AuthorList.Author {
		rec.Authors = append(rec.Authors, models.AuthorRecord{
			LastName:  providers.CleanText(author.LastName),
			FirstName: providers.CleanText(author.FirstName),
		})
	}
	for _, heading := range a.MeshHeadingList.MeshHeading {
		if term := providers.CleanText(heading.DescriptorName); term != "" {
			rec.MeshTerms = append(rec.MeshTerms, term)
		}
	}
	return rec
}
