// Package pubmed talks to the NCBI E-utilities (ESearch/EFetch) for the PubMed database.
package pubmed

import (
	"encoding/xml"
)

// ESearchResult is the XML answer of esearch.fcgi.
type ESearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDs     []string `xml:"IdList>Id"`
	Error   string   `xml:"ERROR"`
}

// PubmedArticleSet is the XML document returned by efetch.fcgi.
type PubmedArticleSet struct {
	XMLName       xml.Name        `xml:"PubmedArticleSet"`
	PubmedArticle []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle is a single article in the EFetch answer.
type PubmedArticle struct {
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
}

// MedlineCitation carries the bibliographic part of a PubmedArticle.
type MedlineCitation struct {
	PMID         string        `xml:"PMID"`
	Article      Article       `xml:"Article"`
	MeshHeadings []MeshHeading `xml:"MeshHeadingList>MeshHeading"`
}

// Article holds title, abstract, journal and authors.
type Article struct {
	Journal      Journal      `xml:"Journal"`
	Title        MarkupText   `xml:"ArticleTitle"`
	AbstractText []MarkupText `xml:"Abstract>AbstractText"`
	Authors      []Author     `xml:"AuthorList>Author"`
}

// Journal is the journal an article appeared in.
type Journal struct {
	ISSN    string  `xml:"ISSN"`
	Title   string  `xml:"Title"`
	PubDate PubDate `xml:"JournalIssue>PubDate"`
}

// PubDate is the issue's publication date. Only the year is used.
type PubDate struct {
	Year string `xml:"Year"`
}

// Author is one entry of the AuthorList.
type Author struct {
	LastName   string `xml:"LastName"`
	ForeName   string `xml:"ForeName"`
	MiddleName string `xml:"MiddleName"`
}

// MeshHeading is one MeSH descriptor assigned to the citation.
type MeshHeading struct {
	DescriptorName string `xml:"DescriptorName"`
}

// MarkupText keeps the raw inner XML of elements that may contain inline markup
// such as <i> or <sup>; encoding/xml would otherwise drop the text inside them.
type MarkupText struct {
	Inner string `xml:",innerxml"`
}
