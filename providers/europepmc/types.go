// Package europepmc implements the catalog provider on top of the Europe PMC REST API.
package europepmc

// SearchResponse is the top-level structure of a Europe PMC search answer.
type SearchResponse struct {
	HitCount       int    `json:"hitCount"`
	NextCursorMark string `json:"nextCursorMark"`
	ResultList     struct {
		Result []Article `json:"result"`
	} `json:"resultList"`
}

// Article is one result. With resultType=idlist only ID, Source and PMID are set.
type Article struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	PMID         string `json:"pmid"`
	Title        string `json:"title"`
	AbstractText string `json:"abstractText"`
	PubYear      string `json:"pubYear"`
	JournalInfo  struct {
		Journal struct {
			Title string `json:"title"`
			ISSN  string `json:"issn"`
			ESSN  string `json:"essn"`
		} `json:"journal"`
	} `json:"journalInfo"`
	AuthorList struct {
		Author []Author `json:"author"`
	} `json:"authorList"`
	MeshHeadingList struct {
		MeshHeading []MeshHeading `json:"meshHeading"`
	} `json:"meshHeadingList"`
}

// Author is one entry of the author list.
type Author struct {
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// MeshHeading is one MeSH descriptor.
type MeshHeading struct {
	DescriptorName string `json:"descriptorName"`
}
