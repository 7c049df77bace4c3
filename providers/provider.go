package providers

import (
	"context"

	"pubmed-explorer/models"
)

// Provider is implemented by every literature catalog (PubMed, Europe PMC).
type Provider interface {
	// Name returns the unique provider name, e.g. "pubmed".
	Name() string

	// Search returns catalog identifiers for term in the catalog's own order, at most
	// maxResults of them. Failures are logged and yield an empty slice.
	Search(ctx context.Context, term string, maxResults int) []string

	// Fetch retrieves the full record for one identifier. The boolean is false when the
	// record is missing or could not be retrieved.
	Fetch(ctx context.Context, id string) (Document, bool)

	// Ping checks that the catalog is reachable.
	Ping(ctx context.Context) error
}

// Document is one fetched catalog record.
type Document interface {
	// ID is the identifier the document was fetched with.
	ID() string
	// Record maps the document into the provider-neutral record. It never fails.
	Record() models.ArticleRecord
	// Raw returns the response body the document was decoded from.
	Raw() []byte
	// Format is the file extension of Raw, e.g. "xml".
	Format() string
}
