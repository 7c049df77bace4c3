package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pubmed-explorer/providers"
)

var contentTypes = map[string]string{
	"xml":  "application/xml",
	"json": "application/json",
}

// RawArchive uploads fetched catalog responses to raw/<provider>/<id>.<format>.
type RawArchive struct {
	bucket *Bucket
	log    *zap.Logger
}

func NewRawArchive(bucket *Bucket, log *zap.Logger) *RawArchive {
	return &RawArchive{bucket: bucket, log: log.With(zap.String("component", "raw_archive"))}
}

// RawKey returns the object key for a raw document.
func RawKey(provider, id, format string) string {
	return fmt.Sprintf("raw/%s/%s.%s", provider, id, format)
}

// Archive uploads the raw response of doc.
func (a *RawArchive) Archive(ctx context.Context, provider string, doc providers.Document) error {
	key := RawKey(provider, doc.ID(), doc.Format())
	link, err := a.bucket.Upload(ctx, key, doc.Raw(), contentTypes[doc.Format()])
	if err != nil {
		return err
	}
	a.log.Debug("Raw document archived", zap.String("link", link))
	return nil
}
