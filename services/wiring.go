package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/providers"
	"pubmed-explorer/providers/europepmc"
	"pubmed-explorer/providers/pubmed"
	"pubmed-explorer/storage"
)

// NewProvider returns the catalog selected by CATALOG_PROVIDER.
func NewProvider(cfg *config.Config, logger *zap.Logger) (providers.Provider, error) {
	switch cfg.CatalogProvider {
	case "pubmed":
		return pubmed.NewFetcher(cfg, logger), nil
	case "europepmc":
		return europepmc.NewFetcher(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog provider %q", cfg.CatalogProvider)
	}
}

// NewArchiver returns the raw document archive, or nil when archiving is disabled.
func NewArchiver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Archiver, error) {
	if !cfg.ArchiveRawDocuments {
		return nil, nil
	}
	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bucket := storage.NewBucket(client, cfg.S3Bucket, cfg.S3Endpoint)
	return storage.NewRawArchive(bucket, logger), nil
}

// BuildPipeline wires the configured provider and archive around st.
func BuildPipeline(ctx context.Context, cfg *config.Config, st ArticleStore, logger *zap.Logger) (*Pipeline, error) {
	provider, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	archiver, err := NewArchiver(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating raw archive: %w", err)
	}
	return NewPipeline(cfg, st, provider, archiver, logger), nil
}
