// Package store persists catalog records into the relational schema and answers the
// read-side queries of the API and CLI.
package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pubmed-explorer/config"
	"pubmed-explorer/models"
)

// Store is the single handle on the database. It is created by the caller and passed
// to every component that needs persistence.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// New wraps an open gorm connection.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.With(zap.String("component", "store"))}
}

// Open connects to the configured database. A connection failure is returned as is;
// callers treat it as fatal.
func Open(cfg *config.Config, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.DBPath
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on"
		}
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// one writer; also keeps an in-memory database alive on a single connection
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging %s database: %w", cfg.DBDriver, err)
	}

	return New(db, log), nil
}

// EnsureSchema creates or migrates all tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.Journal{},
		&models.Author{},
		&models.MeshTerm{},
		&models.Article{},
		&models.ArticleAuthor{},
		&models.ArticleMeshTerm{},
		&models.IngestRun{},
		&models.SearchTerm{},
		&models.SearchFilter{},
	)
	if err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
