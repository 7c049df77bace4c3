package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting read from the environment.
type Config struct {
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"pubmed_db"`
	DBPath     string `envconfig:"DB_PATH" default:"pubmed.db"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	PubMedBaseURL  string        `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey   string        `envconfig:"PUBMED_API_KEY"`
	PubMedEmail    string        `envconfig:"PUBMED_EMAIL"`
	PubMedTool     string        `envconfig:"PUBMED_TOOL" default:"pubmed-explorer"`
	PubMedPageSize int           `envconfig:"PUBMED_PAGE_SIZE" default:"100"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`

	EuropePMCBaseURL string `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest"`

	// pubmed or europepmc
	CatalogProvider string `envconfig:"CATALOG_PROVIDER" default:"pubmed"`

	MaxArticles          int           `envconfig:"MAX_ARTICLES" default:"150"`
	RequestDelay         time.Duration `envconfig:"REQUEST_DELAY" default:"500ms"`
	ScheduledMaxArticles int           `envconfig:"SCHEDULED_MAX_ARTICLES" default:"20"`

	CronEnabled  bool   `envconfig:"CRON_ENABLED" default:"false"`
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 0 * * *"`

	LogMode  string `envconfig:"LOG_MODE" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	S3Endpoint          string `envconfig:"S3_ENDPOINT"`
	S3Region            string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey         string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey         string `envconfig:"S3_SECRET_KEY"`
	S3Bucket            string `envconfig:"S3_BUCKET"`
	ArchiveRawDocuments bool   `envconfig:"ARCHIVE_RAW_DOCUMENTS" default:"false"`
	BackupPrefix        string `envconfig:"BACKUP_PREFIX" default:"backups/"`
	KeepBackups         int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

// DSN returns the data source name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Validate checks the values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.DBPort < 1 || c.DBPort > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.DBPort)
	}
	if c.MaxArticles <= 0 || c.MaxArticles > 10000 {
		return fmt.Errorf("MAX_ARTICLES must be between 1 and 10000, got %d", c.MaxArticles)
	}
	if c.ScheduledMaxArticles <= 0 {
		return fmt.Errorf("SCHEDULED_MAX_ARTICLES must be positive, got %d", c.ScheduledMaxArticles)
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("REQUEST_DELAY must not be negative")
	}
	if c.PubMedPageSize <= 0 {
		return fmt.Errorf("PUBMED_PAGE_SIZE must be positive, got %d", c.PubMedPageSize)
	}
	switch c.CatalogProvider {
	case "pubmed", "europepmc":
	default:
		return fmt.Errorf("unknown CATALOG_PROVIDER %q", c.CatalogProvider)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if c.KeepBackups < 1 {
		return fmt.Errorf("KEEP_BACKUPS must be at least 1, got %d", c.KeepBackups)
	}
	if c.ArchiveRawDocuments && c.S3Bucket == "" {
		return fmt.Errorf("ARCHIVE_RAW_DOCUMENTS requires S3_BUCKET")
	}
	return nil
}

// Load reads the configuration from the environment (and a .env file, if present).
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
