// Command backup dumps the database, uploads the gzipped dump to S3 and rotates
// old dumps.
package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/logging"
	"pubmed-explorer/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.S3Bucket == "" {
		logger.Fatal("S3_BUCKET is required for backups")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	logger.Info("Starting backup", zap.String("driver", cfg.DBDriver))

	dump, err := createDump(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create database dump", zap.Error(err))
	}

	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create S3 client", zap.Error(err))
	}
	bucket := storage.NewBucket(client, cfg.S3Bucket, cfg.S3Endpoint)

	key := storage.BackupKey(cfg.BackupPrefix, time.Now())
	link, err := bucket.Upload(ctx, key, dump, "application/gzip")
	if err != nil {
		logger.Fatal("Failed to upload backup", zap.Error(err))
	}
	logger.Info("Backup uploaded", zap.String("link", link), zap.Int("bytes", len(dump)))

	deleted, err := storage.RotateBackups(ctx, bucket, cfg.BackupPrefix, cfg.KeepBackups, logger)
	if err != nil {
		logger.Fatal("Failed to rotate backups", zap.Error(err))
	}
	logger.Info("Backup finished", zap.Int("rotated", len(deleted)))
}

// createDump returns a gzipped pg_dump for postgres, or the gzipped database file
// for sqlite.
func createDump(ctx context.Context, cfg *config.Config) ([]byte, error) {
	if cfg.DBDriver == "sqlite" {
		f, err := os.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return gzipAll(f)
	}

	cmd := exec.CommandContext(ctx, "pg_dump",
		"-h", cfg.DBHost,
		"-p", strconv.Itoa(cfg.DBPort),
		"-U", cfg.DBUser,
		"-d", cfg.DBName,
		"-w",
	)
	// password via environment so it stays out of the process list
	cmd.Env = append(os.Environ(), "PGPASSWORD="+cfg.DBPassword)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting pg_dump: %w", err)
	}
	data, err := gzipAll(stdout)
	if err != nil {
		_ = cmd.Wait()
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("pg_dump: %w", err)
	}
	return data, nil
}

func gzipAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := io.Copy(zw, r); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
