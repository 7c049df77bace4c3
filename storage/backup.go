package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
)

// BackupKey names a database dump taken at t.
func BackupKey(prefix string, t time.Time) string {
	return fmt.Sprintf("%sbackup-%s.sql.gz", prefix, t.UTC().Format("2006-01-02T15-04-05Z"))
}

// RotateBackups keeps the newest keep objects under prefix and deletes the rest. It
// returns the deleted keys. A failed delete is logged and does not stop the rotation.
func RotateBackups(ctx context.Context, bucket *Bucket, prefix string, keep int, log *zap.Logger) ([]string, error) {
	objects, err := bucket.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(objects) <= keep {
		log.Info("No rotation needed", zap.Int("backups", len(objects)), zap.Int("keep", keep))
		return nil, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return aws.ToTime(objects[i].LastModified).After(aws.ToTime(objects[j].LastModified))
	})

	var deleted []string
	for _, obj := range objects[keep:] {
		key := aws.ToString(obj.Key)
		log.Info("Deleting old backup", zap.String("key", key))
		if err := bucket.Delete(ctx, key); err != nil {
			log.Error("Failed to delete old backup", zap.String("key", key), zap.Error(err))
			continue
		}
		deleted = append(deleted, key)
	}
	return deleted, nil
}
