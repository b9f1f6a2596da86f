package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"stock-mirror/core/storage"
	"stock-mirror/feature/mirror/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archiver persists sync summaries to object storage as JSON audit
// records.
type Archiver struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewArchiver creates an archiver writing to the given bucket.
func NewArchiver(client storage.Client, bucket string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{client: client, bucket: bucket, logger: logger}
}

// Archive writes one run's summary under
// audit/<store>/<started-at>-<suffix>.json and returns the object name.
// The bucket is created on first use.
func (a *Archiver) Archive(ctx context.Context, summary *models.SyncSummary) (string, error) {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check audit bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create audit bucket: %w", err)
		}
	}

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	name := fmt.Sprintf("audit/%s/%s-%s.json",
		summary.StoreID,
		summary.StartedAt.UTC().Format("20060102T150405Z"),
		uuid.NewString()[:8],
	)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store audit record: %w", err)
	}
	a.logger.Info("archived sync summary",
		zap.String("store_id", summary.StoreID),
		zap.String("object", name),
	)
	return name, nil
}
