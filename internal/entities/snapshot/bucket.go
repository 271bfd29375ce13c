package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Bucket stores snapshots as a single object in a MinIO bucket.
type Bucket struct {
	client *minio.Client
	bucket string
	key    string
}

// NewBucket creates a MinIO backed snapshot store.
func NewBucket(cfg config.MinIOConfig) (*Bucket, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Bucket{
		client: client,
		bucket: cfg.GetMinioBucketSnapshots(),
		key:    cfg.GetSnapshotObjectKey(),
	}, nil
}

func (b *Bucket) BucketName() string { return b.bucket }
func (b *Bucket) ObjectKey() string  { return b.key }

// EnsureBucketExists creates the bucket if it doesn't exist.
func (b *Bucket) EnsureBucketExists(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", b.bucket, err)
	}
	return nil
}

func (b *Bucket) Name() string { return "minio" }

// Load implements entities.Loader.
func (b *Bucket) Load(ctx context.Context) (entities.Data, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, minio.GetObjectOptions{})
	if err != nil {
		return entities.Data{}, fmt.Errorf("get snapshot %s/%s: %w", b.bucket, b.key, err)
	}
	defer obj.Close()
	return Decode(obj)
}

// Write uploads data as the current snapshot and returns the object size.
func (b *Bucket) Write(ctx context.Context, data entities.Data) (int64, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, data, time.Now()); err != nil {
		return 0, err
	}

	size := int64(buf.Len())
	_, err := b.client.PutObject(ctx, b.bucket, b.key, &buf, size, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return 0, fmt.Errorf("put snapshot %s/%s: %w", b.bucket, b.key, err)
	}
	return size, nil
}

var _ entities.Loader = (*Bucket)(nil)
