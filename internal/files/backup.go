package files

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/webforge-labs/webforge-backend/config"
)

// SnapshotStore persists point-in-time copies of written files. Failures
// are the caller's to log; snapshots never block a save.
type SnapshotStore interface {
	Put(ctx context.Context, projectID, filePath, content string) error
}

// NopSnapshots is used when no backup endpoint is configured.
type NopSnapshots struct{}

func (NopSnapshots) Put(context.Context, string, string, string) error { return nil }

// Internal adapter interface to enable testing without a real object store.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioWrapper struct{ c *minio.Client }

func (w minioWrapper) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return w.c.BucketExists(ctx, bucket)
}

func (w minioWrapper) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucket, opts)
}

func (w minioWrapper) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucket, object, reader, size, opts)
}

// MinioSnapshots stores one object per project file, keyed
// {projectID}/{filePath}; each write overwrites the previous snapshot.
type MinioSnapshots struct {
	api    objectAPI
	bucket string
}

var _ SnapshotStore = (*MinioSnapshots)(nil)

func NewMinioSnapshots(ctx context.Context, cfg *config.BackupConfig) (*MinioSnapshots, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return newMinioSnapshots(ctx, minioWrapper{c: client}, cfg.Bucket)
}

func newMinioSnapshots(ctx context.Context, api objectAPI, bucket string) (*MinioSnapshots, error) {
	s := &MinioSnapshots{api: api, bucket: bucket}

	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return s, nil
}

func (s *MinioSnapshots) Put(ctx context.Context, projectID, filePath, content string) error {
	object := projectID + "/" + strings.TrimPrefix(filePath, "/")
	reader := strings.NewReader(content)

	_, err := s.api.PutObject(ctx, s.bucket, object, reader, int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("store snapshot %s: %w", object, err)
	}
	return nil
}
