// Package minio fetches shop export files from S3-compatible object storage
// so ingest commands can run without a shared filesystem.
package minio

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// ObjectStoreAPI is the subset of the minio client the export store uses.
type ObjectStoreAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
}

// Config holds connection parameters for the object store holding exports.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ExportStore downloads export objects to local temp files for ingestion.
type ExportStore struct {
	client ObjectStoreAPI
	bucket string
	logger logging.Logger
}

// NewExportStore connects to the object store and verifies that the
// configured bucket exists.
func NewExportStore(cfg *Config, log logging.Logger) (*ExportStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeValidation, "object store endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "object store bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create object store client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := newExportStore(ctx, client, cfg.Bucket, log)
	if err != nil {
		return nil, err
	}

	log.Info("Object store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
	)
	return store, nil
}

func newExportStore(ctx context.Context, client ObjectStoreAPI, bucket string, log logging.Logger) (*ExportStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to reach object store")
	}
	if !exists {
		return nil, errors.Newf(errors.ErrCodeValidation, "bucket %q does not exist", bucket)
	}
	return &ExportStore{client: client, bucket: bucket, logger: log}, nil
}

// FetchToTemp downloads bucket/object into a fresh temp directory, keeping
// the object's file name so readers can dispatch on the extension.  The
// returned cleanup removes the directory; callers defer it.  An empty bucket
// selects the configured default.
func (s *ExportStore) FetchToTemp(ctx context.Context, bucket, object string) (string, func(), error) {
	if bucket == "" {
		bucket = s.bucket
	}
	if object == "" {
		return "", nil, errors.New(errors.ErrCodeValidation, "object name is required")
	}

	info, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return "", nil, errors.Newf(errors.ErrCodeNotFound, "object %s/%s not found", bucket, object)
		}
		return "", nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat export object")
	}

	dir, err := os.MkdirTemp("", "insight-export-")
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create download directory")
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(object))
	if err := s.client.FGetObject(ctx, bucket, object, path, minio.GetObjectOptions{}); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to download export object")
	}

	s.logger.Info("Fetched export object",
		logging.String("bucket", bucket),
		logging.String("object", object),
		logging.Int64("bytes", info.Size),
	)
	return path, cleanup, nil
}
