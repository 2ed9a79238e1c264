package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/config"
	"image-compressor/internal/repository/photo"
)

type FileRepository struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewFileRepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	repo := &FileRepository{
		client:  client,
		bucket:  cfg.Minio.Bucket,
		retries: retries,
		logger:  logger,
	}

	if err := repo.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *FileRepository) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
	}

	r.logger.Info().Str("bucket", r.bucket).Msg("Created bucket")
	return nil
}

// SaveObject stores data under path. Paths are content addressed with
// a timestamp component, so an existing object is never overwritten.
func (r *FileRepository) SaveObject(ctx context.Context, path, contentType string, data []byte) error {
	err := retry.Do(func() error {
		_, err := r.client.PutObject(ctx, r.bucket, path,
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		return err
	}, r.retries)

	if err != nil {
		return fmt.Errorf("%w: failed to save object %s: %v", photo.ErrStorageError, path, err)
	}

	return nil
}

func (r *FileRepository) GetObject(ctx context.Context, path string) ([]byte, error) {
	var data []byte

	err := retry.Do(func() error {
		obj, err := r.client.GetObject(ctx, r.bucket, path, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer obj.Close()

		data, err = io.ReadAll(obj)
		return err
	}, r.retries)

	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, photo.ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: failed to get object %s: %v", photo.ErrStorageError, path, err)
	}

	return data, nil
}

func (r *FileRepository) DeleteObject(ctx context.Context, path string) error {
	err := retry.Do(func() error {
		return r.client.RemoveObject(ctx, r.bucket, path, minio.RemoveObjectOptions{})
	}, r.retries)

	if err != nil {
		return fmt.Errorf("%w: failed to delete object %s: %v", photo.ErrStorageError, path, err)
	}

	return nil
}

// DeleteObjectsWithPrefix removes every object under prefix. Per
// object failures are logged and skipped so one stuck object does not
// leave the rest behind.
func (r *FileRepository) DeleteObjectsWithPrefix(ctx context.Context, prefix string) error {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects := r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var failed int
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("%w: failed to list objects under %s: %v", photo.ErrStorageError, prefix, obj.Err)
		}
		if err := r.DeleteObject(ctx, obj.Key); err != nil {
			r.logger.Warn().Err(err).Str("key", obj.Key).Msg("Failed to delete object")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d objects under %s not deleted", photo.ErrStorageError, failed, prefix)
	}

	return nil
}
