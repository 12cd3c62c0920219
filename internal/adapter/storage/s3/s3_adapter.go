package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/philling1/house-marketplace/internal/platform/logger"
)

// ImageStorage stores listing images in a MinIO/S3 bucket under the
// images/ prefix and hands back public download URLs.
type ImageStorage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewImageStorage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*ImageStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	// Create the bucket if it doesn't exist.
	if err := client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
	}

	return &ImageStorage{
		client: client,
		bucket: bucketName,
		logger: log.Named("ImageStorage"),
	}, nil
}

// Upload stores the bytes under images/<fileName> and returns the public
// URL. Progress of the transfer is logged at debug level as it happens.
func (s *ImageStorage) Upload(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	objectKey := "images/" + fileName

	reader := &progressReader{
		inner:  bytes.NewReader(data),
		total:  int64(len(data)),
		key:    objectKey,
		logger: s.logger,
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.logger.Info("image uploaded",
		zap.String("bucket", info.Bucket),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size))

	// MinIO URL shape: http(s)://<endpoint>/<bucket>/<objectKey>
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey), nil
}

// Remove deletes an object previously returned by Upload, identified by its
// public URL.
func (s *ImageStorage) Remove(ctx context.Context, fileURL string) error {
	prefix := fmt.Sprintf("%s/%s/", s.client.EndpointURL().String(), s.bucket)
	objectKey := strings.TrimPrefix(fileURL, prefix)
	if objectKey == fileURL {
		return fmt.Errorf("url %q does not belong to bucket %s", fileURL, s.bucket)
	}
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}

// progressReader logs transfer progress while minio reads the payload.
type progressReader struct {
	inner  *bytes.Reader
	total  int64
	seen   int64
	key    string
	logger *logger.Logger
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 && r.total > 0 {
		r.seen += int64(n)
		r.logger.Debug("upload progress",
			zap.String("key", r.key),
			zap.Int64("percent", r.seen*100/r.total))
	}
	return n, err
}
