package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
)

// ErrForeignURL is returned when a URL does not point into the bucket
var ErrForeignURL = errors.New("url does not belong to the media bucket")

// Storage provides object storage operations
type Storage struct {
	client     *minio.Client
	bucketName string
	baseURL    string
	logger     *logging.Logger
}

// New creates a new storage client
func New(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	if logger == nil {
		logger = logging.Nop()
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
		baseURL:    PublicBaseURL(cfg),
		logger:     logger,
	}, nil
}

// PublicBaseURL returns the URL prefix objects are served from
func PublicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint
}

// UploadFile uploads a file from local filesystem and returns its size
func (s *Storage) UploadFile(ctx context.Context, objectName, filePath string) (int64, error) {
	start := time.Now()
	info, err := s.client.FPutObject(ctx, s.bucketName, objectName, filePath, minio.PutObjectOptions{
		ContentType: getContentType(filePath),
	})
	s.observe("upload", objectName, info.Size, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to upload file: %w", err)
	}

	return info.Size, nil
}

// DownloadFile downloads a file to local filesystem
func (s *Storage) DownloadFile(ctx context.Context, objectName, filePath string) error {
	start := time.Now()
	err := s.client.FGetObject(ctx, s.bucketName, objectName, filePath, minio.GetObjectOptions{})
	var size int64
	if fi, statErr := os.Stat(filePath); statErr == nil {
		size = fi.Size()
	}
	s.observe("download", objectName, size, start, err)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}

	return nil
}

// Delete deletes an object from storage. Deleting a missing object succeeds.
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	start := time.Now()
	err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	s.observe("delete", objectName, 0, start, err)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// DeleteMany deletes multiple objects
func (s *Storage) DeleteMany(ctx context.Context, objectNames []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(objectNames))
	for _, key := range objectNames {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	var errs []error
	for rErr := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			errs = append(errs, fmt.Errorf("failed to delete object %s: %w", rErr.ObjectName, rErr.Err))
		}
	}
	return errors.Join(errs...)
}

// Ping checks that the bucket is reachable
func (s *Storage) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucketName); err != nil {
		return fmt.Errorf("failed to reach bucket: %w", err)
	}
	return nil
}

// PublicURL returns the public URL of an object
func (s *Storage) PublicURL(objectName string) string {
	return ObjectURL(s.baseURL, s.bucketName, objectName)
}

// KeyFromURL extracts the object key from a public URL
func (s *Storage) KeyFromURL(rawURL string) (string, error) {
	return ObjectKey(s.baseURL, s.bucketName, rawURL)
}

// ObjectURL joins the base URL, bucket and key
func ObjectURL(baseURL, bucket, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}

// ObjectKey reverses ObjectURL. URLs outside baseURL/bucket yield ErrForeignURL.
func ObjectKey(baseURL, bucket, rawURL string) (string, error) {
	prefix := strings.TrimRight(baseURL, "/") + "/" + bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	key := strings.TrimPrefix(rawURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	key, err := url.PathUnescape(key)
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	return key, nil
}

func (s *Storage) observe(operation, key string, size int64, start time.Time, err error) {
	duration := time.Since(start)
	s.logger.LogStorageOperation(operation, s.bucketName, key, size, duration, err)
	metrics.RecordStorageOperation(operation, metrics.Status(err), duration.Seconds(), size)
}

// getContentType returns the content type based on file extension
func getContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
