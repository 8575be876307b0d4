package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// objectAPI is the subset of *minio.Client the storage needs
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Storage stores course media in an object store bucket
type Storage struct {
	api        objectAPI
	bucketName string
	logger     *logging.Logger
}

// New creates a new storage client and ensures the bucket exists
func New(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return NewWithAPI(ctx, client, cfg.BucketName, cfg.Region, logger)
}

// NewWithAPI builds a storage on top of any object API implementation
func NewWithAPI(ctx context.Context, api objectAPI, bucketName, region string, logger *logging.Logger) (*Storage, error) {
	exists, err := api.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := api.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{api: api, bucketName: bucketName, logger: logger}, nil
}

// ObjectKey builds a fresh key for a course media file:
// courses/<courseID>/<kind>/<uuid><ext>
func ObjectKey(courseID string, kind models.MediaKind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join("courses", courseID, string(kind), uuid.New().String()+ext)
}

// Upload stores an object
func (s *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	start := time.Now()

	_, err := s.api.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	s.logger.LogStorageOperation("put", s.bucketName, objectName, size, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	return nil
}

// Delete deletes an object from storage
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	start := time.Now()

	err := s.api.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	s.logger.LogStorageOperation("delete", s.bucketName, objectName, 0, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// List lists objects with a prefix
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var objects []string

	for object := range s.api.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		objects = append(objects, object.Key)
	}

	return objects, nil
}

// DeleteCourseMedia removes every object stored for a course and returns
// the number of objects removed
func (s *Storage) DeleteCourseMedia(ctx context.Context, courseID string) (int, error) {
	keys, err := s.List(ctx, path.Join("courses", courseID)+"/")
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}
