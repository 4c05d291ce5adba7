package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	cfg "github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage/local"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage/minio"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage holds uploaded images and published result files.
type Storage interface {
	// Store writes reader under filename and returns where it landed.
	Store(ctx context.Context, reader io.Reader, filename string) (string, error)
	Get(ctx context.Context, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

var (
	_ Storage = (*local.LocalStorage)(nil)
	_ Storage = (*s3.S3Storage)(nil)
	_ Storage = (*minio.MinioStorage)(nil)
)

// NewStorage creates the object-store backend of the given type. The local
// backend needs a directory and is built with local.NewLocalStorage instead.
func NewStorage(ctx context.Context, storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		s, err := s3.NewS3Storage(ctx, cfg.GetS3Config(), log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StorageTypeMinio:
		m, err := minio.NewMinioStorage(ctx, cfg.GetMinioConfig(), log)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
