package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

// LocalStorage keeps files in a single directory on disk. Names are used
// as-is, so storing the same name twice overwrites the first file.
type LocalStorage struct {
	baseDir string
	logger  logger.Logger
}

func NewLocalStorage(baseDir string, log logger.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		logger:  log,
	}, nil
}

// Store implements Storage.Store. The returned id is the path of the written
// file, relative to the working directory when baseDir is.
func (l *LocalStorage) Store(ctx context.Context, reader io.Reader, filename string) (string, error) {
	path, err := l.resolve(filename)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		l.logger.Error("Failed to store file",
			logger.String("path", path),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return path, nil
}

// Get implements Storage.Get. fileID may be a bare name or a path returned by Store.
func (l *LocalStorage) Get(ctx context.Context, fileID string) (io.ReadCloser, error) {
	path, err := l.resolve(filepath.Base(fileID))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", fileID)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete implements Storage.Delete
func (l *LocalStorage) Delete(ctx context.Context, id string) error {
	path, err := l.resolve(filepath.Base(id))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// CleanupBefore implements Storage.CleanupBefore
func (l *LocalStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	entries, err := os.ReadDir(l.baseDir)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(threshold) {
			if err := l.Delete(ctx, entry.Name()); err != nil {
				l.logger.Error("Failed to delete expired file",
					logger.String("name", entry.Name()),
					logger.Error(err),
				)
				continue
			}
			l.logger.Info("Deleted expired file",
				logger.String("name", entry.Name()),
				logger.Time("lastModified", info.ModTime()),
			)
		}
	}
	return nil
}

// Dir returns the directory files are stored in.
func (l *LocalStorage) Dir() string {
	return l.baseDir
}

func (l *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(l.baseDir, name), nil
}
