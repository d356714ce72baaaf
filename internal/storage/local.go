package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"droply/internal/models"
)

type LocalStorage struct {
	basePath  string
	publicURL string
}

func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath, publicURL: publicURL}, nil
}

func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

func (ls *LocalStorage) pathFromKey(key string) (string, error) {
	cleaned := filepath.FromSlash(key)
	if !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("invalid object path %q", key)
	}
	return filepath.Join(ls.basePath, cleaned), nil
}

func (ls *LocalStorage) Upload(ctx context.Context, data []byte, destinationPath, desiredName, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := ObjectKey(destinationPath, desiredName)
	filePath, err := ls.pathFromKey(key)
	if err != nil {
		return nil, models.AdapterFailure("upload", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return nil, models.AdapterFailure("upload", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, models.AdapterFailure("upload", err)
	}

	url := publicURL(ls.publicURL, key)
	return &Object{
		URL:          url,
		ThumbnailURL: thumbnailURL(contentType, url),
		StoredPath:   key,
		Size:         int64(len(data)),
	}, nil
}

func (ls *LocalStorage) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	filePath, err := ls.pathFromKey(storedPath)
	if err != nil {
		return nil, models.AdapterFailure("open", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.AdapterFailure("open", fmt.Errorf("object %s not found: %w", storedPath, err))
		}
		return nil, models.AdapterFailure("open", err)
	}

	return file, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, storedPath string) error {
	filePath, err := ls.pathFromKey(storedPath)
	if err != nil {
		return models.AdapterFailure("delete", err)
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return models.AdapterFailure("delete", err)
	}

	return nil
}

func (ls *LocalStorage) UploadCredentials(ctx context.Context, prefix string) (*Credentials, error) {
	return nil, ErrUnsupported
}

func (ls *LocalStorage) URL(storedPath string) string {
	return publicURL(ls.publicURL, storedPath)
}
