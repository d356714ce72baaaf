// Package storage holds the object store adapters that keep file contents.
//
// Every adapter stores an object under destinationPath/desiredName and hands
// back a durable URL for it. The node catalog only keeps the returned
// StoredPath, which is what Delete and Open take.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var ErrUnsupported = errors.New("operation not supported by this storage backend")

type Object struct {
	URL          string
	ThumbnailURL *string
	StoredPath   string
	Size         int64
}

// Credentials lets a client upload straight to the backend without relaying
// bytes through the API. Fields carries form values for POST policies.
type Credentials struct {
	Method    string            `json:"method" example:"PUT"`
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields,omitempty"`
	Key       string            `json:"key" example:"droply/1/3f1c0c9e-5d6a-4b43-9a55-0d1f6f3e1b7a"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type ObjectStore interface {
	Upload(ctx context.Context, data []byte, destinationPath, desiredName, contentType string) (*Object, error)
	Delete(ctx context.Context, storedPath string) error
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	UploadCredentials(ctx context.Context, prefix string) (*Credentials, error)
	// URL returns the public address of a stored object.
	URL(storedPath string) string
}

// ObjectKey joins a namespace path and a file name into a bucket key without a leading slash.
func ObjectKey(destinationPath, desiredName string) string {
	return strings.TrimPrefix(path.Join("/", destinationPath, desiredName), "/")
}

func publicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}

// thumbnailURL returns a thumbnail for images only. Images are served as their own thumbnail.
func thumbnailURL(contentType, url string) *string {
	if !strings.HasPrefix(contentType, "image/") {
		return nil
	}
	return &url
}
