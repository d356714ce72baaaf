package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"droply/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStore struct {
	client       *minio.Client
	bucket       string
	publicURL    string
	expiry       time.Duration
	maxFileBytes int64
}

type MinioStoreConfig struct {
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	PublicURL    string
	URLExpiry    time.Duration
	MaxFileBytes int64
}

// NewMinioStore connects to MinIO and creates the bucket if it doesn't exist.
func NewMinioStore(ctx context.Context, cfg MinioStoreConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	publicBase := cfg.PublicURL
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioStore{
		client:       client,
		bucket:       cfg.Bucket,
		publicURL:    publicBase,
		expiry:       cfg.URLExpiry,
		maxFileBytes: cfg.MaxFileBytes,
	}, nil
}

func (m *MinioStore) Upload(ctx context.Context, data []byte, destinationPath, desiredName, contentType string) (*Object, error) {
	key := ObjectKey(destinationPath, desiredName)

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, models.AdapterFailure("upload", err)
	}

	url := publicURL(m.publicURL, key)
	return &Object{
		URL:          url,
		ThumbnailURL: thumbnailURL(contentType, url),
		StoredPath:   key,
		Size:         info.Size,
	}, nil
}

func (m *MinioStore) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, storedPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, models.AdapterFailure("open", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller starts streaming.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, models.AdapterFailure("open", err)
	}
	return obj, nil
}

func (m *MinioStore) Delete(ctx context.Context, storedPath string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, storedPath, minio.RemoveObjectOptions{}); err != nil {
		return models.AdapterFailure("delete", err)
	}
	return nil
}

// UploadCredentials issues a POST policy restricted to one fresh key under prefix.
func (m *MinioStore) UploadCredentials(ctx context.Context, prefix string) (*Credentials, error) {
	key := path.Join(prefix, uuid.NewString())
	expiresAt := time.Now().Add(m.expiry)

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(m.bucket); err != nil {
		return nil, models.AdapterFailure("presign", err)
	}
	if err := policy.SetKey(key); err != nil {
		return nil, models.AdapterFailure("presign", err)
	}
	if err := policy.SetExpires(expiresAt.UTC()); err != nil {
		return nil, models.AdapterFailure("presign", err)
	}
	if m.maxFileBytes > 0 {
		if err := policy.SetContentLengthRange(1, m.maxFileBytes); err != nil {
			return nil, models.AdapterFailure("presign", err)
		}
	}

	u, fields, err := m.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, models.AdapterFailure("presign", err)
	}

	return &Credentials{
		Method:    "POST",
		URL:       u.String(),
		Fields:    fields,
		Key:       key,
		ExpiresAt: expiresAt,
	}, nil
}

func (m *MinioStore) URL(storedPath string) string {
	return publicURL(m.publicURL, storedPath)
}
