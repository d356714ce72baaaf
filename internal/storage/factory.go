package storage

import (
	"context"
	"fmt"

	"droply/internal/config"
)

// New builds the object store selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	sc := cfg.Storage

	switch sc.Driver {
	case "local":
		return NewLocalStorage(sc.Path, sc.PublicURL)
	case "s3":
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:    sc.S3.Bucket,
			Region:    sc.S3.Region,
			Endpoint:  sc.S3.Endpoint,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			PathStyle: sc.S3.PathStyle,
			PublicURL: sc.PublicURL,
			URLExpiry: sc.URLExpiry,
		})
	case "minio":
		return NewMinioStore(ctx, MinioStoreConfig{
			Endpoint:     sc.Minio.Endpoint,
			Bucket:       sc.Minio.Bucket,
			AccessKey:    sc.Minio.AccessKey,
			SecretKey:    sc.Minio.SecretKey,
			UseSSL:       sc.Minio.UseSSL,
			PublicURL:    sc.PublicURL,
			URLExpiry:    sc.URLExpiry,
			MaxFileBytes: cfg.Uploads.MaxFileBytes,
		})
	}

	return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
}
