package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"droply/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Store keeps objects in an S3 bucket. Any S3 compatible endpoint works.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
	expiry    time.Duration
}

type S3StoreConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
	PublicURL string
	URLExpiry time.Duration
}

func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	publicBase := cfg.PublicURL
	if publicBase == "" {
		switch {
		case cfg.Endpoint != "":
			publicBase = cfg.Endpoint + "/" + cfg.Bucket
		default:
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicBase,
		expiry:    cfg.URLExpiry,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, data []byte, destinationPath, desiredName, contentType string) (*Object, error) {
	key := ObjectKey(destinationPath, desiredName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, models.AdapterFailure("upload", err)
	}

	url := publicURL(s.publicURL, key)
	return &Object{
		URL:          url,
		ThumbnailURL: thumbnailURL(contentType, url),
		StoredPath:   key,
		Size:         int64(len(data)),
	}, nil
}

func (s *S3Store) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedPath),
	})
	if err != nil {
		return nil, models.AdapterFailure("open", err)
	}
	return out.Body, nil
}

// Delete succeeds for keys that are already gone. S3 reports no error for them.
func (s *S3Store) Delete(ctx context.Context, storedPath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedPath),
	})
	if err != nil {
		return models.AdapterFailure("delete", err)
	}
	return nil
}

func (s *S3Store) UploadCredentials(ctx context.Context, prefix string) (*Credentials, error) {
	key := path.Join(prefix, uuid.NewString())

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, models.AdapterFailure("presign", err)
	}

	return &Credentials{
		Method:    req.Method,
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}

func (s *S3Store) URL(storedPath string) string {
	return publicURL(s.publicURL, storedPath)
}
