package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jdufresne12/web-portal/internal/storage"
)

// ErrNotConfigured is returned by every operation when the bucket or
// credentials are missing.
var ErrNotConfigured = errors.New("object storage is not configured; set S3_BUCKET and S3 credentials")

// Config holds the S3 connection settings.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PublicURL       string
	UsePathStyle    bool
}

// Storage implements storage.Storage on an S3-compatible bucket.
type Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// New builds an S3 client from static credentials. A custom endpoint targets
// S3-compatible stores such as MinIO.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	s := &Storage{
		bucket:    strings.TrimSpace(cfg.Bucket),
		publicURL: publicBase(cfg),
		logger:    logger.With(slog.String("component", "s3-storage")),
	}

	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretAccessKey)
	if s.bucket == "" || accessKey == "" || secretKey == "" {
		s.logger.Warn("S3_BUCKET or credentials are not set; media uploads are disabled")
		return s, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return s, nil
}

func publicBase(cfg Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func (s *Storage) ensureEnabled() error {
	if s.client == nil {
		return ErrNotConfigured
	}
	return nil
}

// Upload puts the object and returns its public URL.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(input.Key),
		Body:          input.Data,
		ContentLength: aws.Int64(input.Size),
		ContentType:   aws.String(input.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", input.Key, err)
	}

	s.logger.DebugContext(ctx, "object uploaded",
		slog.String("key", input.Key),
		slog.Int64("size", input.Size),
	)
	return &storage.UploadResult{Key: input.Key, URL: storage.PublicURL(s.publicURL, input.Key)}, nil
}

// Delete removes the object. S3 treats missing keys as deleted.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// GetURL returns the public URL for key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	return storage.PublicURL(s.publicURL, key), nil
}

// Ping performs a HeadBucket request. An unconfigured store reports healthy
// so the service can run without uploads.
func (s *Storage) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
