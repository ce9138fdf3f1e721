package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"postnest/internal/observability"
	"postnest/internal/security"
)

// Object is a file ready to be sent to object storage.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// ObjectStore uploads objects and returns the public reference to store.
type ObjectStore interface {
	Upload(ctx context.Context, obj Object) (string, error)
}

type S3Config struct {
	Bucket    string
	Location  string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

type S3Store struct {
	client   *s3.Client
	bucket   string
	location string
}

func NewS3Store(cfg S3Config) *S3Store {
	awsCfg := aws.Config{Region: cfg.Region}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, location: cfg.Location}
}

func (s *S3Store) Upload(ctx context.Context, obj Object) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", obj.Key, err)
	}

	observability.AddUploadBytes(obj.Size)
	return s.location + obj.Key, nil
}

// ObjectKey builds a collision-free key from a client-supplied filename.
func ObjectKey(prefix, filename string) string {
	return prefix + "/" + uuid.NewString() + "-" + security.SecureFilename(filename)
}
