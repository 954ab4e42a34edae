package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	appconfig "github.com/Avishkar-x/Video-Streaming/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var _ Uploader = (*S3)(nil)

type S3 struct {
	client   *s3.Client
	bucket   string
	endpoint string
	region   string
}

func NewS3(ctx context.Context, cfg *appconfig.Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			// MinIO and friends need the custom endpoint and path-style
			// addressing.
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		client:   client,
		bucket:   cfg.S3Bucket,
		endpoint: strings.TrimSuffix(cfg.S3Endpoint, "/"),
		region:   cfg.S3Region,
	}, nil
}

func (s *S3) Upload(ctx context.Context, r io.Reader, size int64, contentType, filename string) (string, string, error) {
	key := storageKey(filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return s.urlFor(key), key, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err
}

func (s *S3) urlFor(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func storageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%v%s", d.Year(), d.Month(), uuid.New(), path.Ext(filename))
}
