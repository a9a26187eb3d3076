package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"classtrack_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// ArchiveStore wraps the S3 bucket holding exported archives (activity
// log bundles).
type ArchiveStore struct {
	cfg    aws.Config
	bucket string
}

// NewArchiveStore creates a store bound to the configured bucket. A
// missing AWS configuration is tolerated; operations fail until it is
// provided.
func NewArchiveStore() *ArchiveStore {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(config.AppConfig.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; S3 operations will fail until configured")
	}
	return &ArchiveStore{
		cfg:    cfg,
		bucket: config.AppConfig.S3BucketName,
	}
}

// Upload puts a zip archive under key.
func (a *ArchiveStore) Upload(ctx context.Context, key string, data *bytes.Buffer) error {
	if a.cfg.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	client := s3.NewFromConfig(a.cfg)
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})
	return err
}

// Download streams the object stored under key.
func (a *ArchiveStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if a.cfg.Region == "" {
		return nil, fmt.Errorf("AWS not configured")
	}

	client := s3.NewFromConfig(a.cfg)
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}
