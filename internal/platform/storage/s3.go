// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures the object storage backend.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; set for MinIO-style deployments
	AccessKey string // optional; falls back to the default credential chain
	SecretKey string
}

// S3Storage stores media in an S3-compatible bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3 creates an S3-backed storage and verifies the bucket is reachable.
func NewS3(ctx context.Context, options S3Options, logger *slog.Logger) (*S3Storage, error) {
	var awsConfig aws.Config
	var err error

	if options.AccessKey != "" && options.SecretKey != "" {
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(options.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				options.AccessKey,
				options.SecretKey,
				"",
			)),
		)
	} else {
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(options.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("storage_s3_config_failed: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
			// Custom endpoints are typically MinIO, which requires path style.
			o.UsePathStyle = true
		}
	})

	storage := &S3Storage{
		client: client,
		bucket: options.Bucket,
		logger: logger,
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(options.Bucket)}); err != nil {
		return nil, fmt.Errorf("storage_s3_bucket_unreachable: %w", err)
	}

	logger.Info("s3 storage ready", slog.String("bucket", options.Bucket))

	return storage, nil
}

// Put stores the content under the given key.
func (s *S3Storage) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage_s3_put_failed: %w", err)
	}
	return nil
}

// Open returns a reader for the object along with its content type.
func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("storage_s3_get_failed: %w", err)
	}

	contentType := ""
	if result.ContentType != nil {
		contentType = *result.ContentType
	}

	return result.Body, contentType, nil
}

// Delete removes the object. S3 deletes are idempotent.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage_s3_delete_failed: %w", err)
	}
	return nil
}

// isNoSuchKey reports whether the error is an object-missing response.
func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	// Some S3-compatible servers report missing keys as generic NotFound.
	return strings.Contains(err.Error(), "NotFound")
}
