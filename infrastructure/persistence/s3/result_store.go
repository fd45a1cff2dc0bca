// Package s3 uploads job result artifacts to an S3 bucket and hands back
// their public URLs.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API captures the S3 operations the store issues, so tests can
// substitute a recording client.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ResultStore implements ports.ResultStore on an S3 bucket. Callers address
// artifacts by content (md5 of the body plus the artifact name), so uploads
// are idempotent and an object never changes once written; responses carry
// an aggressive immutable cache header for that reason. Reads go straight
// to the bucket URL, public access is the bucket policy's business.
type ResultStore struct {
	client    S3API
	bucket    string
	region    string
	keyPrefix string
	logger    *zap.Logger
}

// NewResultStore creates a result store over the given bucket
func NewResultStore(client S3API, bucket, region, keyPrefix string, logger *zap.Logger) *ResultStore {
	return &ResultStore{
		client:    client,
		bucket:    bucket,
		region:    region,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Store writes one artifact under the given key and returns its public URL
func (s *ResultStore) Store(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("results bucket is not configured")
	}

	objectKey := s.objectKey(key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(objectKey),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact %s: %w", objectKey, err)
	}

	s.logger.Debug("artifact uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", objectKey),
	)
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey), nil
}

func (s *ResultStore) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.keyPrefix == "" {
		return key
	}
	return strings.TrimSuffix(s.keyPrefix, "/") + "/" + key
}
