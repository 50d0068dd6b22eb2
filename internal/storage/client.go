// Package storage wraps an S3-compatible object store behind the small
// contract the rest of the agent needs, and owns the backup key scheme.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/shulkerhost/shulker/internal/config"
	"github.com/shulkerhost/shulker/internal/fault"
)

// ErrRangeNotSatisfiable distinguishes a rejected byte range from other
// storage failures. Check with errors.Is.
var ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")

// ObjectInfo describes one stored object in a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Client is the object-store contract consumed by the transfer engine and
// the backup orchestrator. Implementations must be safe for concurrent use.
type Client interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	HeadSize(ctx context.Context, key string) (int64, error)
	GetRange(ctx context.Context, key string, start, end int64) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// S3Client implements Client against any S3-compatible endpoint using
// static credentials and path-style addressing. It holds no per-request
// state and is safe to share.
type S3Client struct {
	api    *s3.Client
	bucket string
	logger zerolog.Logger
}

func NewS3Client(logger zerolog.Logger, cfg *config.Config) *S3Client {
	opts := s3.Options{
		Region:       cfg.S3Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
	}
	return &S3Client{
		api:    s3.New(opts),
		bucket: cfg.S3Bucket,
		logger: logger.With().Str("component", "object-store").Logger(),
	}
}

func (c *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fault.New(fault.KindStorage, fmt.Errorf("put %s: %w", key, err))
	}
	return nil
}

func (c *S3Client) HeadSize(ctx context.Context, key string) (int64, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return 0, fault.NotFoundf("object %s not found", key)
		}
		return 0, fault.New(fault.KindStorage, fmt.Errorf("head %s: %w", key, err))
	}
	return aws.ToInt64(out.ContentLength), nil
}

// GetRange fetches the inclusive byte range [start,end] of key.
func (c *S3Client) GetRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fault.NotFoundf("object %s not found", key)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return nil, fault.New(fault.KindStorage,
				fmt.Errorf("get %s bytes %d-%d: %w", key, start, end, ErrRangeNotSatisfiable))
		}
		return nil, fault.New(fault.KindStorage, fmt.Errorf("get %s bytes %d-%d: %w", key, start, end, err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fault.New(fault.KindStorage, fmt.Errorf("read %s bytes %d-%d: %w", key, start, end, err))
	}
	return data, nil
}

func (c *S3Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fault.New(fault.KindStorage, fmt.Errorf("list %s: %w", prefix, err))
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}
