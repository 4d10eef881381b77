package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore writes files to an S3-compatible bucket.
type MinioStore struct {
	client  *mclient.Client
	baseURL string
}

// MinioConfig is the subset of storage settings the client needs.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicBaseURL prefixes returned URLs. Defaults to the endpoint.
	PublicBaseURL string
}

// NewMinioStore builds the client and fails fast when the bucket is missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	const op = "storage/minio/New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		base = scheme + "://" + endpoint
	}
	return &MinioStore{client: client, baseURL: strings.TrimRight(base, "/")}, nil
}

func (s *MinioStore) Put(ctx context.Context, bucket, id, contentType string, data []byte) (Object, error) {
	const op = "storage/minio/Put"
	_, err := s.client.PutObject(ctx, bucket, id, bytes.NewReader(data), int64(len(data)), mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, fmt.Errorf("%s: %w", op, err)
	}
	return Object{ID: id, URL: objectURL(s.baseURL, bucket, id)}, nil
}

func (s *MinioStore) Delete(ctx context.Context, bucket, id string) error {
	const op = "storage/minio/Delete"

	// RemoveObject succeeds for missing keys, so stat first.
	if _, err := s.client.StatObject(ctx, bucket, id, mclient.StatObjectOptions{}); err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.RemoveObject(ctx, bucket, id, mclient.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func objectURL(base, bucket, id string) string {
	return base + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(id)
}

var _ Store = (*MinioStore)(nil)
