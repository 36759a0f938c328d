package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/sgmdata-labs/sgmsync-go/internal/platform/objectstore"
)

// MinioStore persists each container as one object, keyed by domain,
// in the configured bucket of the S3-compatible file-store service.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg objectstore.Config) (*MinioStore, error) {
	client, err := objectstore.NewMinIOClient(cfg)
	if err != nil {
		return nil, err
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func NewMinioStoreWithClient(client *minio.Client, bucket string) (*MinioStore, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func objectKey(domain string) string {
	return domain + ".json"
}

func (s *MinioStore) Create(ctx context.Context, domain string) (Container, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("minio store not initialized")
	}
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	_, err := s.client.StatObject(ctx, s.bucket, objectKey(domain), minio.StatObjectOptions{})
	if err == nil {
		return nil, fmt.Errorf("create %q: %w", domain, ErrExists)
	}
	if !isNoSuchKey(err) {
		return nil, fmt.Errorf("stat %q: %w", domain, err)
	}
	return newContainer(domain, nil, s.store), nil
}

func (s *MinioStore) Open(ctx context.Context, domain string) (Container, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("minio store not initialized")
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(domain), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", domain, err)
	}
	defer obj.Close()
	raw, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("open %q: %w", domain, ErrNotExist)
		}
		return nil, fmt.Errorf("read %q: %w", domain, err)
	}
	root, err := unmarshalContainer(raw)
	if err != nil {
		return nil, err
	}
	return newContainer(domain, root, s.store), nil
}

func (s *MinioStore) store(ctx context.Context, domain string, raw []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(domain),
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put %q: %w", domain, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == 404
	}
	return false
}
