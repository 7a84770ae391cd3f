package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mediabox/internal/mb"
)

// MinioConfig holds MinIO-specific configuration.
type MinioConfig struct {
	Bucket    string
	Prefix    string
	Endpoint  string // host:port, or a URL whose scheme selects TLS
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	BaseURL   string // public URL prefix; defaults to the endpoint
}

// minioObjects is the bucket-scoped subset of the MinIO client the blob
// store uses.
type minioObjects interface {
	put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	get(ctx context.Context, key string) (io.ReadCloser, error)
	remove(ctx context.Context, key string) error
	bucketExists(ctx context.Context) (bool, error)
}

// MinioBlobStore stores objects in a MinIO (or other S3-compatible) bucket
// through minio-go.
type MinioBlobStore struct {
	objects minioObjects
	bucket  string
	prefix  string
	baseURL string
}

// NewMinioBlobStore creates a MinIO blob store. No request is made until
// the first operation.
func NewMinioBlobStore(cfg MinioConfig) (*MinioBlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio blob store requires s3_bucket to be set")
	}
	host, secure, err := parseMinioEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	if cfg.BaseURL == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		cfg.BaseURL = scheme + "://" + host
	}
	return newMinioBlobStore(&minioBucket{client: client, bucket: cfg.Bucket}, cfg), nil
}

func newMinioBlobStore(objects minioObjects, cfg MinioConfig) *MinioBlobStore {
	return &MinioBlobStore{
		objects: objects,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// parseMinioEndpoint accepts "host:port" or "http(s)://host:port".
func parseMinioEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	if endpoint == "" {
		return "", false, fmt.Errorf("minio blob store requires s3_endpoint to be set")
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid s3_endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("invalid s3_endpoint %q: scheme must be http or https", endpoint)
	}
}

func (s *MinioBlobStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Put uploads size bytes from r.
func (s *MinioBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	counter := &countingReader{r: r}
	if err := s.objects.put(ctx, s.objectKey(key), counter, size, contentType); err != nil {
		return fmt.Errorf("failed to upload to minio: %w", err)
	}
	if counter.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}
	return nil
}

// Get streams the object to w.
func (s *MinioBlobStore) Get(ctx context.Context, key string, w io.Writer) error {
	body, err := s.objects.get(ctx, s.objectKey(key))
	if err != nil {
		return fmt.Errorf("failed to download from minio: %w", err)
	}
	defer body.Close()

	// minio-go reports a missing object on the first read.
	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("failed to read minio object: %w", err)
	}
	return nil
}

// Delete removes the object. A missing key is not an error.
func (s *MinioBlobStore) Delete(ctx context.Context, key string) error {
	if err := s.objects.remove(ctx, s.objectKey(key)); err != nil {
		return fmt.Errorf("failed to delete from minio: %w", err)
	}
	return nil
}

// URL returns <base>/<bucket>/<key>, the path-style address of the object.
func (s *MinioBlobStore) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, s.objectKey(key))
}

// ValidateSetup checks that the bucket exists.
func (s *MinioBlobStore) ValidateSetup(ctx context.Context) error {
	exists, err := s.objects.bucketExists(ctx)
	if err != nil {
		return fmt.Errorf("minio bucket %s not accessible: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %s does not exist", s.bucket)
	}
	return nil
}

// minioBucket adapts *minio.Client to minioObjects for one bucket.
type minioBucket struct {
	client *minio.Client
	bucket string
}

func (b *minioBucket) put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (b *minioBucket) get(ctx context.Context, key string) (io.ReadCloser, error) {
	return b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
}

func (b *minioBucket) remove(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{})
}

func (b *minioBucket) bucketExists(ctx context.Context) (bool, error) {
	return b.client.BucketExists(ctx, b.bucket)
}

// Compile-time check that MinioBlobStore implements mb.BlobStore interface
var _ mb.BlobStore = (*MinioBlobStore)(nil)
