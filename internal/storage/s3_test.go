package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in memory. Multipart calls are left to the embedded
// nil interface since test bodies stay below the part size.
type fakeS3 struct {
	manager.UploadAPIClient

	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	headErr      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.contentTypes[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3BlobStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3BlobStoreWithClient(client, S3Config{Bucket: "media", Prefix: "/mb/", Region: "us-east-1"})

	if err := store.Put(ctx, "u1/root/1-cat.png", strings.NewReader("meow"), 4, "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := client.objects["mb/u1/root/1-cat.png"]; !ok {
		t.Fatalf("object not stored under prefixed key, have %v", client.objects)
	}
	if got := client.contentTypes["mb/u1/root/1-cat.png"]; got != "image/png" {
		t.Errorf("content type = %q, want image/png", got)
	}

	var buf bytes.Buffer
	if err := store.Get(ctx, "u1/root/1-cat.png", &buf); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if buf.String() != "meow" {
		t.Errorf("Get() = %q, want %q", buf.String(), "meow")
	}

	if err := store.Delete(ctx, "u1/root/1-cat.png"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var nsk *types.NoSuchKey
	if err := store.Get(ctx, "u1/root/1-cat.png", &buf); !errors.As(err, &nsk) {
		t.Errorf("Get() after Delete error = %v, want NoSuchKey", err)
	}
}

func TestS3BlobStore_PutSizeMismatch(t *testing.T) {
	store := NewS3BlobStoreWithClient(newFakeS3(), S3Config{Bucket: "media", Region: "us-east-1"})

	err := store.Put(context.Background(), "k", strings.NewReader("short"), 99, "")
	if err == nil || !strings.Contains(err.Error(), "size mismatch") {
		t.Errorf("Put() error = %v, want size mismatch", err)
	}
}

func TestS3BlobStore_URL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		key  string
		want string
	}{
		{
			name: "virtual hosted",
			cfg:  S3Config{Bucket: "media", Region: "eu-west-1"},
			key:  "u1/root/a.png",
			want: "https://media.s3.eu-west-1.amazonaws.com/u1/root/a.png",
		},
		{
			name: "path style",
			cfg:  S3Config{Bucket: "media", Region: "eu-west-1", UsePathStyle: true},
			key:  "a.png",
			want: "https://s3.eu-west-1.amazonaws.com/media/a.png",
		},
		{
			name: "custom endpoint with prefix",
			cfg:  S3Config{Bucket: "media", Endpoint: "http://localhost:9000/", Prefix: "mb"},
			key:  "a.png",
			want: "http://localhost:9000/media/mb/a.png",
		},
		{
			name: "public base url wins",
			cfg:  S3Config{Bucket: "media", Endpoint: "http://localhost:9000", BaseURL: "https://cdn.example.com/"},
			key:  "a.png",
			want: "https://cdn.example.com/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewS3BlobStoreWithClient(newFakeS3(), tt.cfg)
			if got := store.URL(tt.key); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestS3BlobStore_ValidateSetup(t *testing.T) {
	client := newFakeS3()
	store := NewS3BlobStoreWithClient(client, S3Config{Bucket: "media", Region: "us-east-1"})

	if err := store.ValidateSetup(context.Background()); err != nil {
		t.Fatalf("ValidateSetup() error = %v", err)
	}

	client.headErr = &types.NotFound{}
	var nf *types.NotFound
	if err := store.ValidateSetup(context.Background()); !errors.As(err, &nf) {
		t.Errorf("ValidateSetup() error = %v, want NotFound", err)
	}
}

func TestNewS3BlobStore_RequiresBucket(t *testing.T) {
	if _, err := NewS3BlobStore(context.Background(), S3Config{Region: "us-east-1"}); err == nil {
		t.Error("NewS3BlobStore() expected error without bucket")
	}
}
