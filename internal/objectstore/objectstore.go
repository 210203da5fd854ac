// Package objectstore adapts blob storage for raw page HTML, processed
// metadata documents, and the optional embeddings mirror, all under a
// single bucket with stable key prefixes.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned by Get/Head when the key does not exist. It
// is a sentinel, not a wrapped client error, so callers can branch on
// it without inspecting vendor-specific error codes.
var ErrNotFound = errors.New("objectstore: key not found")

// Config configures the adapter's connection to the backing store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store is a blob storage adapter over one bucket.
type Store struct {
	client   *minio.Client
	bucket   string
	endpoint string
	scheme   string
}

// New constructs a Store and verifies the bucket exists, creating it if
// it does not.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("construct object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return &Store{client: client, bucket: cfg.Bucket, endpoint: cfg.Endpoint, scheme: scheme}, nil
}

// Key prefixes for the three durable artifact families this adapter
// owns.
const (
	rawPrefix        = "raw"
	metadataPrefix   = "metadata"
	embeddingsPrefix = "embeddings"
)

// RawKey is the object key for one raw HTML page.
func RawKey(bookID int64, filename string) string {
	return fmt.Sprintf("%s/%d/%s", rawPrefix, bookID, filename)
}

// MetadataKey is the object key for a book's processed metadata document.
func MetadataKey(bookID int64) string {
	return fmt.Sprintf("%s/%d.json", metadataPrefix, bookID)
}

// EmbeddingsKey is the object key for a book's newline-delimited chunk mirror.
func EmbeddingsKey(bookID int64) string {
	return fmt.Sprintf("%s/%d.jsonl", embeddingsPrefix, bookID)
}

// Put writes data to key with the given content type, overwriting any
// existing object.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Get returns the full contents of key, or ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translateErr(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translateErr(key, err)
	}
	return data, nil
}

// List enumerates keys under prefix, recursively.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list prefix %q: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes key. Deleting an already-absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %w", key, err)
	}
	return true, nil
}

// Head returns the object's size and content type without fetching its body.
func (s *Store) Head(ctx context.Context, key string) (size int64, contentType string, err error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, "", s.translateErr(key, err)
	}
	return info.Size, info.ContentType, nil
}

// PublicURL constructs the public URL for key by concatenating scheme,
// endpoint host, bucket name, and key.
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", s.scheme, s.endpoint, s.bucket, key)
}

func (s *Store) translateErr(key string, err error) error {
	if isNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("object store access for %q: %w", key, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
