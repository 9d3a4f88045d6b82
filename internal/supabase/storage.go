package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	storage "github.com/supabase-community/storage-go"

	"artprint-backend/internal/blob"
)

// Artwork keys never change content, so CDN copies may be kept for a year.
const immutableCacheControl = "31536000"

type storageAPI interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage.FileOptions) (storage.FileUploadResponse, error)
	DownloadFile(bucketID, filePath string, urlOptions ...storage.UrlOptions) ([]byte, error)
}

// StorageClient is a blob.Store over a Supabase Storage bucket.
type StorageClient struct {
	client storageAPI
	bucket string
}

func NewStorageClient(client storageAPI, bucket string) *StorageClient {
	return &StorageClient{client: client, bucket: bucket}
}

var _ blob.Store = (*StorageClient)(nil)

func (s *StorageClient) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := true
	cacheControl := immutableCacheControl
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Get downloads key. The storage API does not return the stored content
// type, so it is detected from the bytes.
func (s *StorageClient) Get(ctx context.Context, key string) (*blob.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		if isNotFound(err) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}

	return &blob.Object{
		Data:        data,
		ContentType: detectContentType(key, data),
	}, nil
}

func detectContentType(key string, data []byte) string {
	// mimetype reports SVG as text/plain unless an XML prolog is present.
	if strings.HasSuffix(key, ".svg") {
		return "image/svg+xml"
	}
	return mimetype.Detect(data).String()
}

func isNotFound(err error) bool {
	var se *storage.StorageError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
}
