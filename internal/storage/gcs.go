/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBackend implements Backend for Google Cloud Storage
type GCSBackend struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSBackend creates a GCS backend. Without client options the application
// default credentials are used.
func NewGCSBackend(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSBackend, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS bucket name is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSBackend{client: client, bucket: bucket, prefix: prefix}, nil
}

func (b *GCSBackend) object(objectPath string) *storage.ObjectHandle {
	return b.client.Bucket(b.bucket).Object(joinKey(b.prefix, objectPath))
}

// Write uploads data to GCS at the specified path
func (b *GCSBackend) Write(ctx context.Context, objectPath string, reader io.Reader) error {
	w := b.object(objectPath).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// Read downloads the object at the specified path
func (b *GCSBackend) Read(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	r, err := b.object(objectPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, b.bucket, joinKey(b.prefix, objectPath))
		}
		return nil, fmt.Errorf("failed to read from GCS: %w", err)
	}
	return r, nil
}

func (b *GCSBackend) Delete(ctx context.Context, objectPath string) error {
	if err := b.object(objectPath).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

func (b *GCSBackend) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := b.object(objectPath).Attrs(ctx)
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// List lists objects under prefix, relative to the backend prefix
func (b *GCSBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: joinKey(b.prefix, prefix)})

	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, ObjectInfo{
			Path:         trimKey(b.prefix, attrs.Name),
			Size:         attrs.Size,
			LastModified: attrs.Updated.Unix(),
			Checksum:     fmt.Sprintf("%x", attrs.MD5),
		})
	}
	return objects, nil
}

func (b *GCSBackend) GetSize(ctx context.Context, objectPath string) (int64, error) {
	attrs, err := b.object(objectPath).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, objectPath)
		}
		return 0, fmt.Errorf("failed to get object attributes: %w", err)
	}
	return attrs.Size, nil
}

// Close closes the GCS client
func (b *GCSBackend) Close() error {
	return b.client.Close()
}
