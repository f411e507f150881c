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

// Package storage publishes plan documents to object stores, local
// directories and Kubernetes ConfigMaps behind a single Backend interface.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Read and GetSize when nothing is stored at a path.
var ErrObjectNotFound = errors.New("object not found")

// Backend defines the interface for storage backends
type Backend interface {
	// Write stores data at path, replacing any previous object
	Write(ctx context.Context, path string, reader io.Reader) error

	// Read returns the object at path
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// List lists objects whose path starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	GetSize(ctx context.Context, path string) (int64, error)

	// Close releases clients held by the backend
	Close() error
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	// Path is relative to the backend root
	Path string `json:"path"`

	Size int64 `json:"size"`

	// LastModified is a Unix timestamp
	LastModified int64 `json:"lastModified,omitempty"`

	// Checksum is the hex MD5 when the backend reports one
	Checksum string `json:"checksum,omitempty"`
}

// joinKey prefixes objectPath with prefix using forward slashes.
func joinKey(prefix, objectPath string) string {
	if prefix == "" {
		return objectPath
	}
	if objectPath == "" {
		return prefix + "/"
	}
	return prefix + "/" + objectPath
}

// trimKey strips prefix from a key returned by a listing.
func trimKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if len(key) > len(prefix) && key[:len(prefix)+1] == prefix+"/" {
		return key[len(prefix)+1:]
	}
	return key
}
