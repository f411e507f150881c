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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend implements Backend on a local directory
type LocalBackend struct {
	root string
}

// NewLocalBackend creates a backend rooted at dir. The directory is created on first write.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory is required")
	}
	return &LocalBackend{root: filepath.Clean(dir)}, nil
}

// Root returns the directory the backend writes into
func (b *LocalBackend) Root() string {
	return b.root
}

func (b *LocalBackend) resolve(objectPath string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(objectPath))
	if full != b.root && !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", objectPath)
	}
	return full, nil
}

// Write writes to a temporary file and renames it into place
func (b *LocalBackend) Write(_ context.Context, objectPath string, reader io.Reader) error {
	full, err := b.resolve(objectPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".sqlplan-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write data to %s: %w", full, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("failed to move data into %s: %w", full, err)
	}
	return nil
}

func (b *LocalBackend) Read(_ context.Context, objectPath string) (io.ReadCloser, error) {
	full, err := b.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, full)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", full, err)
	}
	return f, nil
}

func (b *LocalBackend) Delete(_ context.Context, objectPath string) error {
	full, err := b.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", full, err)
	}
	return nil
}

func (b *LocalBackend) Exists(_ context.Context, objectPath string) (bool, error) {
	full, err := b.resolve(objectPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file %s: %w", full, err)
	}
	return true, nil
}

// List walks the root and returns files whose slash-separated relative path has the given prefix
func (b *LocalBackend) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	objects := []ObjectInfo{}
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".sqlplan-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Path:         rel,
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return objects, nil
}

func (b *LocalBackend) GetSize(_ context.Context, objectPath string) (int64, error) {
	full, err := b.resolve(objectPath)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, full)
		}
		return 0, fmt.Errorf("failed to stat file %s: %w", full, err)
	}
	return info.Size(), nil
}

// Close is a no-op for local storage
func (b *LocalBackend) Close() error {
	return nil
}
