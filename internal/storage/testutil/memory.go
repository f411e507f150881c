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

// Package testutil provides an in-memory storage backend for tests.
package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sql-instance-planner/internal/storage"
)

// MemoryBackend implements storage.Backend in memory and records calls
type MemoryBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	mtimes  map[string]time.Time
	calls   map[string]int
	errors  map[string]error
	closed  bool
}

// NewMemoryBackend creates an empty backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: map[string][]byte{},
		mtimes:  map[string]time.Time{},
		calls:   map[string]int{},
		errors:  map[string]error{},
	}
}

// SetError makes every later call to method fail with err
func (m *MemoryBackend) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method] = err
}

// CallCount returns how often method was called
func (m *MemoryBackend) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Object returns a copy of the stored bytes
func (m *MemoryBackend) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	return bytes.Clone(data), ok
}

// Paths returns the stored paths in sorted order
func (m *MemoryBackend) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.objects))
	for p := range m.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// IsClosed reports whether Close was called
func (m *MemoryBackend) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// enter records the call and returns the configured error. Callers hold mu.
func (m *MemoryBackend) enter(method string) error {
	m.calls[method]++
	return m.errors[method]
}

func (m *MemoryBackend) Write(_ context.Context, path string, reader io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Write"); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	m.objects[path] = data
	m.mtimes[path] = time.Now()
	return nil
}

func (m *MemoryBackend) Read(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Read"); err != nil {
		return nil, err
	}
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

func (m *MemoryBackend) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Delete"); err != nil {
		return err
	}
	delete(m.objects, path)
	delete(m.mtimes, path)
	return nil
}

func (m *MemoryBackend) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Exists"); err != nil {
		return false, err
	}
	_, ok := m.objects[path]
	return ok, nil
}

func (m *MemoryBackend) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("List"); err != nil {
		return nil, err
	}
	result := []storage.ObjectInfo{}
	for path, data := range m.objects {
		if strings.HasPrefix(path, prefix) {
			result = append(result, storage.ObjectInfo{
				Path:         path,
				Size:         int64(len(data)),
				LastModified: m.mtimes[path].Unix(),
				Checksum:     fmt.Sprintf("%x", md5.Sum(data)),
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (m *MemoryBackend) GetSize(_ context.Context, path string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetSize"); err != nil {
		return 0, err
	}
	data, ok := m.objects[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, path)
	}
	return int64(len(data)), nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Close"]++
	m.closed = true
	return nil
}

var _ storage.Backend = (*MemoryBackend)(nil)
