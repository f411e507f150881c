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
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// planExtension ends the name of every published plan, before the codec extension
const planExtension = ".json"

// PlanName returns the instance name of a plan object written by PutObject as
// <instance>.json plus an optional codec extension. Nested paths and other
// files are not plans.
func PlanName(objectPath string) (string, bool) {
	base := strings.TrimSuffix(objectPath, CompressorForPath(objectPath).Extension())
	name, ok := strings.CutSuffix(base, planExtension)
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// PutObject compresses data and writes it to name plus the codec extension.
// It returns the stored path and the number of bytes written to the backend.
func PutObject(ctx context.Context, backend Backend, name string, data []byte, c Compressor) (string, int64, error) {
	var buf bytes.Buffer
	cw, err := c.Compress(&buf)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create compression writer: %w", err)
	}
	if _, err := cw.Write(data); err != nil {
		_ = cw.Close()
		return "", 0, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := cw.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close compression writer: %w", err)
	}

	objectPath := name + c.Extension()
	size := int64(buf.Len())
	if err := backend.Write(ctx, objectPath, &buf); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", objectPath, err)
	}
	return objectPath, size, nil
}

// GetObject reads objectPath and decompresses it according to its extension.
func GetObject(ctx context.Context, backend Backend, objectPath string) ([]byte, error) {
	rc, err := backend.Read(ctx, objectPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dr, err := CompressorForPath(objectPath).Decompress(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompression reader: %w", err)
	}
	defer dr.Close()

	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", objectPath, err)
	}
	return data, nil
}
