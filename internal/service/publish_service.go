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

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sql-instance-planner/internal/metrics"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/storage"
)

// Publish outcomes
const (
	PublishStatusWritten = "published"
	// PublishStatusSkipped is an existing object kept because overwrites are disabled
	PublishStatusSkipped = "skipped"
	PublishStatusPruned  = "pruned"
)

// PublishResult describes a stored or removed plan
type PublishResult struct {
	Location    string    `json:"location"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	Compression string    `json:"compression"`
	Status      string    `json:"status"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// URL returns the object URL of the published plan
func (r *PublishResult) URL() string {
	return strings.TrimSuffix(r.Location, "/") + "/" + r.Path
}

// BackendOpener opens the backend for a storage location
type BackendOpener func(ctx context.Context, loc *storage.Location) (storage.Backend, error)

// PublishService writes plans to storage locations and reads them back.
type PublishService struct {
	baseService
	config      *Config
	openBackend BackendOpener
	noOverwrite bool
}

// NewPublishService creates a PublishService. opts is passed to every backend it opens.
func NewPublishService(cfg *Config, opts storage.Options) (*PublishService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PublishService{
		baseService: newBaseService(cfg, "PublishService"),
		config:      cfg,
		openBackend: func(ctx context.Context, loc *storage.Location) (storage.Backend, error) {
			return storage.NewBackend(ctx, loc, opts)
		},
	}, nil
}

// WithOpener replaces the function used to open backends
func (s *PublishService) WithOpener(open BackendOpener) *PublishService {
	s.openBackend = open
	return s
}

// WithNoOverwrite makes Publish keep objects that already exist
func (s *PublishService) WithNoOverwrite(noOverwrite bool) *PublishService {
	s.noOverwrite = noOverwrite
	return s
}

func (s *PublishService) location(target string) (*storage.Location, error) {
	if target == "" {
		target = s.config.StorageURL
	}
	if target == "" {
		return nil, &ValidationError{Field: "storage", Message: "no storage URL given and " + EnvStorageURL + " is not set"}
	}
	loc, err := storage.ParseLocation(target)
	if err != nil {
		return nil, &ValidationError{Field: "storage", Message: err.Error()}
	}
	return loc, nil
}

// Publish writes plan as <instance>.json under target, compressed with the
// configured codec. An empty target uses the configured storage URL.
func (s *PublishService) Publish(ctx context.Context, plan *normalizer.Plan, target string) (*PublishResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: plan is nil", ErrInvalidInput)
	}
	loc, err := s.location(target)
	if err != nil {
		return nil, err
	}

	op := s.startOp(ctx, "Publish", plan.Instance.Name).WithValues("location", loc.String())

	compression, err := storage.ParseCompression(s.config.Compression)
	if err != nil {
		return nil, &ValidationError{Field: "compression", Message: err.Error()}
	}
	compressor, err := storage.NewCompressor(compression)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	backend, err := s.openBackend(ctx, loc)
	if err != nil {
		metrics.RecordPublishOperation(loc.Scheme, metrics.StatusFailure)
		op.Error(err, "failed to open storage")
		return nil, NewStorageError("open", loc.String(), err)
	}
	defer backend.Close()

	if s.noOverwrite {
		existing := plan.Instance.Name + ".json" + compressor.Extension()
		result, err := s.keepExisting(ctx, backend, loc, existing, compression)
		if err != nil {
			metrics.RecordPublishOperation(loc.Scheme, metrics.StatusFailure)
			op.Error(err, "failed to check existing plan")
			return nil, err
		}
		if result != nil {
			metrics.RecordPublishOperation(loc.Scheme, metrics.StatusSkipped)
			op.Success("plan already published", "path", existing)
			return result, nil
		}
	}

	objectPath, size, err := storage.PutObject(ctx, backend, plan.Instance.Name+".json", data, compressor)
	metrics.RecordPublishDuration(loc.Scheme, op.Elapsed().Seconds())
	if err != nil {
		metrics.RecordPublishOperation(loc.Scheme, metrics.StatusFailure)
		op.Error(err, "failed to publish plan")
		return nil, NewStorageError("write", loc.String(), err)
	}
	metrics.RecordPublishOperation(loc.Scheme, metrics.StatusSuccess)
	metrics.RecordPublishedBytes(loc.Scheme, int(size))

	op.Success("plan published", "path", objectPath, "size", size, "compression", string(compression))
	return &PublishResult{
		Location:    loc.String(),
		Path:        objectPath,
		Size:        size,
		Compression: string(compression),
		Status:      PublishStatusWritten,
		PublishedAt: time.Now().UTC(),
	}, nil
}

// keepExisting returns a skipped result when objectPath is already stored, and nil otherwise.
func (s *PublishService) keepExisting(ctx context.Context, backend storage.Backend, loc *storage.Location,
	objectPath string, compression storage.Compression) (*PublishResult, error) {
	exists, err := backend.Exists(ctx, objectPath)
	if err != nil {
		return nil, NewStorageError("exists", loc.String(), err)
	}
	if !exists {
		return nil, nil
	}
	size, err := backend.GetSize(ctx, objectPath)
	if err != nil {
		return nil, NewStorageError("stat", loc.String(), err)
	}
	return &PublishResult{
		Location:    loc.String(),
		Path:        objectPath,
		Size:        size,
		Compression: string(compression),
		Status:      PublishStatusSkipped,
	}, nil
}

// Fetch reads a published plan from its object URL
func (s *PublishService) Fetch(ctx context.Context, objectURL string) (*normalizer.Plan, error) {
	loc, err := storage.ParseLocation(objectURL)
	if err != nil {
		return nil, &ValidationError{Field: "url", Message: err.Error()}
	}
	parent, objectPath := loc.Split()
	if objectPath == "" {
		return nil, &ValidationError{Field: "url", Message: "URL does not name an object"}
	}

	op := s.startOp(ctx, "Fetch", objectPath).WithValues("location", parent.String())

	backend, err := s.openBackend(ctx, parent)
	if err != nil {
		op.Error(err, "failed to open storage")
		return nil, NewStorageError("open", parent.String(), err)
	}
	defer backend.Close()

	data, err := storage.GetObject(ctx, backend, objectPath)
	if err != nil {
		op.Error(err, "failed to read plan")
		return nil, NewStorageError("read", objectURL, err)
	}

	plan := &normalizer.Plan{}
	if err := json.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("%w: %s is not a plan: %v", ErrInvalidInput, objectURL, err)
	}
	op.Success("plan fetched", "bytes", len(data))
	return plan, nil
}

// List returns the objects stored under target
func (s *PublishService) List(ctx context.Context, target string) ([]storage.ObjectInfo, error) {
	loc, err := s.location(target)
	if err != nil {
		return nil, err
	}

	op := s.startOp(ctx, "List", loc.String())

	backend, err := s.openBackend(ctx, loc)
	if err != nil {
		op.Error(err, "failed to open storage")
		return nil, NewStorageError("open", loc.String(), err)
	}
	defer backend.Close()

	objects, err := backend.List(ctx, "")
	if err != nil {
		op.Error(err, "failed to list plans")
		return nil, NewStorageError("list", loc.String(), err)
	}
	op.Success("plans listed", "count", len(objects))
	return objects, nil
}

// Prune deletes the plans stored under target whose instance is not in keep.
// Objects that are not plans written by Publish are left alone.
func (s *PublishService) Prune(ctx context.Context, target string, keep []string) ([]*PublishResult, error) {
	loc, err := s.location(target)
	if err != nil {
		return nil, err
	}

	op := s.startOp(ctx, "Prune", loc.String())

	backend, err := s.openBackend(ctx, loc)
	if err != nil {
		op.Error(err, "failed to open storage")
		return nil, NewStorageError("open", loc.String(), err)
	}
	defer backend.Close()

	objects, err := backend.List(ctx, "")
	if err != nil {
		op.Error(err, "failed to list plans")
		return nil, NewStorageError("list", loc.String(), err)
	}

	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	var pruned []*PublishResult
	for _, obj := range objects {
		name, ok := storage.PlanName(obj.Path)
		if !ok || kept[name] {
			continue
		}
		if err := backend.Delete(ctx, obj.Path); err != nil {
			op.WithValues("path", obj.Path).Error(err, "failed to delete plan")
			return pruned, NewStorageError("delete", loc.String(), err)
		}
		op.Debug("plan pruned", "path", obj.Path)
		pruned = append(pruned, &PublishResult{
			Location:    loc.String(),
			Path:        obj.Path,
			Size:        obj.Size,
			Compression: string(storage.CompressionForPath(obj.Path)),
			Status:      PublishStatusPruned,
		})
	}
	op.Success("plans pruned", "count", len(pruned))
	return pruned, nil
}
