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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/storage"
	"github.com/sql-instance-planner/internal/storage/testutil"
)

func testPlan(t *testing.T) *normalizer.Plan {
	t.Helper()
	svc := newTestPlanService(t, NewConfigBuilder())
	plan, err := svc.Plan(context.Background(), testInstance("orders", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "POSTGRES_15",
		Databases:       []v1alpha1.DatabaseSpec{{Name: "orders"}, {Name: "audit"}},
		Users:           []v1alpha1.UserSpec{{Name: "app"}},
	}))
	require.NoError(t, err)
	return plan
}

func memoryPublisher(t *testing.T, b *ConfigBuilder, mem *testutil.MemoryBackend) (*PublishService, *[]*storage.Location) {
	t.Helper()
	svc, err := NewPublishService(b.MustBuild(), storage.Options{})
	require.NoError(t, err)

	var opened []*storage.Location
	svc.WithOpener(func(_ context.Context, loc *storage.Location) (storage.Backend, error) {
		opened = append(opened, loc)
		return mem, nil
	})
	return svc, &opened
}

func TestPublishService_Publish(t *testing.T) {
	tests := []struct {
		name        string
		compression string
		wantPath    string
	}{
		{name: "uncompressed", compression: "none", wantPath: "orders.json"},
		{name: "gzip", compression: "gzip", wantPath: "orders.json.gz"},
		{name: "zstd", compression: "zstd", wantPath: "orders.json.zst"},
		{name: "lz4", compression: "lz4", wantPath: "orders.json.lz4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := testutil.NewMemoryBackend()
			svc, opened := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans/sql", tt.compression), mem)

			res, err := svc.Publish(context.Background(), testPlan(t), "")
			require.NoError(t, err)

			assert.Equal(t, "gs://acme-plans/sql", res.Location)
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.compression, res.Compression)
			assert.Equal(t, "gs://acme-plans/sql/"+tt.wantPath, res.URL())
			assert.False(t, res.PublishedAt.IsZero())

			data, ok := mem.Object(tt.wantPath)
			require.True(t, ok)
			assert.Equal(t, int64(len(data)), res.Size)
			assert.True(t, mem.IsClosed())

			require.Len(t, *opened, 1)
			assert.Equal(t, "acme-plans", (*opened)[0].Host)
			assert.Equal(t, "sql", (*opened)[0].Path)
		})
	}
}

func TestPublishService_PublishErrors(t *testing.T) {
	t.Run("no target", func(t *testing.T) {
		svc, _ := memoryPublisher(t, NewConfigBuilder(), testutil.NewMemoryBackend())
		_, err := svc.Publish(context.Background(), testPlan(t), "")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), EnvStorageURL)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		svc, _ := memoryPublisher(t, NewConfigBuilder(), testutil.NewMemoryBackend())
		_, err := svc.Publish(context.Background(), testPlan(t), "ftp://plans")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported storage scheme")
	})

	t.Run("nil plan", func(t *testing.T) {
		svc, _ := memoryPublisher(t, NewConfigBuilder(), testutil.NewMemoryBackend())
		_, err := svc.Publish(context.Background(), nil, "gs://acme-plans")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("write failure", func(t *testing.T) {
		mem := testutil.NewMemoryBackend()
		mem.SetError("Write", errors.New("quota exceeded"))
		svc, _ := memoryPublisher(t, NewConfigBuilder(), mem)

		_, err := svc.Publish(context.Background(), testPlan(t), "s3://plans")
		require.Error(t, err)
		assert.True(t, IsStorageError(err))
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("open failure", func(t *testing.T) {
		svc, err := NewPublishService(NewConfigBuilder().MustBuild(), storage.Options{})
		require.NoError(t, err)
		svc.WithOpener(func(context.Context, *storage.Location) (storage.Backend, error) {
			return nil, errors.New("no credentials")
		})

		_, err = svc.Publish(context.Background(), testPlan(t), "azblob://acct/plans")
		require.Error(t, err)
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "open", storageErr.Operation)
	})
}

func TestPublishService_Fetch(t *testing.T) {
	mem := testutil.NewMemoryBackend()
	svc, opened := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans/sql", "zstd"), mem)
	plan := testPlan(t)

	res, err := svc.Publish(context.Background(), plan, "")
	require.NoError(t, err)

	got, err := svc.Fetch(context.Background(), res.URL())
	require.NoError(t, err)
	assert.Equal(t, plan.Instance, got.Instance)
	assert.Equal(t, []string{"orders", "audit"}, databaseNames(got))
	assert.Equal(t, plan.SecretRequests, got.SecretRequests)

	require.Len(t, *opened, 2)
	assert.Equal(t, "sql", (*opened)[1].Path)

	_, err = svc.Fetch(context.Background(), "gs://acme-plans/sql/missing.json")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestPublishService_FetchInvalid(t *testing.T) {
	mem := testutil.NewMemoryBackend()
	svc, _ := memoryPublisher(t, NewConfigBuilder(), mem)

	require.NoError(t, mem.Write(context.Background(), "notes.txt", strings.NewReader("not json")))
	_, err := svc.Fetch(context.Background(), "gs://bucket/notes.txt")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Fetch(context.Background(), "gs://bucket")
	assert.True(t, IsValidationError(err))
}

func TestPublishService_List(t *testing.T) {
	mem := testutil.NewMemoryBackend()
	svc, _ := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans", "gzip"), mem)

	_, err := svc.Publish(context.Background(), testPlan(t), "")
	require.NoError(t, err)

	objects, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "orders.json.gz", objects[0].Path)

	mem.SetError("List", errors.New("denied"))
	_, err = svc.List(context.Background(), "")
	assert.True(t, IsStorageError(err))
}

func TestPublishService_NoOverwrite(t *testing.T) {
	mem := testutil.NewMemoryBackend()
	svc, _ := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans", "gzip"), mem)

	first, err := svc.Publish(context.Background(), testPlan(t), "")
	require.NoError(t, err)
	assert.Equal(t, PublishStatusWritten, first.Status)

	svc.WithNoOverwrite(true)
	second, err := svc.Publish(context.Background(), testPlan(t), "")
	require.NoError(t, err)
	assert.Equal(t, PublishStatusSkipped, second.Status)
	assert.Equal(t, "orders.json.gz", second.Path)
	assert.Equal(t, first.Size, second.Size)
	assert.True(t, second.PublishedAt.IsZero())

	assert.Equal(t, 1, mem.CallCount("Write"))
	assert.Equal(t, 1, mem.CallCount("Exists"))
	assert.Equal(t, 1, mem.CallCount("GetSize"))

	t.Run("missing object is written", func(t *testing.T) {
		mem := testutil.NewMemoryBackend()
		svc, _ := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans", "none"), mem)
		svc.WithNoOverwrite(true)

		res, err := svc.Publish(context.Background(), testPlan(t), "")
		require.NoError(t, err)
		assert.Equal(t, PublishStatusWritten, res.Status)
		assert.Equal(t, 0, mem.CallCount("GetSize"))
	})

	t.Run("exists failure", func(t *testing.T) {
		mem := testutil.NewMemoryBackend()
		mem.SetError("Exists", errors.New("denied"))
		svc, _ := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans", "none"), mem)
		svc.WithNoOverwrite(true)

		_, err := svc.Publish(context.Background(), testPlan(t), "")
		require.Error(t, err)
		var storageErr *StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "exists", storageErr.Operation)
		assert.Equal(t, 0, mem.CallCount("Write"))
	})
}

func TestPublishService_Prune(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemoryBackend()
	svc, _ := memoryPublisher(t, NewConfigBuilder().WithStorage("gs://acme-plans", "zstd"), mem)

	for path, body := range map[string]string{
		"orders.json.zst":     "{}",
		"billing.json.gz":     "{}",
		"legacy.json":         "{}",
		"README.md":           "plans",
		"archive/legacy.json": "{}",
	} {
		require.NoError(t, mem.Write(ctx, path, strings.NewReader(body)))
	}

	pruned, err := svc.Prune(ctx, "", []string{"orders"})
	require.NoError(t, err)

	var paths []string
	for _, r := range pruned {
		assert.Equal(t, PublishStatusPruned, r.Status)
		paths = append(paths, r.Path)
	}
	assert.ElementsMatch(t, []string{"billing.json.gz", "legacy.json"}, paths)
	assert.Equal(t, []string{"README.md", "archive/legacy.json", "orders.json.zst"}, mem.Paths())

	mem.SetError("Delete", errors.New("read only"))
	require.NoError(t, mem.Write(ctx, "stale.json", strings.NewReader("{}")))
	_, err = svc.Prune(ctx, "", []string{"orders"})
	assert.True(t, IsStorageError(err))
}

func TestPublishService_LocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewPublishService(NewConfigBuilder().WithStorage("file://"+dir, "gzip").MustBuild(), storage.Options{})
	require.NoError(t, err)

	res, err := svc.Publish(context.Background(), testPlan(t), "")
	require.NoError(t, err)
	assert.Equal(t, "orders.json.gz", res.Path)

	got, err := svc.Fetch(context.Background(), "file://"+dir+"/"+res.Path)
	require.NoError(t, err)
	assert.Equal(t, "orders", got.Instance.Name)
}

func databaseNames(plan *normalizer.Plan) []string {
	var names []string
	for _, db := range plan.DatabaseList() {
		names = append(names, db.Name)
	}
	return names
}
