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
	"errors"
	"io"
	"strings"
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/sql-instance-planner/internal/render"
)

func newFakeClient(objs ...client.Object) client.Client {
	return fake.NewClientBuilder().WithScheme(clientgoscheme.Scheme).WithObjects(objs...).Build()
}

func TestConfigMapBackend_WriteCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	c := newFakeClient()
	backend := NewConfigMapBackend(c, "platform", "sql-plans")

	if err := backend.Write(ctx, "orders-db.json", strings.NewReader(`{"v":1}`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := backend.Write(ctx, "billing-db.json", strings.NewReader(`{"v":2}`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := backend.Write(ctx, "orders-db.json", strings.NewReader(`{"v":3}`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	cm := &corev1.ConfigMap{}
	if err := c.Get(ctx, types.NamespacedName{Namespace: "platform", Name: "sql-plans"}, cm); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cm.Labels[render.LabelManagedBy] != render.ManagedByValue {
		t.Errorf("Expected managed-by label, got %v", cm.Labels)
	}
	if cm.Data["orders-db.json"] != `{"v":3}` {
		t.Errorf("Expected updated value, got %q", cm.Data["orders-db.json"])
	}
	if len(cm.Data) != 2 {
		t.Errorf("Expected 2 keys, got %d", len(cm.Data))
	}
}

func TestConfigMapBackend_BinaryData(t *testing.T) {
	ctx := context.Background()
	backend := NewConfigMapBackend(newFakeClient(), "platform", "sql-plans")

	gz, _ := NewCompressor(CompressionGzip)
	objectPath, _, err := PutObject(ctx, backend, "orders-db.json", testData, gz)
	if err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}

	got, err := GetObject(ctx, backend, objectPath)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if !bytes.Equal(got, testData) {
		t.Errorf("Roundtrip mismatch: %q", got)
	}
}

func TestConfigMapBackend_ReadExistsDelete(t *testing.T) {
	ctx := context.Background()
	existing := &corev1.ConfigMap{}
	existing.Name = "sql-plans"
	existing.Namespace = "platform"
	existing.Data = map[string]string{"orders-db.json": "{}", "notes.txt": "hi"}
	backend := NewConfigMapBackend(newFakeClient(existing), "platform", "sql-plans")

	rc, err := backend.Read(ctx, "orders-db.json")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "{}" {
		t.Errorf("Unexpected data %q", data)
	}

	if ok, _ := backend.Exists(ctx, "orders-db.json"); !ok {
		t.Error("Expected orders-db.json to exist")
	}
	if size, _ := backend.GetSize(ctx, "notes.txt"); size != 2 {
		t.Errorf("Expected size 2, got %d", size)
	}

	objects, err := backend.List(ctx, "orders")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 1 || objects[0].Path != "orders-db.json" {
		t.Errorf("Unexpected listing %+v", objects)
	}

	if err := backend.Delete(ctx, "orders-db.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := backend.Exists(ctx, "orders-db.json"); ok {
		t.Error("Expected orders-db.json to be deleted")
	}
	if err := backend.Delete(ctx, "orders-db.json"); err != nil {
		t.Errorf("Deleting a missing key should succeed, got %v", err)
	}

	_, err = backend.Read(ctx, "orders-db.json")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound, got %v", err)
	}
}

func TestConfigMapBackend_MissingConfigMap(t *testing.T) {
	ctx := context.Background()
	backend := NewConfigMapBackend(newFakeClient(), "platform", "absent")

	if ok, err := backend.Exists(ctx, "x.json"); ok || err != nil {
		t.Errorf("Expected (false, nil), got (%v, %v)", ok, err)
	}
	objects, err := backend.List(ctx, "")
	if err != nil || len(objects) != 0 {
		t.Errorf("Expected empty listing, got %v, %v", objects, err)
	}
	if err := backend.Delete(ctx, "x.json"); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestConfigMapBackend_InvalidKey(t *testing.T) {
	backend := NewConfigMapBackend(newFakeClient(), "platform", "sql-plans")
	err := backend.Write(context.Background(), "nested/key.json", strings.NewReader("{}"))
	if err == nil || !strings.Contains(err.Error(), "invalid ConfigMap key") {
		t.Errorf("Expected invalid key error, got %v", err)
	}
}
