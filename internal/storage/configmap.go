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
	"sort"
	"strings"
	"unicode/utf8"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/sql-instance-planner/internal/render"
)

// ConfigMapBackend stores each object as a key of a single ConfigMap.
// Text objects go to data, compressed objects to binaryData.
type ConfigMapBackend struct {
	client    client.Client
	namespace string
	name      string
}

// NewConfigMapBackend creates a backend over the ConfigMap namespace/name
func NewConfigMapBackend(c client.Client, namespace, name string) *ConfigMapBackend {
	return &ConfigMapBackend{client: c, namespace: namespace, name: name}
}

func newKubeClient() (client.Client, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	c, err := client.New(cfg, client.Options{Scheme: clientgoscheme.Scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return c, nil
}

func (b *ConfigMapBackend) key() types.NamespacedName {
	return types.NamespacedName{Namespace: b.namespace, Name: b.name}
}

func (b *ConfigMapBackend) get(ctx context.Context) (*corev1.ConfigMap, error) {
	cm := &corev1.ConfigMap{}
	if err := b.client.Get(ctx, b.key(), cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func validConfigMapKey(objectPath string) error {
	if objectPath == "" || strings.ContainsAny(objectPath, "/\\") {
		return fmt.Errorf("invalid ConfigMap key %q", objectPath)
	}
	return nil
}

// Write creates the ConfigMap on first use and updates it afterwards
func (b *ConfigMapBackend) Write(ctx context.Context, objectPath string, reader io.Reader) error {
	if err := validConfigMapKey(objectPath); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	cm, err := b.get(ctx)
	create := apierrors.IsNotFound(err)
	switch {
	case create:
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      b.name,
				Namespace: b.namespace,
				Labels:    map[string]string{render.LabelManagedBy: render.ManagedByValue},
			},
		}
	case err != nil:
		return fmt.Errorf("failed to get configmap %s: %w", b.key(), err)
	}

	delete(cm.Data, objectPath)
	delete(cm.BinaryData, objectPath)
	if utf8.Valid(data) {
		if cm.Data == nil {
			cm.Data = map[string]string{}
		}
		cm.Data[objectPath] = string(data)
	} else {
		if cm.BinaryData == nil {
			cm.BinaryData = map[string][]byte{}
		}
		cm.BinaryData[objectPath] = data
	}

	if create {
		err = b.client.Create(ctx, cm)
	} else {
		err = b.client.Update(ctx, cm)
	}
	if err != nil {
		return fmt.Errorf("failed to write configmap %s: %w", b.key(), err)
	}
	return nil
}

func (b *ConfigMapBackend) lookup(ctx context.Context, objectPath string) ([]byte, bool, error) {
	cm, err := b.get(ctx)
	if apierrors.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get configmap %s: %w", b.key(), err)
	}
	if v, ok := cm.Data[objectPath]; ok {
		return []byte(v), true, nil
	}
	if v, ok := cm.BinaryData[objectPath]; ok {
		return v, true, nil
	}
	return nil, false, nil
}

func (b *ConfigMapBackend) Read(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	data, ok, err := b.lookup(ctx, objectPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: configmap %s key %s", ErrObjectNotFound, b.key(), objectPath)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *ConfigMapBackend) Delete(ctx context.Context, objectPath string) error {
	cm, err := b.get(ctx)
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get configmap %s: %w", b.key(), err)
	}

	_, inData := cm.Data[objectPath]
	_, inBinary := cm.BinaryData[objectPath]
	if !inData && !inBinary {
		return nil
	}
	delete(cm.Data, objectPath)
	delete(cm.BinaryData, objectPath)
	if err := b.client.Update(ctx, cm); err != nil {
		return fmt.Errorf("failed to update configmap %s: %w", b.key(), err)
	}
	return nil
}

func (b *ConfigMapBackend) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, ok, err := b.lookup(ctx, objectPath)
	return ok, err
}

// List returns the keys starting with prefix in sorted order
func (b *ConfigMapBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	cm, err := b.get(ctx)
	if apierrors.IsNotFound(err) {
		return []ObjectInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configmap %s: %w", b.key(), err)
	}

	objects := []ObjectInfo{}
	add := func(k string, size int) {
		if strings.HasPrefix(k, prefix) {
			objects = append(objects, ObjectInfo{
				Path:         k,
				Size:         int64(size),
				LastModified: cm.CreationTimestamp.Unix(),
			})
		}
	}
	for k, v := range cm.Data {
		add(k, len(v))
	}
	for k, v := range cm.BinaryData {
		add(k, len(v))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

func (b *ConfigMapBackend) GetSize(ctx context.Context, objectPath string) (int64, error) {
	data, ok, err := b.lookup(ctx, objectPath)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: configmap %s key %s", ErrObjectNotFound, b.key(), objectPath)
	}
	return int64(len(data)), nil
}

// Close is a no-op, the client is shared
func (b *ConfigMapBackend) Close() error {
	return nil
}
