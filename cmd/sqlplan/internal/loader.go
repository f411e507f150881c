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

package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/service"
)

// Stdin is the file name that reads documents from standard input
const Stdin = "-"

// Bundle is the content of one input file: the instances to plan and an
// optional PlanPolicy that applies to all of them.
type Bundle struct {
	Source    string
	Instances []*v1alpha1.SQLInstance
	Policy    *v1alpha1.PlanPolicy
}

// typeMeta is used for initial parsing to determine the kind
type typeMeta struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
}

// LoadFile loads documents from a YAML or JSON file.
// Supports multi-document YAML files separated by "---".
func LoadFile(path string) (*Bundle, error) {
	if path == Stdin {
		b, err := LoadReader(os.Stdin)
		if err != nil {
			return nil, err
		}
		b.Source = "stdin"
		return b, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	b, err := LoadReader(file)
	if err != nil {
		return nil, err
	}
	b.Source = path
	return b, nil
}

// LoadReader loads documents from a reader
func LoadReader(r io.Reader) (*Bundle, error) {
	bundle := &Bundle{}
	decoder := yaml.NewDecoder(r)

	for i := 1; ; i++ {
		var node yaml.Node
		err := decoder.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document %d: %w", i, err)
		}
		if isEmpty(&node) {
			continue
		}
		if err := bundle.add(&node); err != nil {
			return nil, fmt.Errorf("failed to parse document %d: %w", i, err)
		}
	}

	if len(bundle.Instances) == 0 {
		return nil, fmt.Errorf("no %s documents found", v1alpha1.KindSQLInstance)
	}
	return bundle, nil
}

func (b *Bundle) add(node *yaml.Node) error {
	var meta typeMeta
	if err := node.Decode(&meta); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	switch meta.Kind {
	case v1alpha1.KindSQLInstance, "":
		instance, err := service.DecodeInstance(buf.Bytes())
		if err != nil {
			return err
		}
		b.Instances = append(b.Instances, instance)
	case v1alpha1.KindPlanPolicy:
		if b.Policy != nil {
			return fmt.Errorf("only one %s document is allowed", v1alpha1.KindPlanPolicy)
		}
		policy, err := service.DecodePolicy(buf.Bytes())
		if err != nil {
			return err
		}
		b.Policy = policy
	default:
		return fmt.Errorf("unsupported kind: %s", meta.Kind)
	}
	return nil
}

// isEmpty reports whether a document holds no content, e.g. a trailing "---"
func isEmpty(node *yaml.Node) bool {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		node = node.Content[0]
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
