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
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// DecodeInstance parses one SQLInstance document, YAML or JSON. Unknown
// fields are rejected. An omitted apiVersion and kind are accepted.
func DecodeInstance(data []byte) (*v1alpha1.SQLInstance, error) {
	instance := &v1alpha1.SQLInstance{}
	if err := yaml.UnmarshalStrict(data, instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := checkType(instance.APIVersion, instance.Kind, v1alpha1.KindSQLInstance, true); err != nil {
		return nil, err
	}
	return instance, nil
}

// DecodePolicy parses a PlanPolicy document. apiVersion and kind are required.
func DecodePolicy(data []byte) (*v1alpha1.PlanPolicy, error) {
	policy := &v1alpha1.PlanPolicy{}
	if err := yaml.UnmarshalStrict(data, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := checkType(policy.APIVersion, policy.Kind, v1alpha1.KindPlanPolicy, false); err != nil {
		return nil, err
	}
	return policy, nil
}

func checkType(apiVersion, kind, want string, optional bool) error {
	if optional && apiVersion == "" && kind == "" {
		return nil
	}
	if apiVersion != v1alpha1.GroupVersion.String() || kind != want {
		return fmt.Errorf("%w: expected %s %s, got %q %q", ErrInvalidInput,
			v1alpha1.GroupVersion.String(), want, apiVersion, kind)
	}
	return nil
}
