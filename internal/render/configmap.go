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

package render

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/sql-instance-planner/internal/normalizer"
)

// PlanDataKey is the ConfigMap key holding the plan
const PlanDataKey = "plan.json"

// Labels set on rendered objects
const (
	LabelManagedBy = "app.kubernetes.io/managed-by"
	LabelInstance  = "sqlplan.io/instance"
	LabelFamily    = "sqlplan.io/family"
	ManagedByValue = "sqlplan"
)

// ConfigMapName returns the name of the ConfigMap holding a plan for an instance
func ConfigMapName(instance string) string {
	return instance + "-plan"
}

// ConfigMap wraps the plan in a ConfigMap for a reconciler running in-cluster.
// The plan is serialized without secret values.
func ConfigMap(plan *normalizer.Plan, namespace string) (*corev1.ConfigMap, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}

	return &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "ConfigMap",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConfigMapName(plan.Instance.Name),
			Namespace: namespace,
			Labels: map[string]string{
				LabelManagedBy: ManagedByValue,
				LabelInstance:  plan.Instance.Name,
				LabelFamily:    string(plan.Instance.Family),
			},
		},
		Data: map[string]string{
			PlanDataKey: string(data),
		},
	}, nil
}

// PlanFromConfigMap decodes a plan stored by ConfigMap.
func PlanFromConfigMap(cm *corev1.ConfigMap) (*normalizer.Plan, error) {
	raw, ok := cm.Data[PlanDataKey]
	if !ok {
		return nil, fmt.Errorf("configmap %s/%s has no %s key", cm.Namespace, cm.Name, PlanDataKey)
	}
	plan := &normalizer.Plan{}
	if err := json.Unmarshal([]byte(raw), plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan from configmap %s/%s: %w", cm.Namespace, cm.Name, err)
	}
	return plan, nil
}
