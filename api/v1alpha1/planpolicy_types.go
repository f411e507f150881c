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

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// FieldPolicy decides what happens to a field the engine family does not support
// +kubebuilder:validation:Enum=Drop;Reject
type FieldPolicy string

const (
	// FieldPolicyDrop silently removes the field and records a warning
	FieldPolicyDrop FieldPolicy = "Drop"
	// FieldPolicyReject fails validation with UnsupportedFeatureForFamily
	FieldPolicyReject FieldPolicy = "Reject"
)

// ReplicaTierPolicy decides whether replicas may inherit the primary tier
// +kubebuilder:validation:Enum=Require;Inherit
type ReplicaTierPolicy string

const (
	ReplicaTierRequire ReplicaTierPolicy = "Require"
	ReplicaTierInherit ReplicaTierPolicy = "Inherit"
)

// PolicyDefaults are applied to every omitted instance field
type PolicyDefaults struct {
	// +optional
	Tier string `json:"tier,omitempty"`

	// +optional
	Region string `json:"region,omitempty"`

	// +optional
	Edition Edition `json:"edition,omitempty"`

	// +optional
	AvailabilityType AvailabilityType `json:"availabilityType,omitempty"`

	// +optional
	DiskSizeGb int64 `json:"diskSizeGb,omitempty"`

	// +optional
	DiskType DiskType `json:"diskType,omitempty"`

	// +optional
	DiskAutoresize *bool `json:"diskAutoresize,omitempty"`

	// +optional
	PublicIPEnabled *bool `json:"publicIpEnabled,omitempty"`

	// +optional
	SSLMode SSLMode `json:"sslMode,omitempty"`

	// +optional
	DeletionProtection *bool `json:"deletionProtection,omitempty"`

	// +optional
	BackupEnabled *bool `json:"backupEnabled,omitempty"`

	// +optional
	BackupStartTime string `json:"backupStartTime,omitempty"`

	// +optional
	PointInTimeRecovery *bool `json:"pointInTimeRecovery,omitempty"`

	// +optional
	RetainedBackups int32 `json:"retainedBackups,omitempty"`

	// +optional
	TransactionLogRetentionDays int32 `json:"transactionLogRetentionDays,omitempty"`
}

// PlanPolicySpec parameterizes the normalizer for one deployment posture.
type PlanPolicySpec struct {
	// Preset is the named base policy the other fields override
	// +kubebuilder:validation:Enum=default;secure
	// +kubebuilder:default=default
	Preset string `json:"preset,omitempty"`

	// +optional
	Defaults PolicyDefaults `json:"defaults,omitempty"`

	// +kubebuilder:default=Drop
	UnsupportedFields FieldPolicy `json:"unsupportedFields,omitempty"`

	// +kubebuilder:default=Require
	ReplicaTier ReplicaTierPolicy `json:"replicaTier,omitempty"`

	// ForceDeletionProtection overrides any instance-level opt-out
	// +optional
	ForceDeletionProtection bool `json:"forceDeletionProtection,omitempty"`

	// PasswordLength is the length requested for generated passwords
	// +kubebuilder:validation:Minimum=16
	// +kubebuilder:validation:Maximum=128
	PasswordLength int32 `json:"passwordLength,omitempty"`
}

// PlanPolicy is the input document carrying a PlanPolicySpec.
type PlanPolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec PlanPolicySpec `json:"spec"`
}
