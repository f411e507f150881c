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

package normalizer

import (
	"fmt"

	"k8s.io/utils/ptr"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// Preset names
const (
	PresetDefault = "default"
	PresetSecure  = "secure"
)

const (
	DefaultPasswordLength = 32
	MinPasswordLength     = 16
	MaxPasswordLength     = 128
)

// PresetPolicy returns a copy of a named preset.
func PresetPolicy(name string) (v1alpha1.PlanPolicySpec, error) {
	switch name {
	case "", PresetDefault:
		return defaultPreset(), nil
	case PresetSecure:
		return securePreset(), nil
	}
	return v1alpha1.PlanPolicySpec{}, fmt.Errorf("unknown policy preset %q", name)
}

// PresetNames lists the shipped presets
func PresetNames() []string {
	return []string{PresetDefault, PresetSecure}
}

func defaultPreset() v1alpha1.PlanPolicySpec {
	return v1alpha1.PlanPolicySpec{
		Preset: PresetDefault,
		Defaults: v1alpha1.PolicyDefaults{
			Tier:                        "db-custom-2-7680",
			Region:                      "us-central1",
			Edition:                     v1alpha1.EditionEnterprise,
			AvailabilityType:            v1alpha1.AvailabilityZonal,
			DiskSizeGb:                  10,
			DiskType:                    v1alpha1.DiskTypeSSD,
			DiskAutoresize:              ptr.To(true),
			PublicIPEnabled:             ptr.To(true),
			DeletionProtection:          ptr.To(true),
			BackupEnabled:               ptr.To(true),
			BackupStartTime:             "03:00",
			PointInTimeRecovery:         ptr.To(false),
			RetainedBackups:             7,
			TransactionLogRetentionDays: 7,
		},
		UnsupportedFields: v1alpha1.FieldPolicyDrop,
		ReplicaTier:       v1alpha1.ReplicaTierRequire,
		PasswordLength:    DefaultPasswordLength,
	}
}

func securePreset() v1alpha1.PlanPolicySpec {
	p := defaultPreset()
	p.Preset = PresetSecure
	p.Defaults.AvailabilityType = v1alpha1.AvailabilityRegional
	p.Defaults.PublicIPEnabled = ptr.To(false)
	p.Defaults.SSLMode = v1alpha1.SSLModeEncryptedOnly
	p.Defaults.PointInTimeRecovery = ptr.To(true)
	p.UnsupportedFields = v1alpha1.FieldPolicyReject
	p.ForceDeletionProtection = true
	return p
}

// ResolvePolicy overlays every non-zero field of spec onto its preset.
func ResolvePolicy(spec v1alpha1.PlanPolicySpec) (v1alpha1.PlanPolicySpec, error) {
	out, err := PresetPolicy(spec.Preset)
	if err != nil {
		return out, err
	}

	d, o := spec.Defaults, &out.Defaults
	if d.Tier != "" {
		o.Tier = d.Tier
	}
	if d.Region != "" {
		o.Region = d.Region
	}
	if d.Edition != "" {
		o.Edition = d.Edition
	}
	if d.AvailabilityType != "" {
		o.AvailabilityType = d.AvailabilityType
	}
	if d.DiskSizeGb != 0 {
		o.DiskSizeGb = d.DiskSizeGb
	}
	if d.DiskType != "" {
		o.DiskType = d.DiskType
	}
	if d.DiskAutoresize != nil {
		o.DiskAutoresize = d.DiskAutoresize
	}
	if d.PublicIPEnabled != nil {
		o.PublicIPEnabled = d.PublicIPEnabled
	}
	if d.SSLMode != "" {
		o.SSLMode = d.SSLMode
	}
	if d.DeletionProtection != nil {
		o.DeletionProtection = d.DeletionProtection
	}
	if d.BackupEnabled != nil {
		o.BackupEnabled = d.BackupEnabled
	}
	if d.BackupStartTime != "" {
		o.BackupStartTime = d.BackupStartTime
	}
	if d.PointInTimeRecovery != nil {
		o.PointInTimeRecovery = d.PointInTimeRecovery
	}
	if d.RetainedBackups != 0 {
		o.RetainedBackups = d.RetainedBackups
	}
	if d.TransactionLogRetentionDays != 0 {
		o.TransactionLogRetentionDays = d.TransactionLogRetentionDays
	}

	if spec.UnsupportedFields != "" {
		out.UnsupportedFields = spec.UnsupportedFields
	}
	if spec.ReplicaTier != "" {
		out.ReplicaTier = spec.ReplicaTier
	}
	if spec.ForceDeletionProtection {
		out.ForceDeletionProtection = true
	}
	if spec.PasswordLength != 0 {
		out.PasswordLength = spec.PasswordLength
	}

	return out, validatePolicy(out)
}

func validatePolicy(p v1alpha1.PlanPolicySpec) error {
	switch p.UnsupportedFields {
	case v1alpha1.FieldPolicyDrop, v1alpha1.FieldPolicyReject:
	default:
		return fmt.Errorf("unsupportedFields must be Drop or Reject, got %q", p.UnsupportedFields)
	}
	switch p.ReplicaTier {
	case v1alpha1.ReplicaTierRequire, v1alpha1.ReplicaTierInherit:
	default:
		return fmt.Errorf("replicaTier must be Require or Inherit, got %q", p.ReplicaTier)
	}
	if p.PasswordLength < MinPasswordLength || p.PasswordLength > MaxPasswordLength {
		return fmt.Errorf("passwordLength must be between %d and %d, got %d",
			MinPasswordLength, MaxPasswordLength, p.PasswordLength)
	}
	return nil
}
