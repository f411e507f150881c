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
	"maps"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// ReplicaOptions carries the context a replica is derived in.
type ReplicaOptions struct {
	// Key identifies the replica in the plan and ends its derived name
	Key string
	// NameSuffix is inserted between "-replica" and Key
	NameSuffix string
	TierPolicy v1alpha1.ReplicaTierPolicy
	// PrimaryFlags are the resolved primary flags, used where the replica sets none of its own
	PrimaryFlags []v1alpha1.DatabaseFlag
	Path         *field.Path
}

// ReplicaName builds <primary>-replica<suffix><key>
func ReplicaName(primary, suffix, key string) string {
	return primary + "-replica" + suffix + key
}

// DeriveReplicaDefaults resolves a read replica against its resolved primary.
// Omitted fields inherit from the primary, except the tier, which is only
// inherited under the Inherit policy. The zone survives only for a ZONAL primary.
// Warnings are returned even when the replica fails validation.
func DeriveReplicaDefaults(primary *InstancePlan, override v1alpha1.ReplicaSpec, opts ReplicaOptions) (ReplicaPlan, []Warning, error) {
	plan, errs, warnings := deriveReplica(primary, override, opts)
	if len(errs) > 0 {
		return ReplicaPlan{}, warnings, utilerrors.NewAggregate(errs)
	}
	return plan, warnings, nil
}

func deriveReplica(primary *InstancePlan, override v1alpha1.ReplicaSpec, opts ReplicaOptions) (ReplicaPlan, []error, []Warning) {
	path := opts.Path
	if path == nil {
		path = field.NewPath("spec", "readReplicas").Key(opts.Key)
	}

	var errs []error
	var warnings []Warning

	out := ReplicaPlan{
		Key:                opts.Key,
		Name:               override.Name,
		MasterInstanceName: primary.Name,
		Region:             primary.Region,
		DatabaseVersion:    primary.DatabaseVersion,
		Tier:               override.Tier,
		Disk:               primary.Disk,
		EncryptionKeyName:  primary.EncryptionKeyName,
		AvailabilityType:   v1alpha1.AvailabilityZonal,
	}

	if out.Name == "" {
		out.Name = ReplicaName(primary.Name, opts.NameSuffix, opts.Key)
	}
	if err := validateName(path.Child("name"), out.Name); err != nil {
		errs = append(errs, err)
	}

	if out.Tier == "" {
		if opts.TierPolicy == v1alpha1.ReplicaTierInherit {
			out.Tier = primary.Tier
		} else {
			errs = append(errs, newError(path.Child("tier"), ReasonRequired,
				"replica tier is required and is not inherited from the primary"))
		}
	}

	if primary.AvailabilityType == v1alpha1.AvailabilityZonal {
		out.Zone = override.Zone
		if out.Zone == "" {
			out.Zone = primary.Zone
		}
	}

	if d := override.Disk; d != nil {
		if d.SizeGb != 0 {
			out.Disk.SizeGb = d.SizeGb
		}
		if d.Type != "" {
			out.Disk.Type = d.Type
		}
		if d.Autoresize != nil {
			out.Disk.Autoresize = *d.Autoresize
		}
		if d.AutoresizeLimit != 0 {
			out.Disk.AutoresizeLimit = d.AutoresizeLimit
		}
		if out.Disk.SizeGb < primary.Disk.SizeGb {
			errs = append(errs, newError(path.Child("disk", "sizeGb"), ReasonInvalidFieldRange,
				"replica disk of %d GB is smaller than the primary's %d GB", out.Disk.SizeGb, primary.Disk.SizeGb))
		}
		errs = append(errs, validateDisk(path.Child("disk"), out.Disk)...)
	}

	network, netErrs, netWarnings := resolveNetwork(path.Child("ipConfiguration"), override.IPConfiguration, primary.Network)
	out.Network = network
	errs = append(errs, netErrs...)
	warnings = append(warnings, netWarnings...)

	if override.EncryptionKeyName != "" {
		out.EncryptionKeyName = override.EncryptionKeyName
	}

	if override.UserLabels != nil {
		out.UserLabels = maps.Clone(override.UserLabels)
	} else if primary.UserLabels != nil {
		out.UserLabels = maps.Clone(primary.UserLabels)
	}

	flags, flagErrs, flagWarnings := validateFlags(path.Child("databaseFlags"), override.DatabaseFlags)
	errs = append(errs, flagErrs...)
	warnings = append(warnings, flagWarnings...)
	out.Flags = MergeFlags(flags, flagPointers(opts.PrimaryFlags)...)

	return out, errs, warnings
}
