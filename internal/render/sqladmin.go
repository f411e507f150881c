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
	sqladmin "google.golang.org/api/sqladmin/v1beta4"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/normalizer"
)

// Cloud SQL instance types
const (
	InstanceTypePrimary     = "CLOUD_SQL_INSTANCE"
	InstanceTypeReadReplica = "READ_REPLICA_INSTANCE"
)

// Payloads is the full set of Cloud SQL Admin API bodies for a plan.
type Payloads struct {
	Instances []*sqladmin.DatabaseInstance `json:"instances"`
	Databases []*sqladmin.Database         `json:"databases"`
	Users     []*sqladmin.User             `json:"users"`
}

// Render builds every payload of a plan. See UserPayloads for how secrets are used.
func Render(plan *normalizer.Plan, secrets map[string]string) *Payloads {
	return &Payloads{
		Instances: InstancePayloads(plan, secrets),
		Databases: DatabasePayloads(plan),
		Users:     UserPayloads(plan, secrets),
	}
}

// InstancePayloads returns the primary instance followed by its read replicas.
// The root password is only set when secrets is non-nil.
func InstancePayloads(plan *normalizer.Plan, secrets map[string]string) []*sqladmin.DatabaseInstance {
	in := plan.Instance

	primary := &sqladmin.DatabaseInstance{
		Name:            in.Name,
		Project:         in.Project,
		Region:          in.Region,
		DatabaseVersion: in.DatabaseVersion,
		InstanceType:    InstanceTypePrimary,
		Settings: &sqladmin.Settings{
			Tier:                      in.Tier,
			Edition:                   string(in.Edition),
			AvailabilityType:          string(in.AvailabilityType),
			DataDiskSizeGb:            in.Disk.SizeGb,
			DataDiskType:              string(in.Disk.Type),
			StorageAutoResize:         &in.Disk.Autoresize,
			StorageAutoResizeLimit:    in.Disk.AutoresizeLimit,
			DeletionProtectionEnabled: in.DeletionProtection,
			IpConfiguration:           ipConfiguration(in.Network),
			BackupConfiguration:       backupConfiguration(in.Backup),
			DatabaseFlags:             databaseFlags(plan.Flags),
			UserLabels:                in.UserLabels,
			MaintenanceWindow:         maintenanceWindow(in.MaintenanceWindow),
			InsightsConfig:            insightsConfig(in.Insights),
			LocationPreference:        locationPreference(in.Zone, in.SecondaryZone),
			ForceSendFields:           []string{"DeletionProtectionEnabled"},
		},
	}
	if in.EncryptionKeyName != "" {
		primary.DiskEncryptionConfiguration = &sqladmin.DiskEncryptionConfiguration{KmsKeyName: in.EncryptionKeyName}
	}
	if secrets != nil {
		switch in.RootPasswordPolicy {
		case normalizer.PasswordUseProvided:
			primary.RootPassword = in.RootPassword
		case normalizer.PasswordUseGenerated:
			primary.RootPassword = secrets[in.RootPasswordRef]
		}
	}

	out := []*sqladmin.DatabaseInstance{primary}
	for _, r := range plan.ReplicaList() {
		out = append(out, replicaPayload(in, r))
	}
	return out
}

func replicaPayload(primary normalizer.InstancePlan, r normalizer.ReplicaPlan) *sqladmin.DatabaseInstance {
	autoresize := r.Disk.Autoresize
	replica := &sqladmin.DatabaseInstance{
		Name:               r.Name,
		Project:            primary.Project,
		Region:             r.Region,
		DatabaseVersion:    r.DatabaseVersion,
		InstanceType:       InstanceTypeReadReplica,
		MasterInstanceName: r.MasterInstanceName,
		Settings: &sqladmin.Settings{
			Tier:                   r.Tier,
			Edition:                string(primary.Edition),
			AvailabilityType:       string(r.AvailabilityType),
			DataDiskSizeGb:         r.Disk.SizeGb,
			DataDiskType:           string(r.Disk.Type),
			StorageAutoResize:      &autoresize,
			StorageAutoResizeLimit: r.Disk.AutoresizeLimit,
			IpConfiguration:        ipConfiguration(r.Network),
			DatabaseFlags:          databaseFlags(r.Flags),
			UserLabels:             r.UserLabels,
			LocationPreference:     locationPreference(r.Zone, ""),
		},
	}
	if r.EncryptionKeyName != "" {
		replica.DiskEncryptionConfiguration = &sqladmin.DiskEncryptionConfiguration{KmsKeyName: r.EncryptionKeyName}
	}
	return replica
}

func ipConfiguration(n normalizer.NetworkPlan) *sqladmin.IpConfiguration {
	out := &sqladmin.IpConfiguration{
		Ipv4Enabled:      n.IPv4Enabled,
		PrivateNetwork:   n.PrivateNetwork,
		AllocatedIpRange: n.AllocatedIPRange,
		SslMode:          string(n.SSLMode),
		ForceSendFields:  []string{"Ipv4Enabled"},
	}
	for _, an := range n.AuthorizedNetworks {
		out.AuthorizedNetworks = append(out.AuthorizedNetworks, &sqladmin.AclEntry{Name: an.Name, Value: an.Value})
	}
	return out
}

func backupConfiguration(b normalizer.BackupPolicy) *sqladmin.BackupConfiguration {
	out := &sqladmin.BackupConfiguration{
		Enabled:                     b.Enabled,
		StartTime:                   b.StartTime,
		Location:                    b.Location,
		PointInTimeRecoveryEnabled:  b.PointInTimeRecovery,
		BinaryLogEnabled:            b.BinaryLogEnabled,
		TransactionLogRetentionDays: int64(b.TransactionLogRetentionDays),
		ForceSendFields:             []string{"Enabled"},
	}
	if b.RetainedBackups > 0 {
		out.BackupRetentionSettings = &sqladmin.BackupRetentionSettings{
			RetentionUnit:   "COUNT",
			RetainedBackups: int64(b.RetainedBackups),
		}
	}
	return out
}

func databaseFlags(flags []v1alpha1.DatabaseFlag) []*sqladmin.DatabaseFlags {
	out := make([]*sqladmin.DatabaseFlags, 0, len(flags))
	for _, f := range flags {
		out = append(out, &sqladmin.DatabaseFlags{Name: f.Name, Value: f.Value})
	}
	return out
}

func maintenanceWindow(w *v1alpha1.MaintenanceWindow) *sqladmin.MaintenanceWindow {
	if w == nil {
		return nil
	}
	return &sqladmin.MaintenanceWindow{
		Day:             int64(w.Day),
		Hour:            int64(w.Hour),
		UpdateTrack:     w.UpdateTrack,
		ForceSendFields: []string{"Hour"},
	}
}

func insightsConfig(in *v1alpha1.InsightsConfig) *sqladmin.InsightsConfig {
	if in == nil {
		return nil
	}
	return &sqladmin.InsightsConfig{
		QueryInsightsEnabled:  in.Enabled,
		QueryStringLength:     int64(in.QueryStringLength),
		RecordApplicationTags: in.RecordApplicationTags,
		RecordClientAddress:   in.RecordClientAddress,
	}
}

func locationPreference(zone, secondary string) *sqladmin.LocationPreference {
	if zone == "" && secondary == "" {
		return nil
	}
	return &sqladmin.LocationPreference{Zone: zone, SecondaryZone: secondary}
}

// DatabasePayloads returns one Database body per planned database.
func DatabasePayloads(plan *normalizer.Plan) []*sqladmin.Database {
	dbs := plan.DatabaseList()
	out := make([]*sqladmin.Database, 0, len(dbs))
	for _, db := range dbs {
		out = append(out, &sqladmin.Database{
			Name:      db.Name,
			Instance:  plan.Instance.Name,
			Project:   plan.Instance.Project,
			Charset:   db.Charset,
			Collation: db.Collation,
		})
	}
	return out
}

// UserPayloads returns one User body per planned user. Passwords are only set
// when secrets is non-nil: generated ones come from secrets by SecretRef and
// provided ones from the plan.
func UserPayloads(plan *normalizer.Plan, secrets map[string]string) []*sqladmin.User {
	users := plan.UserList()
	out := make([]*sqladmin.User, 0, len(users))
	for _, u := range users {
		payload := &sqladmin.User{
			Name:     u.Name,
			Host:     u.Host,
			Type:     string(u.Type),
			Instance: plan.Instance.Name,
			Project:  plan.Instance.Project,
		}
		if secrets != nil {
			switch u.PasswordPolicy {
			case normalizer.PasswordUseProvided:
				payload.Password = u.Password
			case normalizer.PasswordUseGenerated:
				payload.Password = secrets[u.SecretRef]
			}
		}
		out = append(out, payload)
	}
	return out
}
