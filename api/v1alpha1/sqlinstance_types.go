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

// SQLInstanceSpec is the raw, user-supplied configuration of a managed SQL instance
// together with its databases, users and read replicas.
type SQLInstanceSpec struct {
	// Project is the cloud project. When empty the value injected by the caller is used.
	// +optional
	Project string `json:"project,omitempty"`

	// Name is the instance name. Defaults to metadata.name.
	// +kubebuilder:validation:Pattern=`^[a-z][a-z0-9-]{0,96}[a-z0-9]$`
	Name string `json:"name,omitempty"`

	// +optional
	Region string `json:"region,omitempty"`

	// Zone is the preferred zone of a ZONAL instance
	// +optional
	Zone string `json:"zone,omitempty"`

	// +optional
	SecondaryZone string `json:"secondaryZone,omitempty"`

	// DatabaseVersion is the engine identifier, e.g. POSTGRES_15 or MYSQL_8_0
	// +kubebuilder:validation:Required
	DatabaseVersion string `json:"databaseVersion"`

	// +optional
	Edition Edition `json:"edition,omitempty"`

	// Tier is the machine type, e.g. db-custom-2-7680
	// +optional
	Tier string `json:"tier,omitempty"`

	// +optional
	Disk *DiskConfig `json:"disk,omitempty"`

	// +optional
	AvailabilityType AvailabilityType `json:"availabilityType,omitempty"`

	// EncryptionKeyName is a KMS key used for customer-managed encryption
	// +optional
	EncryptionKeyName string `json:"encryptionKeyName,omitempty"`

	// +optional
	DeletionProtection *bool `json:"deletionProtection,omitempty"`

	// RandomInstanceName appends a random suffix to the instance name
	// +optional
	RandomInstanceName bool `json:"randomInstanceName,omitempty"`

	// +optional
	IPConfiguration *IPConfiguration `json:"ipConfiguration,omitempty"`

	// +optional
	Backup *BackupConfig `json:"backup,omitempty"`

	// +optional
	MaintenanceWindow *MaintenanceWindow `json:"maintenanceWindow,omitempty"`

	// +optional
	Insights *InsightsConfig `json:"insights,omitempty"`

	// +optional
	UserLabels map[string]string `json:"userLabels,omitempty"`

	// DatabaseFlags are passed through to the engine. Caller values always win
	// over derived flags of the same name.
	// +optional
	DatabaseFlags []DatabaseFlag `json:"databaseFlags,omitempty"`

	// IAMAuthentication enables IAM database authentication
	// +optional
	IAMAuthentication bool `json:"iamAuthentication,omitempty"`

	// RootPassword is only honoured for SQLSERVER
	// +optional
	RootPassword string `json:"rootPassword,omitempty"`

	// +optional
	EnableDefaultDatabase bool `json:"enableDefaultDatabase,omitempty"`

	// +kubebuilder:default=default
	DefaultDatabaseName string `json:"defaultDatabaseName,omitempty"`

	// +optional
	EnableDefaultUser bool `json:"enableDefaultUser,omitempty"`

	// +kubebuilder:default=default
	DefaultUserName string `json:"defaultUserName,omitempty"`

	// +optional
	Databases []DatabaseSpec `json:"databases,omitempty"`

	// +optional
	Users []UserSpec `json:"users,omitempty"`

	// +optional
	ReadReplicas []ReplicaSpec `json:"readReplicas,omitempty"`

	// ReadReplicaNameSuffix is inserted between "-replica" and the replica key
	// +optional
	ReadReplicaNameSuffix string `json:"readReplicaNameSuffix,omitempty"`
}

// DiskConfig defines data disk sizing
type DiskConfig struct {
	// +kubebuilder:validation:Minimum=10
	SizeGb int64 `json:"sizeGb,omitempty"`

	// +optional
	Type DiskType `json:"type,omitempty"`

	// +optional
	Autoresize *bool `json:"autoresize,omitempty"`

	// AutoresizeLimit caps automatic growth in GB, 0 means unlimited
	// +optional
	AutoresizeLimit int64 `json:"autoresizeLimit,omitempty"`
}

// IPConfiguration defines how the instance is reached
type IPConfiguration struct {
	// +optional
	IPv4Enabled *bool `json:"ipv4Enabled,omitempty"`

	// PrivateNetwork is the VPC self link used for private IP
	// +optional
	PrivateNetwork string `json:"privateNetwork,omitempty"`

	// +optional
	AllocatedIPRange string `json:"allocatedIpRange,omitempty"`

	// +optional
	SSLMode SSLMode `json:"sslMode,omitempty"`

	// +optional
	AuthorizedNetworks []AuthorizedNetwork `json:"authorizedNetworks,omitempty"`
}

// BackupConfig defines the automated backup policy
type BackupConfig struct {
	// +optional
	Enabled *bool `json:"enabled,omitempty"`

	// StartTime is HH:MM in UTC
	// +optional
	StartTime string `json:"startTime,omitempty"`

	// +optional
	Location string `json:"location,omitempty"`

	// +optional
	PointInTimeRecovery *bool `json:"pointInTimeRecovery,omitempty"`

	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=365
	RetainedBackups int32 `json:"retainedBackups,omitempty"`

	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=35
	TransactionLogRetentionDays int32 `json:"transactionLogRetentionDays,omitempty"`
}

// MaintenanceWindow defines when disruptive updates may happen
type MaintenanceWindow struct {
	// Day of week, 1 (Monday) to 7 (Sunday)
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=7
	Day int32 `json:"day"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=23
	Hour int32 `json:"hour"`

	// +kubebuilder:validation:Enum=canary;stable;week5
	UpdateTrack string `json:"updateTrack,omitempty"`
}

// InsightsConfig configures Query Insights
type InsightsConfig struct {
	Enabled bool `json:"enabled,omitempty"`

	// +kubebuilder:validation:Minimum=256
	// +kubebuilder:validation:Maximum=4500
	QueryStringLength int32 `json:"queryStringLength,omitempty"`

	RecordApplicationTags bool `json:"recordApplicationTags,omitempty"`
	RecordClientAddress   bool `json:"recordClientAddress,omitempty"`
}

// DatabaseSpec defines a logical database on the instance
type DatabaseSpec struct {
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// Charset is ignored or rejected for SQLSERVER depending on policy
	// +optional
	Charset string `json:"charset,omitempty"`

	// +optional
	Collation string `json:"collation,omitempty"`
}

// UserSpec defines a database user
type UserSpec struct {
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// +kubebuilder:default=BUILT_IN
	Type UserType `json:"type,omitempty"`

	// Password applies to BUILT_IN users only. When empty one is generated.
	// +optional
	Password string `json:"password,omitempty"`

	// Host restricts where a BUILT_IN MySQL user may connect from
	// +optional
	Host string `json:"host,omitempty"`
}

// ReplicaSpec defines a read replica. Omitted fields inherit from the primary,
// except Tier which follows the PlanPolicy replica tier rule.
type ReplicaSpec struct {
	// Key identifies the replica in the plan. Defaults to its list index.
	// +optional
	Key string `json:"key,omitempty"`

	// Name overrides the derived <primary>-replica<suffix><key> name
	// +optional
	Name string `json:"name,omitempty"`

	// +optional
	Tier string `json:"tier,omitempty"`

	// Zone is honoured only when the primary is ZONAL
	// +optional
	Zone string `json:"zone,omitempty"`

	// +optional
	Disk *DiskConfig `json:"disk,omitempty"`

	// +optional
	IPConfiguration *IPConfiguration `json:"ipConfiguration,omitempty"`

	// +optional
	EncryptionKeyName string `json:"encryptionKeyName,omitempty"`

	// +optional
	UserLabels map[string]string `json:"userLabels,omitempty"`

	// +optional
	DatabaseFlags []DatabaseFlag `json:"databaseFlags,omitempty"`
}

// SQLInstance is the input document for a single planned instance.
type SQLInstance struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec SQLInstanceSpec `json:"spec"`
}

// InstanceName returns spec.name, falling back to metadata.name.
func (in *SQLInstance) InstanceName() string {
	if in.Spec.Name != "" {
		return in.Spec.Name
	}
	return in.Name
}
