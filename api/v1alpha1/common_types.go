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

// EngineFamily is the coarse engine category inferred from a database version
type EngineFamily string

const (
	EngineFamilyMySQL     EngineFamily = "MYSQL"
	EngineFamilyPostgres  EngineFamily = "POSTGRES"
	EngineFamilySQLServer EngineFamily = "SQLSERVER"
	EngineFamilyUnknown   EngineFamily = "UNKNOWN"
)

// AvailabilityType defines whether the instance is single-zone or regional
// +kubebuilder:validation:Enum=ZONAL;REGIONAL
type AvailabilityType string

const (
	AvailabilityZonal    AvailabilityType = "ZONAL"
	AvailabilityRegional AvailabilityType = "REGIONAL"
)

// UserType defines how a database user authenticates
// +kubebuilder:validation:Enum=BUILT_IN;CLOUD_IAM_USER;CLOUD_IAM_SERVICE_ACCOUNT
type UserType string

const (
	UserTypeBuiltIn                UserType = "BUILT_IN"
	UserTypeCloudIAMUser           UserType = "CLOUD_IAM_USER"
	UserTypeCloudIAMServiceAccount UserType = "CLOUD_IAM_SERVICE_ACCOUNT"
)

// IsIAM reports whether the user type is federated through the cloud identity system.
func (t UserType) IsIAM() bool {
	return t == UserTypeCloudIAMUser || t == UserTypeCloudIAMServiceAccount
}

// DiskType defines the data disk type
// +kubebuilder:validation:Enum=PD_SSD;PD_HDD
type DiskType string

const (
	DiskTypeSSD DiskType = "PD_SSD"
	DiskTypeHDD DiskType = "PD_HDD"
)

// Edition defines the Cloud SQL edition
// +kubebuilder:validation:Enum=ENTERPRISE;ENTERPRISE_PLUS
type Edition string

const (
	EditionEnterprise     Edition = "ENTERPRISE"
	EditionEnterprisePlus Edition = "ENTERPRISE_PLUS"
)

// SSLMode defines how client connections are secured
// +kubebuilder:validation:Enum=ALLOW_UNENCRYPTED_AND_ENCRYPTED;ENCRYPTED_ONLY;TRUSTED_CLIENT_CERTIFICATE_REQUIRED
type SSLMode string

const (
	SSLModeAllowUnencrypted SSLMode = "ALLOW_UNENCRYPTED_AND_ENCRYPTED"
	SSLModeEncryptedOnly    SSLMode = "ENCRYPTED_ONLY"
	SSLModeTrustedCert      SSLMode = "TRUSTED_CLIENT_CERTIFICATE_REQUIRED"
)

// DatabaseFlag is a single engine configuration flag
type DatabaseFlag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AuthorizedNetwork is a CIDR allowed to reach the public IP
type AuthorizedNetwork struct {
	// +optional
	Name string `json:"name,omitempty"`

	// Value is the CIDR range, e.g. 10.0.0.0/8
	Value string `json:"value"`
}
