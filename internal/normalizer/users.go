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
	"github.com/sql-instance-planner/api/v1alpha1"
)

// PasswordPolicy says where a user's password comes from.
type PasswordPolicy string

const (
	// PasswordNone is used for IAM users, which authenticate without a password
	PasswordNone PasswordPolicy = "none"
	// PasswordUseProvided keeps the password given in the configuration
	PasswordUseProvided PasswordPolicy = "useProvided"
	// PasswordUseGenerated asks the secret generator for a new password
	PasswordUseGenerated PasswordPolicy = "useGenerated"
)

// DerivePasswordPolicy returns the password policy for a user.
func DerivePasswordPolicy(u v1alpha1.UserSpec) PasswordPolicy {
	if userType(u).IsIAM() {
		return PasswordNone
	}
	if u.Password != "" {
		return PasswordUseProvided
	}
	return PasswordUseGenerated
}

func userType(u v1alpha1.UserSpec) v1alpha1.UserType {
	if u.Type == "" {
		return v1alpha1.UserTypeBuiltIn
	}
	return u.Type
}

func validUserType(t v1alpha1.UserType) bool {
	switch t {
	case v1alpha1.UserTypeBuiltIn, v1alpha1.UserTypeCloudIAMUser, v1alpha1.UserTypeCloudIAMServiceAccount:
		return true
	}
	return false
}

// UserPlan is a resolved database user. Password never leaves the process.
type UserPlan struct {
	Name           string            `json:"name"`
	Type           v1alpha1.UserType `json:"type"`
	Host           string            `json:"host,omitempty"`
	PasswordPolicy PasswordPolicy    `json:"passwordPolicy"`
	Password       string            `json:"-"`
	// SecretRef names the SecretRequest that supplies a generated password
	SecretRef string `json:"secretRef,omitempty"`
}
