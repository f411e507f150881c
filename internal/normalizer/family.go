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
	"strings"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// FamilyRules captures what differs between engine families when building a plan.
type FamilyRules interface {
	Family() v1alpha1.EngineFamily

	// IAMAuthFlagName is the flag that turns on IAM authentication, or "" if the family has none
	IAMAuthFlagName() string

	// SupportsCharset reports whether databases accept charset and collation
	SupportsCharset() bool

	// SupportsUserHost reports whether BUILT_IN users accept a host restriction
	SupportsUserHost() bool

	SupportsRootPassword() bool

	// IAMUserName returns the in-database name of an IAM principal
	IAMUserName(name string, userType v1alpha1.UserType) string

	MaxTransactionLogRetentionDays() int32

	// PITRUsesBinaryLog reports whether point-in-time recovery is expressed through the binary log
	PITRUsesBinaryLog() bool
}

// GetFamilyRules returns the rules for an engine family.
// UNKNOWN gets rules that suppress nothing.
func GetFamilyRules(family v1alpha1.EngineFamily) FamilyRules {
	switch family {
	case v1alpha1.EngineFamilyMySQL:
		return &mysqlRules{}
	case v1alpha1.EngineFamilyPostgres:
		return &postgresRules{}
	case v1alpha1.EngineFamilySQLServer:
		return &sqlserverRules{}
	default:
		return &unknownRules{}
	}
}

type mysqlRules struct{}

func (mysqlRules) Family() v1alpha1.EngineFamily         { return v1alpha1.EngineFamilyMySQL }
func (mysqlRules) IAMAuthFlagName() string               { return "cloudsql_iam_authentication" }
func (mysqlRules) SupportsCharset() bool                 { return true }
func (mysqlRules) SupportsUserHost() bool                { return true }
func (mysqlRules) SupportsRootPassword() bool            { return false }
func (mysqlRules) MaxTransactionLogRetentionDays() int32 { return 35 }
func (mysqlRules) PITRUsesBinaryLog() bool               { return true }

// IAMUserName truncates at "@", which is how Cloud SQL for MySQL names IAM users.
func (mysqlRules) IAMUserName(name string, userType v1alpha1.UserType) string {
	if !userType.IsIAM() {
		return name
	}
	if i := strings.Index(name, "@"); i > 0 {
		return name[:i]
	}
	return name
}

type postgresRules struct{}

func (postgresRules) Family() v1alpha1.EngineFamily         { return v1alpha1.EngineFamilyPostgres }
func (postgresRules) IAMAuthFlagName() string               { return "cloudsql.iam_authentication" }
func (postgresRules) SupportsCharset() bool                 { return true }
func (postgresRules) SupportsUserHost() bool                { return false }
func (postgresRules) SupportsRootPassword() bool            { return false }
func (postgresRules) MaxTransactionLogRetentionDays() int32 { return 7 }
func (postgresRules) PITRUsesBinaryLog() bool               { return false }

func (postgresRules) IAMUserName(name string, userType v1alpha1.UserType) string {
	if userType == v1alpha1.UserTypeCloudIAMServiceAccount {
		return strings.TrimSuffix(name, ".gserviceaccount.com")
	}
	return name
}

type sqlserverRules struct{}

func (sqlserverRules) Family() v1alpha1.EngineFamily         { return v1alpha1.EngineFamilySQLServer }
func (sqlserverRules) IAMAuthFlagName() string               { return "" }
func (sqlserverRules) SupportsCharset() bool                 { return false }
func (sqlserverRules) SupportsUserHost() bool                { return false }
func (sqlserverRules) SupportsRootPassword() bool            { return true }
func (sqlserverRules) MaxTransactionLogRetentionDays() int32 { return 7 }
func (sqlserverRules) PITRUsesBinaryLog() bool               { return false }

func (sqlserverRules) IAMUserName(name string, _ v1alpha1.UserType) string { return name }

type unknownRules struct{}

func (unknownRules) Family() v1alpha1.EngineFamily         { return v1alpha1.EngineFamilyUnknown }
func (unknownRules) IAMAuthFlagName() string               { return "" }
func (unknownRules) SupportsCharset() bool                 { return true }
func (unknownRules) SupportsUserHost() bool                { return true }
func (unknownRules) SupportsRootPassword() bool            { return true }
func (unknownRules) MaxTransactionLogRetentionDays() int32 { return 35 }
func (unknownRules) PITRUsesBinaryLog() bool               { return false }

func (unknownRules) IAMUserName(name string, _ v1alpha1.UserType) string { return name }
