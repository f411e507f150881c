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
	"regexp"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/sql-instance-planner/api/v1alpha1"
)

var startTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	minRetainedBackups = 1
	maxRetainedBackups = 365
)

// BackupInput is the backup configuration after policy defaults are applied.
type BackupInput struct {
	Family                      v1alpha1.EngineFamily
	Enabled                     bool
	StartTime                   string
	Location                    string
	PointInTimeRecovery         bool
	RetainedBackups             int32
	TransactionLogRetentionDays int32
}

// BackupPolicy is the resolved backup configuration of an instance.
type BackupPolicy struct {
	Enabled                     bool   `json:"enabled"`
	StartTime                   string `json:"startTime,omitempty"`
	Location                    string `json:"location,omitempty"`
	PointInTimeRecovery         bool   `json:"pointInTimeRecovery,omitempty"`
	BinaryLogEnabled            bool   `json:"binaryLogEnabled,omitempty"`
	RetainedBackups             int32  `json:"retainedBackups,omitempty"`
	TransactionLogRetentionDays int32  `json:"transactionLogRetentionDays,omitempty"`
}

// DeriveBackupPolicy resolves the backup policy. A disabled policy carries no
// dependent settings. Point-in-time recovery maps to the binary log on families
// that implement it that way.
func DeriveBackupPolicy(in BackupInput) BackupPolicy {
	if !in.Enabled {
		return BackupPolicy{}
	}

	out := BackupPolicy{
		Enabled:                     true,
		StartTime:                   in.StartTime,
		Location:                    in.Location,
		RetainedBackups:             in.RetainedBackups,
		TransactionLogRetentionDays: in.TransactionLogRetentionDays,
	}
	if GetFamilyRules(in.Family).PITRUsesBinaryLog() {
		out.BinaryLogEnabled = in.PointInTimeRecovery
	} else {
		out.PointInTimeRecovery = in.PointInTimeRecovery
	}
	return out
}

// ValidateBackup checks the ranges of an enabled backup policy.
func ValidateBackup(path *field.Path, family v1alpha1.EngineFamily, p BackupPolicy) []error {
	if !p.Enabled {
		return nil
	}

	var errs []error
	if p.StartTime != "" && !startTimePattern.MatchString(p.StartTime) {
		errs = append(errs, newError(path.Child("startTime"), ReasonInvalid,
			"%q is not a HH:MM time", p.StartTime))
	}
	if p.RetainedBackups != 0 && (p.RetainedBackups < minRetainedBackups || p.RetainedBackups > maxRetainedBackups) {
		errs = append(errs, newError(path.Child("retainedBackups"), ReasonInvalidFieldRange,
			"must be between %d and %d, got %d", minRetainedBackups, maxRetainedBackups, p.RetainedBackups))
	}

	maxDays := GetFamilyRules(family).MaxTransactionLogRetentionDays()
	if p.TransactionLogRetentionDays != 0 && (p.TransactionLogRetentionDays < 1 || p.TransactionLogRetentionDays > maxDays) {
		errs = append(errs, newError(path.Child("transactionLogRetentionDays"), ReasonInvalidFieldRange,
			"must be between 1 and %d for %s, got %d", maxDays, family, p.TransactionLogRetentionDays))
	}
	return errs
}
