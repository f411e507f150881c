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

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,96}[a-z0-9]$`)

const (
	minDiskSizeGb = 10

	minQueryStringLength = 256
	maxQueryStringLength = 4500
)

func validateName(path *field.Path, name string) error {
	if name == "" {
		return newError(path, ReasonRequired, "name is required")
	}
	if !namePattern.MatchString(name) {
		return newError(path, ReasonInvalid,
			"%q must start with a letter, contain only lowercase letters, digits and hyphens, and be at most 98 characters", name)
	}
	return nil
}

func validateDisk(path *field.Path, d DiskPlan) []error {
	var errs []error
	if d.SizeGb < minDiskSizeGb {
		errs = append(errs, newError(path.Child("sizeGb"), ReasonInvalidFieldRange,
			"must be at least %d GB, got %d", minDiskSizeGb, d.SizeGb))
	}
	switch d.Type {
	case v1alpha1.DiskTypeSSD, v1alpha1.DiskTypeHDD:
	default:
		errs = append(errs, newError(path.Child("type"), ReasonInvalid, "unknown disk type %q", d.Type))
	}
	if d.AutoresizeLimit < 0 || (d.AutoresizeLimit > 0 && d.AutoresizeLimit < d.SizeGb) {
		errs = append(errs, newError(path.Child("autoresizeLimit"), ReasonInvalidFieldRange,
			"must be 0 or at least the disk size of %d GB, got %d", d.SizeGb, d.AutoresizeLimit))
	}
	return errs
}

func validateMaintenanceWindow(path *field.Path, w *v1alpha1.MaintenanceWindow) []error {
	if w == nil {
		return nil
	}
	var errs []error
	if w.Day < 1 || w.Day > 7 {
		errs = append(errs, newError(path.Child("day"), ReasonInvalidFieldRange, "must be between 1 and 7, got %d", w.Day))
	}
	if w.Hour < 0 || w.Hour > 23 {
		errs = append(errs, newError(path.Child("hour"), ReasonInvalidFieldRange, "must be between 0 and 23, got %d", w.Hour))
	}
	switch w.UpdateTrack {
	case "", "canary", "stable", "week5":
	default:
		errs = append(errs, newError(path.Child("updateTrack"), ReasonInvalid, "unknown update track %q", w.UpdateTrack))
	}
	return errs
}

func validateInsights(path *field.Path, in *v1alpha1.InsightsConfig) []error {
	if in == nil || in.QueryStringLength == 0 {
		return nil
	}
	if in.QueryStringLength < minQueryStringLength || in.QueryStringLength > maxQueryStringLength {
		return []error{newError(path.Child("queryStringLength"), ReasonInvalidFieldRange,
			"must be between %d and %d, got %d", minQueryStringLength, maxQueryStringLength, in.QueryStringLength)}
	}
	return nil
}

func validAvailabilityType(t v1alpha1.AvailabilityType) bool {
	return t == v1alpha1.AvailabilityZonal || t == v1alpha1.AvailabilityRegional
}

func validEdition(e v1alpha1.Edition) bool {
	return e == v1alpha1.EditionEnterprise || e == v1alpha1.EditionEnterprisePlus
}

func validSSLMode(m v1alpha1.SSLMode) bool {
	switch m {
	case "", v1alpha1.SSLModeAllowUnencrypted, v1alpha1.SSLModeEncryptedOnly, v1alpha1.SSLModeTrustedCert:
		return true
	}
	return false
}
