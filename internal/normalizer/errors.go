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
	"errors"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Reason classifies a validation failure.
type Reason string

const (
	ReasonMissingNetworkPath          Reason = "MissingNetworkPath"
	ReasonUnsupportedFeatureForFamily Reason = "UnsupportedFeatureForFamily"
	ReasonInvalidFieldRange           Reason = "InvalidFieldRange"
	ReasonDuplicateFlagConflict       Reason = "DuplicateFlagConflict"
	ReasonRequired                    Reason = "Required"
	ReasonInvalid                     Reason = "Invalid"
)

// ValidationError is a single plan-time failure tied to a field path.
type ValidationError struct {
	Field   string `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Reason, e.Message)
}

func newError(path *field.Path, reason Reason, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   path.String(),
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationErrors returns every ValidationError carried by err, flattening aggregates.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	var agg utilerrors.Aggregate
	if errors.As(err, &agg) {
		var out []*ValidationError
		for _, e := range utilerrors.Flatten(agg).Errors() {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}

// IsValidationError checks if err carries at least one ValidationError
func IsValidationError(err error) bool {
	return len(ValidationErrors(err)) > 0
}

// ReasonOf returns the reason of the first ValidationError in err, or "" if there is none.
func ReasonOf(err error) Reason {
	errs := ValidationErrors(err)
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Reason
}

// HasReason checks whether any ValidationError in err has the given reason.
func HasReason(err error, reason Reason) bool {
	for _, ve := range ValidationErrors(err) {
		if ve.Reason == reason {
			return true
		}
	}
	return false
}
