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
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// IAMAuthFlagValue is the value of the derived IAM authentication flag
const IAMAuthFlagValue = "On"

// DeriveIAMAuthFlag returns the flag that enables IAM authentication for the family.
// It returns nil when IAM is disabled or the family has no such flag.
func DeriveIAMAuthFlag(family v1alpha1.EngineFamily, enabled bool) *v1alpha1.DatabaseFlag {
	if !enabled {
		return nil
	}
	name := GetFamilyRules(family).IAMAuthFlagName()
	if name == "" {
		return nil
	}
	return &v1alpha1.DatabaseFlag{Name: name, Value: IAMAuthFlagValue}
}

// MergeFlags combines caller flags with derived flags. Derived flags only fill gaps,
// so a caller flag with the same name always wins. Merging twice gives the same result.
func MergeFlags(user []v1alpha1.DatabaseFlag, derived ...*v1alpha1.DatabaseFlag) []v1alpha1.DatabaseFlag {
	seen := make(map[string]struct{}, len(user)+len(derived))
	out := make([]v1alpha1.DatabaseFlag, 0, len(user)+len(derived))

	for _, f := range user {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, f)
	}
	for _, f := range derived {
		if f == nil {
			continue
		}
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, *f)
	}
	return out
}

// flagPointers adapts a resolved flag list for use as derived input to MergeFlags.
func flagPointers(flags []v1alpha1.DatabaseFlag) []*v1alpha1.DatabaseFlag {
	out := make([]*v1alpha1.DatabaseFlag, len(flags))
	for i := range flags {
		out[i] = &flags[i]
	}
	return out
}

// validateFlags collapses identical duplicates and reports conflicting ones.
func validateFlags(path *field.Path, flags []v1alpha1.DatabaseFlag) ([]v1alpha1.DatabaseFlag, []error, []Warning) {
	var errs []error
	var warnings []Warning

	first := make(map[string]int, len(flags))
	out := make([]v1alpha1.DatabaseFlag, 0, len(flags))

	for i, f := range flags {
		p := path.Index(i)
		if f.Name == "" {
			errs = append(errs, newError(p.Child("name"), ReasonRequired, "flag name is required"))
			continue
		}

		idx, ok := first[f.Name]
		if !ok {
			first[f.Name] = len(out)
			out = append(out, f)
			continue
		}
		if out[idx].Value != f.Value {
			errs = append(errs, newError(p, ReasonDuplicateFlagConflict,
				"flag %q is set to both %q and %q", f.Name, out[idx].Value, f.Value))
			continue
		}
		warnings = append(warnings, Warning{
			Field:   p.String(),
			Message: "duplicate flag " + f.Name + " collapsed",
		})
	}
	return out, errs, warnings
}
