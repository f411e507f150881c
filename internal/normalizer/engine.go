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
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/sql-instance-planner/api/v1alpha1"
)

var familyPrefixes = []struct {
	prefix string
	family v1alpha1.EngineFamily
}{
	{"MYSQL_", v1alpha1.EngineFamilyMySQL},
	{"POSTGRES_", v1alpha1.EngineFamilyPostgres},
	{"SQLSERVER_", v1alpha1.EngineFamilySQLServer},
}

// ResolveEngineFamily classifies a database version identifier such as POSTGRES_15.
// Identifiers that match no known prefix resolve to UNKNOWN.
func ResolveEngineFamily(databaseVersion string) v1alpha1.EngineFamily {
	for _, p := range familyPrefixes {
		if strings.HasPrefix(databaseVersion, p.prefix) {
			return p.family
		}
	}
	return v1alpha1.EngineFamilyUnknown
}

// EngineVersion extracts the numeric part of a database version identifier.
// MYSQL_8_0 gives 8.0, POSTGRES_15 gives 15 and SQLSERVER_2019_STANDARD gives 2019.
func EngineVersion(databaseVersion string) (*version.Version, error) {
	parts := strings.Split(databaseVersion, "_")
	if len(parts) < 2 {
		return nil, fmt.Errorf("no version in %q", databaseVersion)
	}

	var nums []string
	for _, p := range parts[1:] {
		if _, err := strconv.Atoi(p); err != nil {
			break
		}
		nums = append(nums, p)
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("no version in %q", databaseVersion)
	}
	return version.NewVersion(strings.Join(nums, "."))
}

var enterprisePlusConstraints = map[v1alpha1.EngineFamily]string{
	v1alpha1.EngineFamilyMySQL:    ">= 8.0",
	v1alpha1.EngineFamilyPostgres: ">= 12",
}

func supportsEnterprisePlus(databaseVersion string) bool {
	raw, ok := enterprisePlusConstraints[ResolveEngineFamily(databaseVersion)]
	if !ok {
		return false
	}
	v, err := EngineVersion(databaseVersion)
	if err != nil {
		return false
	}
	c, err := version.NewConstraint(raw)
	if err != nil {
		return false
	}
	return c.Check(v)
}
