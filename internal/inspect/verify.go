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

package inspect

import (
	"context"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/sql-instance-planner/internal/metrics"
	"github.com/sql-instance-planner/internal/normalizer"
)

// VerifyReport compares the databases and users of a plan with a live instance.
// Missing objects are planned but absent, unmanaged ones exist but are not planned.
type VerifyReport struct {
	Instance           string    `json:"instance"`
	Family             string    `json:"family"`
	CheckedAt          time.Time `json:"checkedAt"`
	MissingDatabases   []string  `json:"missingDatabases,omitempty"`
	MissingUsers       []string  `json:"missingUsers,omitempty"`
	UnmanagedDatabases []string  `json:"unmanagedDatabases,omitempty"`
	UnmanagedUsers     []string  `json:"unmanagedUsers,omitempty"`
}

// InSync reports whether nothing is missing. Unmanaged objects do not count.
func (r *VerifyReport) InSync() bool {
	return len(r.MissingDatabases) == 0 && len(r.MissingUsers) == 0
}

// MissingCount is the number of planned objects absent from the instance
func (r *VerifyReport) MissingCount() int {
	return len(r.MissingDatabases) + len(r.MissingUsers)
}

// UnmanagedCount is the number of objects the plan does not know about
func (r *VerifyReport) UnmanagedCount() int {
	return len(r.UnmanagedDatabases) + len(r.UnmanagedUsers)
}

// Verify lists the live databases and users and diffs them against the plan.
// Users are matched by their normalized plan names.
func Verify(ctx context.Context, plan *normalizer.Plan, inspector Inspector) (*VerifyReport, error) {
	family := string(plan.Instance.Family)
	log := logr.FromContextOrDiscard(ctx).WithValues("instance", plan.Instance.Name, "family", family)

	databases, err := inspector.ListDatabases(ctx)
	if err != nil {
		metrics.RecordVerifyRun(family, metrics.StatusFailure)
		return nil, err
	}
	users, err := inspector.ListUsers(ctx)
	if err != nil {
		metrics.RecordVerifyRun(family, metrics.StatusFailure)
		return nil, err
	}

	planned := make([]string, 0, plan.Databases.Len())
	for _, db := range plan.DatabaseList() {
		planned = append(planned, db.Name)
	}
	plannedUsers := make([]string, 0, plan.Users.Len())
	for _, u := range plan.UserList() {
		plannedUsers = append(plannedUsers, u.Name)
	}

	report := &VerifyReport{
		Instance:           plan.Instance.Name,
		Family:             family,
		CheckedAt:          time.Now().UTC(),
		MissingDatabases:   difference(planned, databases),
		MissingUsers:       difference(plannedUsers, users),
		UnmanagedDatabases: difference(databases, planned),
		UnmanagedUsers:     difference(users, plannedUsers),
	}

	metrics.RecordVerifyRun(family, metrics.StatusSuccess)
	metrics.SetVerifyDrift(report.MissingCount(), report.UnmanagedCount())
	log.Info("verified instance",
		"missing", report.MissingCount(),
		"unmanaged", report.UnmanagedCount(),
		"inSync", report.InSync())
	return report, nil
}

// difference returns the sorted members of a that are not in b
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		seen[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
