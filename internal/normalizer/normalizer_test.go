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
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/sql-instance-planner/api/v1alpha1"
)

func newTestNormalizer(t *testing.T, policy v1alpha1.PlanPolicySpec) *Normalizer {
	t.Helper()
	n, err := New(Options{
		Project:    "acme",
		Policy:     policy,
		NameSource: func() string { return "a1b2c3d4" },
	})
	require.NoError(t, err)
	return n
}

func instance(name string, spec v1alpha1.SQLInstanceSpec) *v1alpha1.SQLInstance {
	return &v1alpha1.SQLInstance{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec:       spec,
	}
}

func TestAssemblePlan_PostgresWithIAM(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("orders", v1alpha1.SQLInstanceSpec{
		DatabaseVersion:   "POSTGRES_15",
		IAMAuthentication: true,
		IPConfiguration:   &v1alpha1.IPConfiguration{IPv4Enabled: ptr.To(true)},
		Users:             []v1alpha1.UserSpec{{Name: "app", Type: v1alpha1.UserTypeBuiltIn}},
	}))
	require.NoError(t, err)

	assert.Equal(t, []v1alpha1.DatabaseFlag{{Name: "cloudsql.iam_authentication", Value: "On"}}, plan.Flags)
	assert.Equal(t, NetworkModePublic, plan.Instance.Network.Mode)

	user, ok := plan.Users.Get("app")
	require.True(t, ok)
	assert.Equal(t, PasswordUseGenerated, user.PasswordPolicy)
	assert.Equal(t, "orders-app-password", user.SecretRef)

	want := InstancePlan{
		Project:            "acme",
		Name:               "orders",
		Region:             "us-central1",
		DatabaseVersion:    "POSTGRES_15",
		Family:             v1alpha1.EngineFamilyPostgres,
		Edition:            v1alpha1.EditionEnterprise,
		Tier:               "db-custom-2-7680",
		Disk:               DiskPlan{SizeGb: 10, Type: v1alpha1.DiskTypeSSD, Autoresize: true},
		AvailabilityType:   v1alpha1.AvailabilityZonal,
		DeletionProtection: true,
		Network:            NetworkPlan{Mode: NetworkModePublic, IPv4Enabled: true},
		Backup: BackupPolicy{
			Enabled:                     true,
			StartTime:                   "03:00",
			RetainedBackups:             7,
			TransactionLogRetentionDays: 7,
		},
	}
	if diff := cmp.Diff(want, plan.Instance); diff != "" {
		t.Errorf("instance mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, plan.SecretRequests, 1)
	assert.Equal(t, SecretRequest{
		Name:        "orders-app-password",
		For:         "user/app",
		Length:      32,
		Digits:      8,
		AllowRepeat: true,
	}, plan.SecretRequests[0])
	assert.Equal(t, PresetDefault, plan.Policy)
}

func TestAssemblePlan_CollectsAllErrors(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("Bad_Name", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "POSTGRES_15",
		IPConfiguration: &v1alpha1.IPConfiguration{IPv4Enabled: ptr.To(false)},
		Disk:            &v1alpha1.DiskConfig{SizeGb: 5},
		Backup:          &v1alpha1.BackupConfig{RetainedBackups: 400},
		DatabaseFlags: []v1alpha1.DatabaseFlag{
			{Name: "max_connections", Value: "100"},
			{Name: "max_connections", Value: "200"},
		},
	}))
	require.Error(t, err)
	assert.Nil(t, plan)

	got := map[string]Reason{}
	for _, ve := range ValidationErrors(err) {
		got[ve.Field] = ve.Reason
	}
	assert.Equal(t, map[string]Reason{
		"spec.name":                   ReasonInvalid,
		"spec.ipConfiguration":        ReasonMissingNetworkPath,
		"spec.disk.sizeGb":            ReasonInvalidFieldRange,
		"spec.backup.retainedBackups": ReasonInvalidFieldRange,
		"spec.databaseFlags[1]":       ReasonDuplicateFlagConflict,
	}, got)
}

func TestAssemblePlan_UnsupportedFields(t *testing.T) {
	spec := v1alpha1.SQLInstanceSpec{
		DatabaseVersion:   "SQLSERVER_2019_STANDARD",
		IAMAuthentication: true,
		RootPassword:      "",
		Databases:         []v1alpha1.DatabaseSpec{{Name: "sales", Charset: "UTF8", Collation: "en_US.UTF8"}},
		Users:             []v1alpha1.UserSpec{{Name: "report", Host: "%"}},
	}

	t.Run("Drop records warnings", func(t *testing.T) {
		n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})
		plan, err := n.AssemblePlan(instance("erp", spec))
		require.NoError(t, err)

		db, _ := plan.Databases.Get("sales")
		assert.Equal(t, DatabasePlan{Name: "sales"}, db)
		u, _ := plan.Users.Get("report")
		assert.Empty(t, u.Host)
		assert.Empty(t, plan.Flags)

		fields := map[string]bool{}
		for _, w := range plan.Warnings {
			fields[w.Field] = true
		}
		assert.True(t, fields["spec.iamAuthentication"])
		assert.True(t, fields["spec.databases[0].charset"])
		assert.True(t, fields["spec.databases[0].collation"])
		assert.True(t, fields["spec.users[0].host"])
	})

	t.Run("Reject fails", func(t *testing.T) {
		n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{UnsupportedFields: v1alpha1.FieldPolicyReject})
		_, err := n.AssemblePlan(instance("erp", spec))
		require.Error(t, err)
		errs := ValidationErrors(err)
		assert.Len(t, errs, 4)
		for _, ve := range errs {
			assert.Equal(t, ReasonUnsupportedFeatureForFamily, ve.Reason, ve.Field)
		}
	})
}

func TestAssemblePlan_SQLServerRootPassword(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("erp", v1alpha1.SQLInstanceSpec{DatabaseVersion: "SQLSERVER_2022_STANDARD"}))
	require.NoError(t, err)
	assert.Equal(t, PasswordUseGenerated, plan.Instance.RootPasswordPolicy)
	req, ok := plan.SecretRequest("erp-root-password")
	require.True(t, ok)
	assert.Equal(t, "root", req.For)

	plan, err = n.AssemblePlan(instance("erp", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "SQLSERVER_2022_STANDARD",
		RootPassword:    "Sup3r-secret",
	}))
	require.NoError(t, err)
	assert.Equal(t, PasswordUseProvided, plan.Instance.RootPasswordPolicy)
	assert.Empty(t, plan.SecretRequests)

	_, err = newTestNormalizer(t, v1alpha1.PlanPolicySpec{UnsupportedFields: v1alpha1.FieldPolicyReject}).
		AssemblePlan(instance("shop", v1alpha1.SQLInstanceSpec{DatabaseVersion: "MYSQL_8_0", RootPassword: "x"}))
	require.Error(t, err)
	assert.Equal(t, "spec.rootPassword", ValidationErrors(err)[0].Field)
}

func TestAssemblePlan_DuplicatesLastWriteWins(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("shop", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "MYSQL_8_0",
		Databases: []v1alpha1.DatabaseSpec{
			{Name: "catalog", Charset: "latin1"},
			{Name: "orders"},
			{Name: "catalog", Charset: "utf8mb4"},
		},
		Users: []v1alpha1.UserSpec{
			{Name: "app", Password: "first"},
			{Name: "app"},
		},
		ReadReplicas: []v1alpha1.ReplicaSpec{
			{Key: "ro", Tier: "db-custom-1-3840"},
			{Key: "ro", Tier: "db-custom-2-7680"},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"catalog", "orders"}, names(plan.DatabaseList(), func(d DatabasePlan) string { return d.Name }))
	db, _ := plan.Databases.Get("catalog")
	assert.Equal(t, "utf8mb4", db.Charset)

	u, _ := plan.Users.Get("app")
	assert.Equal(t, PasswordUseGenerated, u.PasswordPolicy)
	assert.Len(t, plan.SecretRequests, 1)

	require.Equal(t, 1, plan.Replicas.Len())
	r, _ := plan.Replicas.Get("ro")
	assert.Equal(t, "db-custom-2-7680", r.Tier)
	assert.Equal(t, "shop-replicaro", r.Name)

	var dupWarnings int
	for _, w := range plan.Warnings {
		if w.Field == "spec.databases[2]" || w.Field == "spec.users[1]" || w.Field == "spec.readReplicas[ro]" {
			dupWarnings++
		}
	}
	assert.Equal(t, 3, dupWarnings)
}

func TestAssemblePlan_MySQLUsersCollapseAcrossHosts(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("shop", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "MYSQL_8_0",
		Users: []v1alpha1.UserSpec{
			{Name: "app", Host: "10.0.0.%", Password: "internal"},
			{Name: "app", Host: "%", Password: "anywhere"},
		},
	}))
	require.NoError(t, err)

	require.Equal(t, 1, plan.Users.Len())
	u, _ := plan.Users.Get("app")
	assert.Equal(t, "%", u.Host)
	assert.Equal(t, "anywhere", u.Password)

	var found bool
	for _, w := range plan.Warnings {
		if w.Field == "spec.users[1]" {
			found = true
			assert.Contains(t, w.Message, `host "%" replaces host "10.0.0.%"`)
		}
	}
	assert.True(t, found, "expected a duplicate warning for spec.users[1]")
}

func TestAssemblePlan_ReplicaNameCollisions(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("orders", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "POSTGRES_15",
		ReadReplicas: []v1alpha1.ReplicaSpec{
			{Key: "a", Name: "orders-ro", Tier: "db-custom-1-3840"},
			{Key: "b", Name: "orders-ro", Tier: "db-custom-1-3840"},
			{Key: "c", Name: "orders", Tier: "db-custom-1-3840"},
		},
	}))
	require.Error(t, err)
	assert.Nil(t, plan)

	got := map[string]Reason{}
	for _, ve := range ValidationErrors(err) {
		got[ve.Field] = ve.Reason
	}
	assert.Equal(t, map[string]Reason{
		"spec.readReplicas[b].name": ReasonInvalid,
		"spec.readReplicas[c].name": ReasonInvalid,
	}, got)
}

func TestAssemblePlan_DistinctReplicaNames(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("orders", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "POSTGRES_15",
		ReadReplicas: []v1alpha1.ReplicaSpec{
			{Key: "a", Tier: "db-custom-1-3840"},
			{Key: "b", Name: "orders-reporting", Tier: "db-custom-1-3840"},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"orders-replicaa", "orders-reporting"},
		names(plan.ReplicaList(), func(r ReplicaPlan) string { return r.Name }))
}

func TestAssemblePlan_DefaultsAndNaming(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("shop", v1alpha1.SQLInstanceSpec{
		DatabaseVersion:       "MYSQL_8_0",
		RandomInstanceName:    true,
		EnableDefaultDatabase: true,
		EnableDefaultUser:     true,
		DefaultUserName:       "admin",
		IAMAuthentication:     true,
		Users: []v1alpha1.UserSpec{
			{Name: "jane@example.com", Type: v1alpha1.UserTypeCloudIAMUser},
		},
		ReadReplicas:          []v1alpha1.ReplicaSpec{{Tier: "db-custom-1-3840"}},
		ReadReplicaNameSuffix: "-",
	}))
	require.NoError(t, err)

	assert.Equal(t, "shop-a1b2c3d4", plan.Instance.Name)
	_, ok := plan.Databases.Get("default")
	assert.True(t, ok)

	admin, ok := plan.Users.Get("admin")
	require.True(t, ok)
	assert.Equal(t, PasswordUseGenerated, admin.PasswordPolicy)

	jane, ok := plan.Users.Get("jane")
	require.True(t, ok)
	assert.Equal(t, PasswordNone, jane.PasswordPolicy)

	r, ok := plan.Replicas.Get("0")
	require.True(t, ok)
	assert.Equal(t, "shop-a1b2c3d4-replica-0", r.Name)
	assert.Equal(t, "shop-a1b2c3d4", r.MasterInstanceName)
	assert.Equal(t, []v1alpha1.DatabaseFlag{{Name: "cloudsql_iam_authentication", Value: "On"}}, r.Flags)
}

func TestAssemblePlan_SecurePreset(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{Preset: PresetSecure})

	_, err := n.AssemblePlan(instance("vault", v1alpha1.SQLInstanceSpec{DatabaseVersion: "POSTGRES_16"}))
	require.Error(t, err)
	assert.Equal(t, ReasonMissingNetworkPath, ReasonOf(err))

	plan, err := n.AssemblePlan(instance("vault", v1alpha1.SQLInstanceSpec{
		DatabaseVersion:    "POSTGRES_16",
		Edition:            v1alpha1.EditionEnterprisePlus,
		DeletionProtection: ptr.To(false),
		IPConfiguration:    &v1alpha1.IPConfiguration{PrivateNetwork: "projects/acme/global/networks/vpc"},
	}))
	require.NoError(t, err)
	assert.True(t, plan.Instance.DeletionProtection)
	assert.Equal(t, NetworkModePrivate, plan.Instance.Network.Mode)
	assert.Equal(t, v1alpha1.SSLModeEncryptedOnly, plan.Instance.Network.SSLMode)
	assert.True(t, plan.Instance.Backup.PointInTimeRecovery)
	assert.Equal(t, v1alpha1.AvailabilityRegional, plan.Instance.AvailabilityType)
}

func TestAssemblePlan_EnterprisePlusGate(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	_, err := n.AssemblePlan(instance("legacy", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "MYSQL_5_7",
		Edition:         v1alpha1.EditionEnterprisePlus,
	}))
	require.Error(t, err)
	assert.Equal(t, ReasonUnsupportedFeatureForFamily, ReasonOf(err))
	assert.Equal(t, "spec.edition", ValidationErrors(err)[0].Field)
}

func TestAssemblePlan_UnknownFamily(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{UnsupportedFields: v1alpha1.FieldPolicyReject})

	plan, err := n.AssemblePlan(instance("future", v1alpha1.SQLInstanceSpec{
		DatabaseVersion:   "ORACLE_19",
		IAMAuthentication: true,
		Databases:         []v1alpha1.DatabaseSpec{{Name: "app", Charset: "AL32UTF8"}},
	}))
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.EngineFamilyUnknown, plan.Instance.Family)
	assert.Empty(t, plan.Flags)
	db, _ := plan.Databases.Get("app")
	assert.Equal(t, "AL32UTF8", db.Charset)
}

func TestPlan_JSONOmitsSecretValues(t *testing.T) {
	n := newTestNormalizer(t, v1alpha1.PlanPolicySpec{})

	plan, err := n.AssemblePlan(instance("erp", v1alpha1.SQLInstanceSpec{
		DatabaseVersion: "SQLSERVER_2022_STANDARD",
		RootPassword:    "root-value",
		Users:           []v1alpha1.UserSpec{{Name: "app", Password: "user-value"}},
	}))
	require.NoError(t, err)

	raw, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "root-value")
	assert.NotContains(t, string(raw), "user-value")

	var back Plan
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []string{"app"}, names(back.UserList(), func(u UserPlan) string { return u.Name }))
}

func TestNew_InvalidPolicy(t *testing.T) {
	_, err := New(Options{Policy: v1alpha1.PlanPolicySpec{Preset: "nope"}})
	require.Error(t, err)
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}
