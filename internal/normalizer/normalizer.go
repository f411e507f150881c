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
	"maps"
	"strconv"

	"github.com/go-logr/logr"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"

	"github.com/sql-instance-planner/api/v1alpha1"
)

const defaultObjectName = "default"

// Options configures a Normalizer.
type Options struct {
	// Project is used when the instance does not name one
	Project string

	// Policy is overlaid on the preset it names
	Policy v1alpha1.PlanPolicySpec

	// NameSource returns the random suffix for randomInstanceName
	NameSource func() string

	Logger logr.Logger
}

// Normalizer turns raw instance configuration into a Plan. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	project    string
	policy     v1alpha1.PlanPolicySpec
	nameSource func() string
	log        logr.Logger
}

// New creates a Normalizer, resolving opts.Policy against its preset.
func New(opts Options) (*Normalizer, error) {
	policy, err := ResolvePolicy(opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	nameSource := opts.NameSource
	if nameSource == nil {
		nameSource = func() string { return "" }
	}

	return &Normalizer{
		project:    opts.Project,
		policy:     policy,
		nameSource: nameSource,
		log:        log.WithName("normalizer"),
	}, nil
}

// Policy returns the resolved policy
func (n *Normalizer) Policy() v1alpha1.PlanPolicySpec {
	return n.policy
}

// AssemblePlan runs every derivation over the instance and returns the plan.
// Either a complete plan is returned or an aggregate of every validation error.
func (n *Normalizer) AssemblePlan(instance *v1alpha1.SQLInstance) (*Plan, error) {
	root := field.NewPath("spec")
	if instance == nil {
		return nil, utilerrors.NewAggregate([]error{newError(root, ReasonRequired, "instance is required")})
	}

	spec := &instance.Spec
	a := &assembler{
		n:      n,
		policy: n.policy,
		rules:  GetFamilyRules(ResolveEngineFamily(spec.DatabaseVersion)),
		plan:   newPlan(),
		log:    n.log.WithValues("instance", instance.InstanceName()),
	}
	a.plan.Policy = n.policy.Preset

	a.instance(root, instance)
	a.flags(root, spec)
	a.databases(root, spec)
	a.users(root, spec)
	a.replicas(root, spec)
	a.secretRequests()

	if len(a.errs) > 0 {
		a.log.V(1).Info("plan rejected", "errors", len(a.errs))
		return nil, utilerrors.NewAggregate(a.errs)
	}

	a.plan.Warnings = a.warnings
	a.log.V(1).Info("plan assembled",
		"family", a.rules.Family(),
		"databases", a.plan.Databases.Len(),
		"users", a.plan.Users.Len(),
		"replicas", a.plan.Replicas.Len(),
		"warnings", len(a.warnings))
	return a.plan, nil
}

type assembler struct {
	n        *Normalizer
	policy   v1alpha1.PlanPolicySpec
	rules    FamilyRules
	plan     *Plan
	errs     []error
	warnings []Warning
	log      logr.Logger
}

func (a *assembler) fail(errs ...error) {
	for _, err := range errs {
		if err != nil {
			a.errs = append(a.errs, err)
		}
	}
}

func (a *assembler) warn(path *field.Path, format string, args ...interface{}) {
	a.warnings = append(a.warnings, Warning{Field: path.String(), Message: fmt.Sprintf(format, args...)})
}

func (a *assembler) addWarnings(ws []Warning) {
	a.warnings = append(a.warnings, ws...)
}

// drop removes a field the plan cannot carry, or rejects it under the Reject policy.
func (a *assembler) drop(path *field.Path, reason Reason, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if a.policy.UnsupportedFields == v1alpha1.FieldPolicyReject {
		a.fail(newError(path, reason, "%s", msg))
		return
	}
	a.warn(path, "%s; dropped", msg)
	a.log.V(1).Info("dropped field", "field", path.String(), "reason", reason)
}

func (a *assembler) instance(root *field.Path, instance *v1alpha1.SQLInstance) {
	spec := &instance.Spec
	d := a.policy.Defaults
	in := &a.plan.Instance
	family := a.rules.Family()

	in.Family = family
	in.DatabaseVersion = spec.DatabaseVersion
	if spec.DatabaseVersion == "" {
		a.fail(newError(root.Child("databaseVersion"), ReasonRequired, "database version is required"))
	}

	in.Project = firstNonEmpty(spec.Project, a.n.project)
	if in.Project == "" {
		a.fail(newError(root.Child("project"), ReasonRequired, "project is required"))
	}

	in.Name = instance.InstanceName()
	if in.Name == "" {
		a.fail(newError(root.Child("name"), ReasonRequired, "name is required"))
	} else {
		if spec.RandomInstanceName {
			if suffix := a.n.nameSource(); suffix != "" {
				in.Name = in.Name + "-" + suffix
			}
		}
		a.fail(validateName(root.Child("name"), in.Name))
	}

	in.Region = firstNonEmpty(spec.Region, d.Region)
	if in.Region == "" {
		a.fail(newError(root.Child("region"), ReasonRequired, "region is required"))
	}

	in.AvailabilityType = firstNonEmpty(spec.AvailabilityType, d.AvailabilityType, v1alpha1.AvailabilityZonal)
	if !validAvailabilityType(in.AvailabilityType) {
		a.fail(newError(root.Child("availabilityType"), ReasonInvalid, "unknown availability type %q", in.AvailabilityType))
	}
	in.Zone = spec.Zone
	if spec.SecondaryZone != "" {
		if in.AvailabilityType == v1alpha1.AvailabilityRegional {
			in.SecondaryZone = spec.SecondaryZone
		} else {
			a.warn(root.Child("secondaryZone"), "secondary zone applies to REGIONAL instances only; dropped")
		}
	}

	in.Edition = firstNonEmpty(spec.Edition, d.Edition)
	switch {
	case in.Edition != "" && !validEdition(in.Edition):
		a.fail(newError(root.Child("edition"), ReasonInvalid, "unknown edition %q", in.Edition))
	case in.Edition == v1alpha1.EditionEnterprisePlus && !supportsEnterprisePlus(spec.DatabaseVersion):
		a.fail(newError(root.Child("edition"), ReasonUnsupportedFeatureForFamily,
			"%s is not available for %s", in.Edition, spec.DatabaseVersion))
	}

	in.Tier = firstNonEmpty(spec.Tier, d.Tier)
	if in.Tier == "" {
		a.fail(newError(root.Child("tier"), ReasonRequired, "tier is required"))
	}

	in.Disk = DiskPlan{
		SizeGb:     d.DiskSizeGb,
		Type:       firstNonEmpty(d.DiskType, v1alpha1.DiskTypeSSD),
		Autoresize: ptr.Deref(d.DiskAutoresize, true),
	}
	if sd := spec.Disk; sd != nil {
		if sd.SizeGb != 0 {
			in.Disk.SizeGb = sd.SizeGb
		}
		if sd.Type != "" {
			in.Disk.Type = sd.Type
		}
		if sd.Autoresize != nil {
			in.Disk.Autoresize = *sd.Autoresize
		}
		in.Disk.AutoresizeLimit = sd.AutoresizeLimit
	}
	a.fail(validateDisk(root.Child("disk"), in.Disk)...)
	if !in.Disk.Autoresize && in.Disk.AutoresizeLimit != 0 {
		a.warn(root.Child("disk", "autoresizeLimit"), "autoresize is disabled; limit dropped")
		in.Disk.AutoresizeLimit = 0
	}

	in.EncryptionKeyName = spec.EncryptionKeyName

	in.DeletionProtection = ptr.Deref(spec.DeletionProtection, ptr.Deref(d.DeletionProtection, true))
	if a.policy.ForceDeletionProtection && !in.DeletionProtection {
		a.warn(root.Child("deletionProtection"), "deletion protection is forced on by policy %s", a.policy.Preset)
		in.DeletionProtection = true
	}
	if !in.DeletionProtection {
		a.warn(root.Child("deletionProtection"), "deletion protection is disabled")
	}

	base := NetworkPlan{
		IPv4Enabled: ptr.Deref(d.PublicIPEnabled, true),
		SSLMode:     d.SSLMode,
	}
	network, errs, warnings := resolveNetwork(root.Child("ipConfiguration"), spec.IPConfiguration, base)
	in.Network = network
	a.fail(errs...)
	a.addWarnings(warnings)

	a.backup(root.Child("backup"), spec.Backup)

	if spec.MaintenanceWindow != nil {
		w := *spec.MaintenanceWindow
		in.MaintenanceWindow = &w
		a.fail(validateMaintenanceWindow(root.Child("maintenanceWindow"), in.MaintenanceWindow)...)
	}
	if spec.Insights != nil {
		ins := *spec.Insights
		in.Insights = &ins
		a.fail(validateInsights(root.Child("insights"), in.Insights)...)
	}

	in.UserLabels = maps.Clone(spec.UserLabels)

	switch {
	case spec.RootPassword != "" && a.rules.SupportsRootPassword():
		in.RootPassword = spec.RootPassword
		in.RootPasswordPolicy = PasswordUseProvided
	case spec.RootPassword != "":
		a.drop(root.Child("rootPassword"), ReasonUnsupportedFeatureForFamily,
			"root password is not supported for %s", family)
	case family == v1alpha1.EngineFamilySQLServer:
		in.RootPasswordPolicy = PasswordUseGenerated
	}
}

func (a *assembler) backup(path *field.Path, b *v1alpha1.BackupConfig) {
	d := a.policy.Defaults
	input := BackupInput{
		Family:                      a.rules.Family(),
		Enabled:                     ptr.Deref(d.BackupEnabled, true),
		StartTime:                   d.BackupStartTime,
		PointInTimeRecovery:         ptr.Deref(d.PointInTimeRecovery, false),
		RetainedBackups:             d.RetainedBackups,
		TransactionLogRetentionDays: d.TransactionLogRetentionDays,
	}
	if b != nil {
		if b.Enabled != nil {
			input.Enabled = *b.Enabled
		}
		if b.StartTime != "" {
			input.StartTime = b.StartTime
		}
		input.Location = b.Location
		if b.PointInTimeRecovery != nil {
			input.PointInTimeRecovery = *b.PointInTimeRecovery
		}
		if b.RetainedBackups != 0 {
			input.RetainedBackups = b.RetainedBackups
		}
		if b.TransactionLogRetentionDays != 0 {
			input.TransactionLogRetentionDays = b.TransactionLogRetentionDays
		}
	}

	policy := DeriveBackupPolicy(input)
	a.plan.Instance.Backup = policy
	a.fail(ValidateBackup(path, a.rules.Family(), policy)...)
	if !policy.Enabled {
		a.warn(path.Child("enabled"), "automated backups are disabled")
	}
}

func (a *assembler) flags(root *field.Path, spec *v1alpha1.SQLInstanceSpec) {
	flags, errs, warnings := validateFlags(root.Child("databaseFlags"), spec.DatabaseFlags)
	a.fail(errs...)
	a.addWarnings(warnings)

	derived := DeriveIAMAuthFlag(a.rules.Family(), spec.IAMAuthentication)
	if spec.IAMAuthentication && derived == nil {
		if a.rules.Family() == v1alpha1.EngineFamilyUnknown {
			a.warn(root.Child("iamAuthentication"), "no IAM authentication flag is known for %q", spec.DatabaseVersion)
		} else {
			a.drop(root.Child("iamAuthentication"), ReasonUnsupportedFeatureForFamily,
				"IAM authentication is not supported for %s", a.rules.Family())
		}
	}

	a.plan.Flags = MergeFlags(flags, derived)
}

func (a *assembler) databases(root *field.Path, spec *v1alpha1.SQLInstanceSpec) {
	for i, db := range spec.Databases {
		a.addDatabase(root.Child("databases").Index(i), db)
	}

	if spec.EnableDefaultDatabase {
		name := firstNonEmpty(spec.DefaultDatabaseName, defaultObjectName)
		if _, ok := a.plan.Databases.Get(name); !ok {
			a.addDatabase(root.Child("defaultDatabaseName"), v1alpha1.DatabaseSpec{Name: name})
		}
	}
}

func (a *assembler) addDatabase(path *field.Path, db v1alpha1.DatabaseSpec) {
	if db.Name == "" {
		a.fail(newError(path.Child("name"), ReasonRequired, "database name is required"))
		return
	}

	out := DatabasePlan{Name: db.Name, Charset: db.Charset, Collation: db.Collation}
	if !a.rules.SupportsCharset() {
		if out.Charset != "" {
			a.drop(path.Child("charset"), ReasonUnsupportedFeatureForFamily,
				"charset is not supported for %s", a.rules.Family())
			out.Charset = ""
		}
		if out.Collation != "" {
			a.drop(path.Child("collation"), ReasonUnsupportedFeatureForFamily,
				"collation is not supported for %s", a.rules.Family())
			out.Collation = ""
		}
	}

	if _, dup := a.plan.Databases.Set(out.Name, out); dup {
		a.warn(path, "duplicate database %q; last definition wins", out.Name)
		a.log.V(1).Info("collapsed duplicate database", "database", out.Name)
	}
}

func (a *assembler) users(root *field.Path, spec *v1alpha1.SQLInstanceSpec) {
	for i, u := range spec.Users {
		a.addUser(root.Child("users").Index(i), u)
	}

	if spec.EnableDefaultUser {
		name := firstNonEmpty(spec.DefaultUserName, defaultObjectName)
		if _, ok := a.plan.Users.Get(name); !ok {
			a.addUser(root.Child("defaultUserName"), v1alpha1.UserSpec{Name: name, Type: v1alpha1.UserTypeBuiltIn})
		}
	}
}

func (a *assembler) addUser(path *field.Path, u v1alpha1.UserSpec) {
	t := userType(u)
	if u.Name == "" {
		a.fail(newError(path.Child("name"), ReasonRequired, "user name is required"))
		return
	}
	if !validUserType(t) {
		a.fail(newError(path.Child("type"), ReasonInvalid, "unknown user type %q", u.Type))
		return
	}

	out := UserPlan{
		Name:           a.rules.IAMUserName(u.Name, t),
		Type:           t,
		PasswordPolicy: DerivePasswordPolicy(u),
	}

	if t.IsIAM() {
		if u.Password != "" {
			a.drop(path.Child("password"), ReasonInvalid, "password does not apply to %s users", t)
		}
		if u.Host != "" {
			a.drop(path.Child("host"), ReasonInvalid, "host does not apply to %s users", t)
		}
	} else {
		out.Password = u.Password
		if u.Host != "" {
			if a.rules.SupportsUserHost() {
				out.Host = u.Host
			} else {
				a.drop(path.Child("host"), ReasonUnsupportedFeatureForFamily,
					"user host is not supported for %s", a.rules.Family())
			}
		}
	}

	// Users are keyed by name alone, so MySQL users differing only by host collapse.
	prev, dup := a.plan.Users.Set(out.Name, out)
	switch {
	case dup && prev.Host != out.Host:
		a.warn(path, "duplicate user %q; host %q replaces host %q, last definition wins",
			out.Name, out.Host, prev.Host)
		a.log.V(1).Info("collapsed duplicate user", "user", out.Name, "host", out.Host, "previousHost", prev.Host)
	case dup:
		a.warn(path, "duplicate user %q; last definition wins", out.Name)
		a.log.V(1).Info("collapsed duplicate user", "user", out.Name)
	}
}

func (a *assembler) replicas(root *field.Path, spec *v1alpha1.SQLInstanceSpec) {
	for i, r := range spec.ReadReplicas {
		key := r.Key
		if key == "" {
			key = strconv.Itoa(i)
		}
		path := root.Child("readReplicas").Key(key)

		replica, errs, warnings := deriveReplica(&a.plan.Instance, r, ReplicaOptions{
			Key:          key,
			NameSuffix:   spec.ReadReplicaNameSuffix,
			TierPolicy:   a.policy.ReplicaTier,
			PrimaryFlags: a.plan.Flags,
			Path:         path,
		})
		a.fail(errs...)
		a.addWarnings(warnings)

		if _, dup := a.plan.Replicas.Set(key, replica); dup {
			a.warn(path, "duplicate replica key %q; last definition wins", key)
			a.log.V(1).Info("collapsed duplicate replica", "replica", key)
		}
	}

	a.replicaNames(root)
}

// replicaNames fails any replica whose instance name is already taken by the
// primary or by an earlier replica.
func (a *assembler) replicaNames(root *field.Path) {
	owners := map[string]string{a.plan.Instance.Name: "the primary instance"}
	for pair := a.plan.Replicas.Oldest(); pair != nil; pair = pair.Next() {
		r := pair.Value
		if r.Name == "" {
			continue
		}
		if owner, taken := owners[r.Name]; taken {
			a.fail(newError(root.Child("readReplicas").Key(pair.Key).Child("name"), ReasonInvalid,
				"instance name %q is already used by %s", r.Name, owner))
			continue
		}
		owners[r.Name] = fmt.Sprintf("replica %q", pair.Key)
	}
}

// secretRequests runs last so that collapsed duplicates do not leave stale requests.
func (a *assembler) secretRequests() {
	in := &a.plan.Instance
	if in.RootPasswordPolicy == PasswordUseGenerated {
		in.RootPasswordRef = in.Name + "-root-password"
		a.plan.SecretRequests = append(a.plan.SecretRequests, a.secretRequest(in.RootPasswordRef, "root"))
	}

	for pair := a.plan.Users.Oldest(); pair != nil; pair = pair.Next() {
		u := pair.Value
		if u.PasswordPolicy != PasswordUseGenerated {
			continue
		}
		u.SecretRef = fmt.Sprintf("%s-%s-password", in.Name, u.Name)
		a.plan.Users.Set(pair.Key, u)
		a.plan.SecretRequests = append(a.plan.SecretRequests, a.secretRequest(u.SecretRef, "user/"+u.Name))
	}
}

func (a *assembler) secretRequest(name, owner string) SecretRequest {
	length := int(a.policy.PasswordLength)
	return SecretRequest{
		Name:        name,
		For:         owner,
		Length:      length,
		Digits:      length / 4,
		AllowRepeat: true,
	}
}

func firstNonEmpty[T ~string](vals ...T) T {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
