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

package service

import (
	"context"
	"fmt"
	"os"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/metrics"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/render"
	"github.com/sql-instance-planner/internal/secret"
)

// PlanService assembles plans with logging and metrics around the normalizer.
type PlanService struct {
	baseService
	config     *Config
	normalizer *normalizer.Normalizer
	generator  secret.Generator
}

// NewPlanService resolves the configured policy and creates the service.
func NewPlanService(cfg *Config) (*PlanService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := PolicyFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	base := newBaseService(cfg, "PlanService")
	n, err := normalizer.New(normalizer.Options{
		Project:    cfg.Project,
		Policy:     policy,
		NameSource: secret.HexSuffix,
		Logger:     base.log,
	})
	if err != nil {
		return nil, &ValidationError{Field: "policy", Message: err.Error()}
	}

	gen, err := secret.NewPasswordGenerator(nil)
	if err != nil {
		return nil, err
	}

	return &PlanService{
		baseService: base,
		config:      cfg,
		normalizer:  n,
		generator:   gen,
	}, nil
}

// PolicyFromConfig builds the PlanPolicySpec the config describes. An inline
// PolicySpec wins over the policy file. The preset, strict flag, region and
// password length from the config are applied on top.
func PolicyFromConfig(cfg *Config) (v1alpha1.PlanPolicySpec, error) {
	var spec v1alpha1.PlanPolicySpec
	switch {
	case cfg.PolicySpec != nil:
		spec = *cfg.PolicySpec
	case cfg.PolicyFile != "":
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return spec, fmt.Errorf("failed to read policy file: %w", err)
		}
		policy, err := DecodePolicy(data)
		if err != nil {
			return spec, fmt.Errorf("%s: %w", cfg.PolicyFile, err)
		}
		spec = policy.Spec
	}

	if spec.Preset == "" {
		spec.Preset = cfg.Policy
	}
	if cfg.Strict {
		spec.UnsupportedFields = v1alpha1.FieldPolicyReject
	}
	if cfg.Region != "" {
		spec.Defaults.Region = cfg.Region
	}
	if cfg.PasswordLength != 0 {
		spec.PasswordLength = cfg.PasswordLength
	}
	return spec, nil
}

// Policy returns the resolved policy
func (s *PlanService) Policy() v1alpha1.PlanPolicySpec {
	return s.normalizer.Policy()
}

// Plan assembles the plan for one instance. Validation failures are returned
// as the normalizer's aggregate so callers can list every error.
func (s *PlanService) Plan(ctx context.Context, instance *v1alpha1.SQLInstance) (*normalizer.Plan, error) {
	if instance == nil {
		return nil, fmt.Errorf("%w: instance is nil", ErrInvalidInput)
	}
	family := string(normalizer.ResolveEngineFamily(instance.Spec.DatabaseVersion))
	op := s.startOp(ctx, "Plan", instance.InstanceName()).WithValues("family", family)

	plan, err := s.normalizer.AssemblePlan(instance)
	metrics.RecordPlanDuration(family, op.Elapsed().Seconds())
	if err != nil {
		verrs := normalizer.ValidationErrors(err)
		for _, ve := range verrs {
			metrics.RecordValidationError(string(ve.Reason))
		}
		if len(verrs) > 0 {
			metrics.RecordPlan(family, metrics.StatusRejected)
			op.Error(err, "plan rejected")
			return nil, err
		}
		metrics.RecordPlan(family, metrics.StatusFailure)
		op.Error(err, "plan failed")
		return nil, err
	}

	metrics.RecordPlan(family, metrics.StatusSuccess)
	metrics.RecordPlanWarnings(family, len(plan.Warnings))
	metrics.SetPlannedResources(metrics.KindDatabase, plan.Databases.Len())
	metrics.SetPlannedResources(metrics.KindUser, plan.Users.Len())
	metrics.SetPlannedResources(metrics.KindReplica, plan.Replicas.Len())
	metrics.SetPlannedResources(metrics.KindFlag, len(plan.Flags))
	metrics.SetPlannedResources(metrics.KindSecretRequest, len(plan.SecretRequests))

	for _, w := range plan.Warnings {
		op.Debug("plan warning", "field", w.Field, "message", w.Message)
	}
	op.Success("plan assembled",
		"databases", plan.Databases.Len(),
		"users", plan.Users.Len(),
		"replicas", plan.Replicas.Len(),
		"warnings", len(plan.Warnings))
	return plan, nil
}

// ValidationResult is the outcome of Validate
type ValidationResult struct {
	Instance string                        `json:"instance"`
	Valid    bool                          `json:"valid"`
	Errors   []*normalizer.ValidationError `json:"errors,omitempty"`
	Warnings []normalizer.Warning          `json:"warnings,omitempty"`
}

// Validate plans the instance and reports errors and warnings without
// returning the plan. Only unexpected failures are returned as an error.
func (s *PlanService) Validate(ctx context.Context, instance *v1alpha1.SQLInstance) (*ValidationResult, error) {
	plan, err := s.Plan(ctx, instance)
	if err != nil {
		verrs := normalizer.ValidationErrors(err)
		if len(verrs) == 0 {
			return nil, err
		}
		return &ValidationResult{Instance: instance.InstanceName(), Errors: verrs}, nil
	}
	return &ValidationResult{Instance: plan.Instance.Name, Valid: true, Warnings: plan.Warnings}, nil
}

// Secrets generates every value the plan requests. The result is never persisted.
func (s *PlanService) Secrets(plan *normalizer.Plan) (map[string]string, error) {
	return secret.Resolve(plan, s.generator)
}

// Render plans the instance and converts it to Cloud SQL Admin API payloads.
// Passwords are only filled in when withSecrets is set.
func (s *PlanService) Render(ctx context.Context, instance *v1alpha1.SQLInstance, withSecrets bool) (*render.Payloads, error) {
	plan, err := s.Plan(ctx, instance)
	if err != nil {
		return nil, err
	}

	var secrets map[string]string
	if withSecrets {
		if secrets, err = s.Secrets(plan); err != nil {
			return nil, err
		}
	}
	return render.Render(plan, secrets), nil
}
