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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sql-instance-planner/cmd/sqlplan/internal"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/service"
)

// planAll plans every instance of a bundle. It stops at the first instance
// that fails and lists all of that instance's validation errors.
func planAll(ctx context.Context, svc *service.PlanService, bundle *internal.Bundle) ([]*normalizer.Plan, error) {
	plans := make([]*normalizer.Plan, 0, len(bundle.Instances))
	for _, instance := range bundle.Instances {
		printVerbose("Planning SQLInstance '%s'", instance.InstanceName())

		plan, err := svc.Plan(ctx, instance)
		if err != nil {
			return nil, invalidInstance(instance.InstanceName(), err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// invalidInstance formats a plan failure with one line per validation error
func invalidInstance(name string, err error) error {
	verrs := normalizer.ValidationErrors(err)
	if len(verrs) == 0 {
		return fmt.Errorf("failed to plan '%s': %w", name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "instance '%s' is invalid:", name)
	for _, ve := range verrs {
		fmt.Fprintf(&b, "\n  %s [%s] %s", ve.Field, ve.Reason, ve.Message)
	}
	return errors.New(b.String())
}

// planOnce loads, plans and prints a file with a fresh service so that
// changes to an inline PlanPolicy are picked up
func planOnce(cmd *cobra.Command, path string) error {
	bundle, cfg, err := loadBundle(path)
	if err != nil {
		return err
	}
	svc, err := service.NewPlanService(cfg)
	if err != nil {
		return err
	}
	plans, err := planAll(cmd.Context(), svc, bundle)
	if err != nil {
		return err
	}
	return newPrinter(cmd).PrintPlans(plans)
}
