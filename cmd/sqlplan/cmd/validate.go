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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sql-instance-planner/internal/service"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate -f <file>",
	Short: "Check SQLInstance documents without printing plans",
	Long: `Validate plans every SQLInstance in a file and reports all errors and
warnings. The exit status is non-zero when any instance is invalid.

Examples:
  sqlplan validate -f instance.yaml
  sqlplan validate -f instance.yaml --strict -o json`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "YAML file path, - for stdin (required)")
	_ = validateCmd.MarkFlagRequired("file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	bundle, cfg, err := loadBundle(validateFile)
	if err != nil {
		return err
	}

	svc, err := service.NewPlanService(cfg)
	if err != nil {
		return err
	}

	results := make([]*service.ValidationResult, 0, len(bundle.Instances))
	invalid := 0
	for _, instance := range bundle.Instances {
		printVerbose("Validating SQLInstance '%s'", instance.InstanceName())

		result, err := svc.Validate(cmd.Context(), instance)
		if err != nil {
			return fmt.Errorf("failed to validate '%s': %w", instance.InstanceName(), err)
		}
		if !result.Valid {
			invalid++
		}
		results = append(results, result)
	}

	if err := newPrinter(cmd).PrintValidation(results); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d instances failed validation", invalid, len(results))
	}
	return nil
}
