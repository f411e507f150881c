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
	"github.com/spf13/cobra"
)

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan -f <file>",
	Short: "Normalize SQLInstance documents into provisioning plans",
	Long: `Plan resolves every SQLInstance in a file into a provisioning plan.

Defaults come from the policy preset, then from the PlanPolicy document if
one is given. Generated passwords are requested but never printed.

Examples:
  # Plan with the default policy
  sqlplan plan -f instance.yaml

  # Plan with the secure preset and print YAML
  sqlplan plan -f instance.yaml --policy secure -o yaml

  # Read from stdin
  cat instance.yaml | sqlplan plan -f -`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML file path, - for stdin (required)")
	_ = planCmd.MarkFlagRequired("file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	return planOnce(cmd, planFile)
}
