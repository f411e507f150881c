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

	"github.com/sql-instance-planner/internal/render"
	"github.com/sql-instance-planner/internal/service"
)

const (
	renderSQLAdmin  = "sqladmin"
	renderConfigMap = "configmap"
)

var (
	renderFile        string
	renderFormat      string
	renderNamespace   string
	renderWithSecrets bool
)

var renderCmd = &cobra.Command{
	Use:   "render -f <file>",
	Short: "Render plans as Cloud SQL Admin API payloads or ConfigMaps",
	Long: `Render converts the plan of every SQLInstance in a file into the request
bodies of the Cloud SQL Admin API, or into a Kubernetes ConfigMap holding
the plan.

User passwords are left empty unless --with-secrets is given, in which case
generated passwords are filled in. They are printed once and never stored.

Examples:
  # Admin API payloads as YAML
  sqlplan render -f instance.yaml

  # Payloads with generated passwords, as JSON
  sqlplan render -f instance.yaml --with-secrets -o json

  # ConfigMap for a GitOps repository
  sqlplan render -f instance.yaml --format configmap --namespace databases`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "YAML file path, - for stdin (required)")
	renderCmd.Flags().StringVar(&renderFormat, "format", renderSQLAdmin, "Render format (sqladmin|configmap)")
	renderCmd.Flags().StringVar(&renderNamespace, "namespace", "default", "Namespace of the rendered ConfigMap")
	renderCmd.Flags().BoolVar(&renderWithSecrets, "with-secrets", false, "Fill in generated passwords")
	_ = renderCmd.MarkFlagRequired("file")
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderFormat != renderSQLAdmin && renderFormat != renderConfigMap {
		return fmt.Errorf("unknown render format %q, use %s or %s", renderFormat, renderSQLAdmin, renderConfigMap)
	}
	if renderFormat == renderConfigMap && renderWithSecrets {
		return fmt.Errorf("--with-secrets cannot be used with --format %s", renderConfigMap)
	}

	bundle, cfg, err := loadBundle(renderFile)
	if err != nil {
		return err
	}

	svc, err := service.NewPlanService(cfg)
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(bundle.Instances))
	for _, instance := range bundle.Instances {
		printVerbose("Rendering SQLInstance '%s' as %s", instance.InstanceName(), renderFormat)

		if renderFormat == renderSQLAdmin {
			payloads, err := svc.Render(cmd.Context(), instance, renderWithSecrets)
			if err != nil {
				return invalidInstance(instance.InstanceName(), err)
			}
			docs = append(docs, payloads)
			continue
		}

		plan, err := svc.Plan(cmd.Context(), instance)
		if err != nil {
			return invalidInstance(instance.InstanceName(), err)
		}
		cm, err := render.ConfigMap(plan, renderNamespace)
		if err != nil {
			return err
		}
		docs = append(docs, cm)
	}

	return newPrinter(cmd).PrintDocuments(docs)
}
