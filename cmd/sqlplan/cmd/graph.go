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

	"github.com/sql-instance-planner/internal/graph"
	"github.com/sql-instance-planner/internal/service"
)

var (
	graphFile        string
	graphFormat      string
	graphCluster     bool
	graphOmitSecrets bool
)

var graphCmd = &cobra.Command{
	Use:   "graph -f <file>",
	Short: "Draw the resource dependency graph of plans",
	Long: `Graph writes the dependencies between the planned instance, its
databases, users, replicas and secret requests as Graphviz DOT or Mermaid.

Examples:
  sqlplan graph -f instance.yaml | dot -Tsvg > plan.svg
  sqlplan graph -f instance.yaml --format mermaid --cluster`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVarP(&graphFile, "file", "f", "", "YAML file path, - for stdin (required)")
	graphCmd.Flags().StringVar(&graphFormat, "format", string(graph.FormatDOT), "Graph format (dot|mermaid)")
	graphCmd.Flags().BoolVar(&graphCluster, "cluster", false, "Group nodes by resource kind")
	graphCmd.Flags().BoolVar(&graphOmitSecrets, "omit-secrets", false, "Leave out secret request nodes")
	_ = graphCmd.MarkFlagRequired("file")
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, err := graph.ParseFormat(graphFormat)
	if err != nil {
		return err
	}

	bundle, cfg, err := loadBundle(graphFile)
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

	gen := &graph.Generator{Format: format, ClusterByKind: graphCluster, OmitSecrets: graphOmitSecrets}
	out := cmd.OutOrStdout()
	for i, plan := range plans {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := gen.Generate(plan, out); err != nil {
			return fmt.Errorf("failed to draw '%s': %w", plan.Instance.Name, err)
		}
	}
	return nil
}
