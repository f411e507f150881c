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

	"github.com/sql-instance-planner/internal/service"
	"github.com/sql-instance-planner/internal/storage"
)

var showList bool

var showCmd = &cobra.Command{
	Use:   "show <url>",
	Short: "Print a published plan",
	Long: `Show reads a plan written by publish and prints it. Compression is
detected from the file extension.

With --list the URL is treated as a location and the stored plans are listed.

Examples:
  sqlplan show gs://acme-plans/sql/orders-db.json.zst
  sqlplan show file:///tmp/plans/orders-db.json -o yaml
  sqlplan show --list s3://plans/sql`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showList, "list", false, "List the plans stored at the URL")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}

	publisher, err := service.NewPublishService(cfg, storage.Options{})
	if err != nil {
		return err
	}

	printer := newPrinter(cmd)
	if showList {
		objects, err := publisher.List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printer.PrintObjects(objects)
	}

	printVerbose("Fetching %s", args[0])
	plan, err := publisher.Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printer.PrintPlan(plan)
}
