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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sql-instance-planner/cmd/sqlplan/internal"
	"github.com/sql-instance-planner/internal/service"
	"github.com/sql-instance-planner/internal/storage"
)

var (
	publishFile        string
	publishTo          string
	publishCompression string
	publishSchedule    string
	publishNoOverwrite bool
	publishPrune       bool
)

var publishCmd = &cobra.Command{
	Use:   "publish -f <file> --to <url>",
	Short: "Plan a file and store the plans",
	Long: `Publish plans every SQLInstance in a file and writes each plan as
<instance>.json under a storage URL. Secret values are never written.

Supported storage URLs:
  gs://bucket/prefix
  s3://bucket/prefix?region=eu-west-1&endpoint=http://minio:9000&pathStyle=true
  azblob://account/container/prefix
  file:///var/lib/sqlplan
  k8s://namespace/configmap-name

With --no-overwrite plans that already exist at the target are kept and
reported as skipped. With --prune plans of instances that are no longer in
the file are deleted from the target after publishing.

With --schedule the file is re-read and published on a five-field cron
schedule (UTC) until interrupted.

Examples:
  sqlplan publish -f instance.yaml --to gs://acme-plans/sql
  sqlplan publish -f instance.yaml --to file:///tmp/plans --compression zstd
  sqlplan publish -f instances.yaml --to k8s://databases/sql-plans --prune
  sqlplan publish -f instance.yaml --to s3://plans/sql --schedule "*/15 * * * *"`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishFile, "file", "f", "", "YAML file path (required)")
	publishCmd.Flags().StringVar(&publishTo, "to", "", "Storage URL (default $SQLPLAN_STORAGE_URL)")
	publishCmd.Flags().StringVar(&publishCompression, "compression", "", "Compression (none|gzip|zstd|lz4)")
	publishCmd.Flags().StringVar(&publishSchedule, "schedule", "", "Cron expression for repeated publishing")
	publishCmd.Flags().BoolVar(&publishNoOverwrite, "no-overwrite", false, "Keep plans that already exist at the target")
	publishCmd.Flags().BoolVar(&publishPrune, "prune", false, "Delete stored plans of instances not in the file")
	_ = publishCmd.MarkFlagRequired("file")
}

func runPublish(cmd *cobra.Command, args []string) error {
	if publishSchedule != "" && publishFile == internal.Stdin {
		return fmt.Errorf("--schedule needs a file, not stdin")
	}

	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if publishCompression != "" {
		cfg.Compression = publishCompression
	}

	publisher, err := service.NewPublishService(cfg, storage.Options{})
	if err != nil {
		return err
	}
	publisher.WithNoOverwrite(publishNoOverwrite)

	publish := func(ctx context.Context) error {
		results, err := publishOnce(ctx, publisher)
		if err != nil {
			return err
		}
		return newPrinter(cmd).PrintPublished(results)
	}

	if publishSchedule == "" {
		return publish(cmd.Context())
	}

	scheduler, err := service.NewScheduler(publishSchedule, publish, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := publish(ctx); err != nil {
		return err
	}
	printVerbose("Next publish at %s", scheduler.Next(time.Now()).Format("2006-01-02 15:04:05 MST"))
	return scheduler.Run(ctx)
}

// publishOnce re-reads the input so a scheduled run picks up edits
func publishOnce(ctx context.Context, publisher *service.PublishService) ([]*service.PublishResult, error) {
	bundle, cfg, err := loadBundle(publishFile)
	if err != nil {
		return nil, err
	}
	svc, err := service.NewPlanService(cfg)
	if err != nil {
		return nil, err
	}
	plans, err := planAll(ctx, svc, bundle)
	if err != nil {
		return nil, err
	}

	results := make([]*service.PublishResult, 0, len(plans))
	for _, plan := range plans {
		printVerbose("Publishing plan '%s'", plan.Instance.Name)

		result, err := publisher.Publish(ctx, plan, publishTo)
		if err != nil {
			return nil, fmt.Errorf("failed to publish '%s': %w", plan.Instance.Name, err)
		}
		results = append(results, result)
	}

	if publishPrune {
		keep := make([]string, 0, len(plans))
		for _, plan := range plans {
			keep = append(keep, plan.Instance.Name)
		}
		pruned, err := publisher.Prune(ctx, publishTo, keep)
		if err != nil {
			return nil, fmt.Errorf("failed to prune plans: %w", err)
		}
		results = append(results, pruned...)
	}
	return results, nil
}
