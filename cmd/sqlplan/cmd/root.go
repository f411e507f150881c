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
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/sql-instance-planner/cmd/sqlplan/internal"
	"github.com/sql-instance-planner/internal/logging"
	"github.com/sql-instance-planner/internal/service"
)

var (
	// Global flags
	verbose      bool
	outputFormat string
	project      string
	policyName   string
	policyFile   string
	strict       bool
	envFile      string
	logLevel     string

	logger = logr.Discard()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sqlplan",
	Short: "Cloud SQL provisioning planner",
	Long: `sqlplan turns SQLInstance documents into normalized provisioning plans.

Input files use the same format as Kubernetes resources. A file may hold
several SQLInstance documents and at most one PlanPolicy, which then applies
to every instance in the file.

Environment Variables:
  SQLPLAN_PROJECT          Default project for instances that name none
  SQLPLAN_REGION           Region used when neither instance nor policy sets one
  SQLPLAN_POLICY           Policy preset (default|secure)
  SQLPLAN_POLICY_FILE      Path to a PlanPolicy document
  SQLPLAN_STRICT           Reject unsupported fields (true|false)
  SQLPLAN_PASSWORD_LENGTH  Generated password length (16-128)
  SQLPLAN_STORAGE_URL      Default publish target, e.g. gs://bucket/plans
  SQLPLAN_COMPRESSION      Publish compression (none|gzip|zstd|lz4)
  SQLPLAN_LISTEN_ADDR      HTTP listen address for serve
  SQLPLAN_LOG_LEVEL        Log level (debug|info)

Example:
  export SQLPLAN_PROJECT=acme-prod

  sqlplan plan -f instance.yaml
  sqlplan validate -f instance.yaml --strict
  sqlplan render -f instance.yaml -o json
  sqlplan publish -f instance.yaml --to gs://acme-plans/sql`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|yaml|json)")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "Project injected into instances that name none")
	rootCmd.PersistentFlags().StringVar(&policyName, "policy", "", "Policy preset (default|secure)")
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy-file", "", "PlanPolicy document to apply")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Reject unsupported fields instead of dropping them")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info), logs go to stderr")

	// Add subcommands
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the env file and builds the process logger
func setup(cmd *cobra.Command, args []string) error {
	if err := service.LoadDotEnv(envFile); err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = os.Getenv(service.EnvLogLevel)
	}
	if verbose {
		level = "debug"
	}
	if level == "" && cmd != serveCmd {
		// Only errors unless asked, stdout carries the command output
		level = "error"
	}
	logger = logging.New(logging.Options{Development: true, Level: level, Writer: cmd.ErrOrStderr()})
	return nil
}

// getConfig loads configuration from environment variables and applies the global flags
func getConfig() (*service.Config, error) {
	cfg, err := service.ConfigFromEnv(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if project != "" {
		cfg.Project = project
	}
	if policyName != "" {
		cfg.Policy = policyName
	}
	if policyFile != "" {
		cfg.PolicyFile = policyFile
	}
	if strict {
		cfg.Strict = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.Logger = logger

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// loadBundle reads an input file and returns it with a config that carries
// the file's PlanPolicy, if any
func loadBundle(path string) (*internal.Bundle, *service.Config, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, err
	}

	bundle, err := internal.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if bundle.Policy != nil {
		printVerbose("Using PlanPolicy '%s' from %s", bundle.Policy.Name, bundle.Source)
		spec := bundle.Policy.Spec
		cfg.PolicySpec = &spec
	}
	return bundle, cfg, nil
}

// newPrinter returns a printer for the global output format
func newPrinter(cmd *cobra.Command) *internal.Printer {
	return internal.NewPrinter(internal.ParseOutputFormat(outputFormat), cmd.OutOrStdout())
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// printVerbose prints verbose output if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
