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

	"github.com/sql-instance-planner/internal/server"
	"github.com/sql-instance-planner/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner over HTTP",
	Long: `Serve starts an HTTP server exposing the planner.

Endpoints:
  POST /v1/plans         Plan a SQLInstance (YAML or JSON body)
  POST /v1/plans/render  Render Cloud SQL Admin API payloads
  GET  /healthz          Liveness
  GET  /metrics          Prometheus metrics

The server uses the policy given by the global flags and environment for
every request. It stops gracefully on SIGINT or SIGTERM.

Examples:
  sqlplan serve --addr :8080 --policy secure`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default $SQLPLAN_LISTEN_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	plans, err := service.NewPlanService(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	srv := server.New(server.Options{Plans: plans, Logger: logger})
	printVerbose("Listening on %s", cfg.ListenAddr)
	return srv.Run(ctx, cfg.ListenAddr)
}
