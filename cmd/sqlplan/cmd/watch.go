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
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sql-instance-planner/cmd/sqlplan/internal"
)

var (
	watchFile     string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch -f <file>",
	Short: "Re-plan a file every time it changes",
	Long: `Watch plans a file once and then again after every change to it, until
interrupted. Rapid successive writes are collapsed into one run.

Invalid input is reported and watching continues.

Examples:
  sqlplan watch -f instance.yaml
  sqlplan watch -f instance.yaml --debounce 1s -o yaml`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFile, "file", "f", "", "YAML file path (required)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before re-planning")
	_ = watchCmd.MarkFlagRequired("file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFile == internal.Stdin {
		return fmt.Errorf("watch needs a file, not stdin")
	}
	path, err := filepath.Abs(watchFile)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	replan := func() {
		fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05"), watchFile)
		if err := planOnce(cmd, watchFile); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	replan()

	var debounce *time.Timer
	trigger := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			printVerbose("%s: %s", event.Op, event.Name)

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			replan()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "watch error")

		case <-ctx.Done():
			return nil
		}
	}
}
