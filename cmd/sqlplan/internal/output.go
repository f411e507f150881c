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

package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/sql-instance-planner/internal/inspect"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/service"
	"github.com/sql-instance-planner/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
)

// ParseOutputFormat parses a string into an OutputFormat
func ParseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML
	case "json":
		return FormatJSON
	default:
		return FormatTable
	}
}

// Printer handles output formatting
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format OutputFormat, writer io.Writer) *Printer {
	return &Printer{
		format: format,
		writer: writer,
	}
}

// Format returns the configured format
func (p *Printer) Format() OutputFormat {
	return p.format
}

// PrintResult prints a result message
func (p *Printer) PrintResult(message string) {
	fmt.Fprintln(p.writer, message)
}

// PrintTable prints data in table format. Other formats get a list of maps
// keyed by lower-cased header.
func (p *Printer) PrintTable(headers []string, rows [][]string) error {
	if p.format != FormatTable {
		data := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string)
			for i, header := range headers {
				if i < len(row) {
					item[strings.ToLower(header)] = row[i]
				}
			}
			data = append(data, item)
		}
		return p.PrintData(data)
	}
	return p.writeTable(headers, rows)
}

func (p *Printer) writeTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// PrintData prints data in the configured format
func (p *Printer) PrintData(data interface{}) error {
	switch p.format {
	case FormatJSON:
		return p.printJSON(data)
	default:
		// For table format with arbitrary data, use YAML
		return p.printYAML(data)
	}
}

// PrintDocuments prints several values. YAML output separates them with
// "---", JSON output wraps them in an array.
func (p *Printer) PrintDocuments(docs []interface{}) error {
	if len(docs) == 1 {
		return p.PrintData(docs[0])
	}
	if p.format == FormatJSON {
		return p.printJSON(docs)
	}
	for i, doc := range docs {
		if i > 0 {
			fmt.Fprintln(p.writer, "---")
		}
		if err := p.printYAML(doc); err != nil {
			return err
		}
	}
	return nil
}

// printYAML prints data as YAML
func (p *Printer) printYAML(data interface{}) error {
	output, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	fmt.Fprint(p.writer, string(output))
	return nil
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(p.writer, string(output))
	return nil
}

// PrintPlan prints a plan. The table format shows one section per resource kind.
func (p *Printer) PrintPlan(plan *normalizer.Plan) error {
	if p.format != FormatTable {
		return p.PrintData(plan)
	}

	in := plan.Instance
	fmt.Fprintf(p.writer, "Instance:  %s/%s (%s, %s)\n", in.Project, in.Name, in.DatabaseVersion, in.Family)
	fmt.Fprintf(p.writer, "Policy:    %s\n", plan.Policy)
	fmt.Fprintf(p.writer, "Placement: %s %s, tier %s\n", in.Region, in.AvailabilityType, in.Tier)
	fmt.Fprintf(p.writer, "Disk:      %d GB %s, autoresize %t\n", in.Disk.SizeGb, in.Disk.Type, in.Disk.Autoresize)

	sections := []struct {
		title   string
		headers []string
		rows    [][]string
	}{
		{"Databases", []string{"NAME", "CHARSET", "COLLATION"}, databaseRows(plan)},
		{"Users", []string{"NAME", "TYPE", "HOST", "PASSWORD"}, userRows(plan)},
		{"Replicas", []string{"KEY", "NAME", "TIER", "ZONE"}, replicaRows(plan)},
		{"Flags", []string{"NAME", "VALUE"}, flagRows(plan)},
		{"Secrets", []string{"NAME", "FOR", "LENGTH"}, secretRows(plan)},
		{"Warnings", []string{"FIELD", "MESSAGE"}, warningRows(plan.Warnings)},
	}
	for _, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		fmt.Fprintf(p.writer, "\n%s:\n", s.title)
		if err := p.writeTable(s.headers, s.rows); err != nil {
			return err
		}
	}
	return nil
}

// PrintPlans prints several plans, separated by a blank line in table format
func (p *Printer) PrintPlans(plans []*normalizer.Plan) error {
	if p.format != FormatTable {
		docs := make([]interface{}, 0, len(plans))
		for _, plan := range plans {
			docs = append(docs, plan)
		}
		return p.PrintDocuments(docs)
	}
	for i, plan := range plans {
		if i > 0 {
			fmt.Fprintln(p.writer)
		}
		if err := p.PrintPlan(plan); err != nil {
			return err
		}
	}
	return nil
}

func databaseRows(plan *normalizer.Plan) [][]string {
	var rows [][]string
	for _, db := range plan.DatabaseList() {
		rows = append(rows, []string{db.Name, orDash(db.Charset), orDash(db.Collation)})
	}
	return rows
}

func userRows(plan *normalizer.Plan) [][]string {
	var rows [][]string
	for _, u := range plan.UserList() {
		password := string(u.PasswordPolicy)
		if u.SecretRef != "" {
			password += " (" + u.SecretRef + ")"
		}
		rows = append(rows, []string{u.Name, string(u.Type), orDash(u.Host), orDash(password)})
	}
	return rows
}

func replicaRows(plan *normalizer.Plan) [][]string {
	var rows [][]string
	for _, r := range plan.ReplicaList() {
		rows = append(rows, []string{r.Key, r.Name, r.Tier, orDash(r.Zone)})
	}
	return rows
}

func flagRows(plan *normalizer.Plan) [][]string {
	var rows [][]string
	for _, f := range plan.Flags {
		rows = append(rows, []string{f.Name, f.Value})
	}
	return rows
}

func secretRows(plan *normalizer.Plan) [][]string {
	var rows [][]string
	for _, r := range plan.SecretRequests {
		rows = append(rows, []string{r.Name, r.For, strconv.Itoa(r.Length)})
	}
	return rows
}

func warningRows(warnings []normalizer.Warning) [][]string {
	var rows [][]string
	for _, w := range warnings {
		rows = append(rows, []string{w.Field, w.Message})
	}
	return rows
}

// PrintValidation prints validation results, one summary row per instance
// followed by every error and warning.
func (p *Printer) PrintValidation(results []*service.ValidationResult) error {
	if p.format != FormatTable {
		docs := make([]interface{}, 0, len(results))
		for _, r := range results {
			docs = append(docs, r)
		}
		return p.PrintDocuments(docs)
	}

	var summary, problems [][]string
	for _, r := range results {
		summary = append(summary, []string{
			r.Instance, strconv.FormatBool(r.Valid), strconv.Itoa(len(r.Errors)), strconv.Itoa(len(r.Warnings)),
		})
		for _, e := range r.Errors {
			problems = append(problems, []string{r.Instance, "error", e.Field, string(e.Reason), e.Message})
		}
		for _, w := range r.Warnings {
			problems = append(problems, []string{r.Instance, "warning", w.Field, "-", w.Message})
		}
	}
	if err := p.writeTable([]string{"INSTANCE", "VALID", "ERRORS", "WARNINGS"}, summary); err != nil {
		return err
	}
	if len(problems) == 0 {
		return nil
	}
	fmt.Fprintln(p.writer)
	return p.writeTable([]string{"INSTANCE", "SEVERITY", "FIELD", "REASON", "MESSAGE"}, problems)
}

// PrintPublished prints the outcome of publish operations
func (p *Printer) PrintPublished(results []*service.PublishResult) error {
	if p.format != FormatTable {
		docs := make([]interface{}, 0, len(results))
		for _, r := range results {
			docs = append(docs, r)
		}
		return p.PrintDocuments(docs)
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.URL(), FormatSize(r.Size), r.Compression, orDash(r.Status)})
	}
	return p.writeTable([]string{"URL", "SIZE", "COMPRESSION", "STATUS"}, rows)
}

// PrintObjects prints stored plan objects
func (p *Printer) PrintObjects(objects []storage.ObjectInfo) error {
	if p.format != FormatTable {
		return p.PrintData(objects)
	}
	rows := make([][]string, 0, len(objects))
	for _, o := range objects {
		modified := "-"
		if o.LastModified > 0 {
			modified = time.Unix(o.LastModified, 0).UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{o.Path, FormatSize(o.Size), modified})
	}
	return p.writeTable([]string{"PATH", "SIZE", "MODIFIED"}, rows)
}

// PrintReport prints a verification report
func (p *Printer) PrintReport(report *inspect.VerifyReport) error {
	if p.format != FormatTable {
		return p.PrintData(report)
	}

	status := "in sync"
	if !report.InSync() {
		status = fmt.Sprintf("%d missing", report.MissingCount())
	}
	fmt.Fprintf(p.writer, "Instance: %s (%s), %s, %d unmanaged\n",
		report.Instance, report.Family, status, report.UnmanagedCount())

	var rows [][]string
	add := func(state, kind string, names []string) {
		for _, n := range names {
			rows = append(rows, []string{kind, n, state})
		}
	}
	add("missing", "database", report.MissingDatabases)
	add("missing", "user", report.MissingUsers)
	add("unmanaged", "database", report.UnmanagedDatabases)
	add("unmanaged", "user", report.UnmanagedUsers)
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintln(p.writer)
	return p.writeTable([]string{"KIND", "NAME", "STATE"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatSize formats bytes into human-readable size
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
