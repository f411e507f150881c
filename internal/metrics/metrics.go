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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	// Metric namespace
	namespace = "sqlplan"

	// Label names
	labelFamily  = "family"
	labelStatus  = "status"
	labelReason  = "reason"
	labelKind    = "kind"
	labelBackend = "backend"
	labelRoute   = "route"
	labelCode    = "code"
)

// Status values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	// StatusRejected is a plan refused because of validation errors
	StatusRejected = "rejected"
	// StatusSkipped is a publish that kept an existing object
	StatusSkipped = "skipped"
)

// Planned resource kinds
const (
	KindDatabase      = "database"
	KindUser          = "user"
	KindReplica       = "replica"
	KindFlag          = "flag"
	KindSecretRequest = "secret_request"
	KindMissing       = "missing"
	KindUnmanaged     = "unmanaged"
)

var (
	// Plan metrics

	// PlansTotal tracks plan assemblies by engine family and outcome
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Total number of plan assemblies",
		},
		[]string{labelFamily, labelStatus},
	)

	// PlanDurationSeconds tracks how long plan assembly takes
	PlanDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Duration of plan assembly in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{labelFamily},
	)

	// ValidationErrorsTotal tracks validation errors by reason
	ValidationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Total number of validation errors by reason",
		},
		[]string{labelReason},
	)

	// PlanWarningsTotal tracks warnings emitted while planning
	PlanWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_warnings_total",
			Help:      "Total number of plan warnings",
		},
		[]string{labelFamily},
	)

	// PlannedResources holds the resource counts of the most recent plan
	PlannedResources = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "planned_resources",
			Help:      "Number of resources in the most recent plan by kind",
		},
		[]string{labelKind},
	)

	// Publish metrics

	// PublishOperationsTotal tracks plan uploads by storage backend
	PublishOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_operations_total",
			Help:      "Total number of plan publish operations",
		},
		[]string{labelBackend, labelStatus},
	)

	// PublishDurationSeconds tracks the duration of plan uploads
	PublishDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of plan publish operations in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{labelBackend},
	)

	// PublishedBytesTotal tracks the bytes written to storage
	PublishedBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_bytes_total",
			Help:      "Total bytes of published plans after compression",
		},
		[]string{labelBackend},
	)

	// ScheduledPublishTotal tracks publish runs triggered by a cron schedule
	ScheduledPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_publish_total",
			Help:      "Total number of scheduled publish runs",
		},
		[]string{labelStatus},
	)

	// Verification metrics

	// VerifyRunsTotal tracks verification runs against live instances
	VerifyRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_runs_total",
			Help:      "Total number of plan verification runs",
		},
		[]string{labelFamily, labelStatus},
	)

	// VerifyDriftObjects holds the drift found by the most recent verification
	VerifyDriftObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "verify_drift_objects",
			Help:      "Number of missing or unmanaged objects found by the most recent verification",
		},
		[]string{labelKind},
	)

	// HTTP metrics

	// HTTPRequestsTotal tracks API requests by route and status code
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{labelRoute, labelCode},
	)
)

func init() {
	// Register all metrics with the controller-runtime metrics registry
	metrics.Registry.MustRegister(
		// Plan metrics
		PlansTotal,
		PlanDurationSeconds,
		ValidationErrorsTotal,
		PlanWarningsTotal,
		PlannedResources,

		// Publish metrics
		PublishOperationsTotal,
		PublishDurationSeconds,
		PublishedBytesTotal,
		ScheduledPublishTotal,

		// Verification metrics
		VerifyRunsTotal,
		VerifyDriftObjects,

		// HTTP metrics
		HTTPRequestsTotal,
	)
}

// RecordPlan records a plan assembly with its status
func RecordPlan(family, status string) {
	PlansTotal.WithLabelValues(family, status).Inc()
}

// RecordPlanDuration records the duration of a plan assembly
func RecordPlanDuration(family string, seconds float64) {
	PlanDurationSeconds.WithLabelValues(family).Observe(seconds)
}

// RecordValidationError records one validation error
func RecordValidationError(reason string) {
	ValidationErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordPlanWarnings adds n warnings for a family
func RecordPlanWarnings(family string, n int) {
	PlanWarningsTotal.WithLabelValues(family).Add(float64(n))
}

// SetPlannedResources sets the resource count for a kind
func SetPlannedResources(kind string, count int) {
	PlannedResources.WithLabelValues(kind).Set(float64(count))
}

// RecordPublishOperation records a publish with its status
func RecordPublishOperation(backend, status string) {
	PublishOperationsTotal.WithLabelValues(backend, status).Inc()
}

// RecordPublishDuration records the duration of a publish
func RecordPublishDuration(backend string, seconds float64) {
	PublishDurationSeconds.WithLabelValues(backend).Observe(seconds)
}

// RecordPublishedBytes adds the number of bytes written
func RecordPublishedBytes(backend string, n int) {
	PublishedBytesTotal.WithLabelValues(backend).Add(float64(n))
}

// RecordScheduledPublish records a scheduled publish run
func RecordScheduledPublish(status string) {
	ScheduledPublishTotal.WithLabelValues(status).Inc()
}

// RecordVerifyRun records a verification run
func RecordVerifyRun(family, status string) {
	VerifyRunsTotal.WithLabelValues(family, status).Inc()
}

// SetVerifyDrift sets the number of missing and unmanaged objects
func SetVerifyDrift(missing, unmanaged int) {
	VerifyDriftObjects.WithLabelValues(KindMissing).Set(float64(missing))
	VerifyDriftObjects.WithLabelValues(KindUnmanaged).Set(float64(unmanaged))
}

// RecordHTTPRequest records an API request
func RecordHTTPRequest(route, code string) {
	HTTPRequestsTotal.WithLabelValues(route, code).Inc()
}
