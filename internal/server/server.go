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

// Package server exposes plan assembly over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/logging"
	"github.com/sql-instance-planner/internal/metrics"
	"github.com/sql-instance-planner/internal/normalizer"
	"github.com/sql-instance-planner/internal/service"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 1 << 20

const (
	routePlans   = "/v1/plans"
	routeRender  = "/v1/plans/render"
	routeHealthz = "/healthz"
	routeMetrics = "/metrics"
)

// Options configures a Server
type Options struct {
	Plans  *service.PlanService
	Logger logr.Logger

	// Gatherer serves /metrics, defaults to the controller-runtime registry
	Gatherer prometheus.Gatherer

	// ShutdownTimeout bounds graceful shutdown, defaults to 10s
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end of the plan service.
type Server struct {
	plans           *service.PlanService
	log             logr.Logger
	handler         http.Handler
	shutdownTimeout time.Duration
}

// New creates a Server and its routes
func New(opts Options) *Server {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = ctrlmetrics.Registry
	}
	timeout := opts.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	s := &Server{plans: opts.Plans, log: log.WithName("server"), shutdownTimeout: timeout}

	mux := http.NewServeMux()
	mux.Handle("POST "+routePlans, s.instrument(routePlans, s.handlePlan))
	mux.Handle("POST "+routeRender, s.instrument(routeRender, s.handleRender))
	mux.Handle("GET "+routeHealthz, s.instrument(routeHealthz, s.handleHealthz))
	mux.Handle("GET "+routeMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.handler = logging.Middleware(s.log, mux)
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		metrics.RecordHTTPRequest(route, strconv.Itoa(sw.status))
	})
}

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Error  string                        `json:"error,omitempty"`
	Errors []*normalizer.ValidationError `json:"errors,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logr.FromContextOrDiscard(r.Context()).Error(err, "failed to write response")
	}
}

// writeError maps service errors to status codes: validation failures are
// 422, undecodable input is 400 and everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verrs := normalizer.ValidationErrors(err); len(verrs) > 0 {
		s.writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Errors: verrs})
		return
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		s.writeJSON(w, r, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logr.FromContextOrDiscard(r.Context()).Error(err, "request failed")
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	instance, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.plans.Plan(r.Context(), instance)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, plan)
}

// handleRender never includes secret values
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	instance, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payloads, err := s.plans.Render(r.Context(), instance, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, payloads)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*v1alpha1.SQLInstance, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, err
	}
	return service.DecodeInstance(data)
}
