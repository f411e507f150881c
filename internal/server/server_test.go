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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sql-instance-planner/internal/logging"
	"github.com/sql-instance-planner/internal/service"
)

const postgresInstance = `apiVersion: sqlplan.io/v1alpha1
kind: SQLInstance
metadata:
  name: orders
spec:
  databaseVersion: POSTGRES_15
  databases:
    - name: orders
  users:
    - name: app
    - name: legacy
      password: provided-secret
`

var _ = Describe("Server", func() {
	var (
		srv     *Server
		handler http.Handler
	)

	BeforeEach(func() {
		plans, err := service.NewPlanService(service.NewConfigBuilder().WithProject("acme").MustBuild())
		Expect(err).NotTo(HaveOccurred())

		registry := prometheus.NewRegistry()
		registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "sqlplan_test_total", Help: "test"}))

		srv = New(Options{Plans: plans, Gatherer: registry})
		handler = srv.Handler()
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	Describe("POST /v1/plans", func() {
		It("returns the plan for a YAML body", func() {
			rec := do(http.MethodPost, "/v1/plans", postgresInstance)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var plan map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &plan)).To(Succeed())
			Expect(plan).To(HaveKeyWithValue("policy", "default"))
			Expect(plan["instance"]).To(HaveKeyWithValue("project", "acme"))
			Expect(plan["databases"]).To(HaveKey("orders"))
			Expect(rec.Body.String()).NotTo(ContainSubstring("provided-secret"))
		})

		It("accepts JSON", func() {
			rec := do(http.MethodPost, "/v1/plans", `{"metadata":{"name":"billing"},"spec":{"databaseVersion":"MYSQL_8_0"}}`)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"name":"billing"`))
		})

		It("returns 422 with every validation error", func() {
			rec := do(http.MethodPost, "/v1/plans", `{"metadata":{"name":"orders"},"spec":{
				"databaseVersion":"POSTGRES_15",
				"ipConfiguration":{"ipv4Enabled":false},
				"insights":{"enabled":true,"queryStringLength":10}}}`)
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

			var body struct {
				Errors []struct {
					Field   string `json:"field"`
					Reason  string `json:"reason"`
					Message string `json:"message"`
				} `json:"errors"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			var reasons []string
			for _, e := range body.Errors {
				Expect(e.Field).NotTo(BeEmpty())
				reasons = append(reasons, e.Reason)
			}
			Expect(reasons).To(ContainElements("MissingNetworkPath", "InvalidFieldRange"))
		})

		It("returns 400 for an undecodable body", func() {
			rec := do(http.MethodPost, "/v1/plans", "spec: [")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("invalid input"))
		})

		It("returns 400 for the wrong kind", func() {
			rec := do(http.MethodPost, "/v1/plans", "apiVersion: sqlplan.io/v1alpha1\nkind: PlanPolicy\nspec: {}\n")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 413 for oversized bodies", func() {
			rec := do(http.MethodPost, "/v1/plans", strings.Repeat("#", MaxBodyBytes+1))
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("rejects other methods", func() {
			rec := do(http.MethodGet, "/v1/plans", "")
			Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("POST /v1/plans/render", func() {
		It("returns payloads without passwords", func() {
			rec := do(http.MethodPost, "/v1/plans/render", postgresInstance)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var payloads struct {
				Instances []map[string]any `json:"instances"`
				Users     []map[string]any `json:"users"`
			}
			Expect(json.Unmarshal(rec.Body.Bytes(), &payloads)).To(Succeed())
			Expect(payloads.Instances).To(HaveLen(1))
			Expect(payloads.Users).To(HaveLen(2))
			for _, u := range payloads.Users {
				Expect(u).NotTo(HaveKey("password"))
			}
		})
	})

	Describe("GET /healthz", func() {
		It("reports ok", func() {
			rec := do(http.MethodGet, "/healthz", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"status":"ok"}`))
		})
	})

	Describe("GET /metrics", func() {
		It("serves the configured gatherer", func() {
			rec := do(http.MethodGet, "/metrics", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("sqlplan_test_total"))
		})
	})

	Describe("request IDs", func() {
		It("generates one when absent", func() {
			rec := do(http.MethodGet, "/healthz", "")
			Expect(rec.Header().Get(logging.RequestIDHeader)).To(HaveLen(8))
		})

		It("echoes an incoming one", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(logging.RequestIDHeader, "abc123")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			Expect(rec.Header().Get(logging.RequestIDHeader)).To(Equal("abc123"))
		})
	})

	Describe("Run", func() {
		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
