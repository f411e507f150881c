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

package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

var _ = Describe("GenerateID", func() {
	It("should return an 8-character hex string", func() {
		id := GenerateID()
		Expect(id).To(HaveLen(8))
		Expect(id).To(MatchRegexp("^[0-9a-f]{8}$"))
	})

	It("should produce unique values on successive calls", func() {
		ids := make(map[string]struct{}, 100)
		for i := 0; i < 100; i++ {
			ids[GenerateID()] = struct{}{}
		}
		Expect(ids).To(HaveLen(100))
	})

	It("should only contain lowercase hex characters", func() {
		for i := 0; i < 50; i++ {
			Expect(regexp.MustCompile(`^[0-9a-f]+$`).MatchString(GenerateID())).To(BeTrue())
		}
	})
})

var _ = Describe("IDFromContext", func() {
	It("should return empty string from empty context", func() {
		Expect(IDFromContext(context.Background())).To(BeEmpty())
	})

	It("should round-trip a request ID through context", func() {
		ctx := WithRequestID(context.Background(), logr.Discard(), "abc12345")
		Expect(IDFromContext(ctx)).To(Equal("abc12345"))
		_, err := logr.FromContext(ctx)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Middleware", func() {
	var baseLog logr.Logger

	BeforeEach(func() {
		baseLog = zap.New(zap.UseDevMode(true), zap.WriteTo(GinkgoWriter))
	})

	It("should inject a request ID before calling the inner handler", func() {
		var captured string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = IDFromContext(r.Context())
			logr.FromContextOrDiscard(r.Context()).Info("inside handler")
			w.WriteHeader(http.StatusTeapot)
		})

		rec := httptest.NewRecorder()
		Middleware(baseLog, inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		Expect(captured).To(MatchRegexp("^[0-9a-f]{8}$"))
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal(captured))
		Expect(rec.Code).To(Equal(http.StatusTeapot))
	})

	It("should reuse an incoming request ID", func() {
		var captured string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = IDFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "feedbeef")
		rec := httptest.NewRecorder()
		Middleware(baseLog, inner).ServeHTTP(rec, req)

		Expect(captured).To(Equal("feedbeef"))
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal("feedbeef"))
	})

	It("should generate a different ID for each request", func() {
		ids := map[string]struct{}{}
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ids[IDFromContext(r.Context())] = struct{}{}
		})
		h := Middleware(baseLog, inner)
		for i := 0; i < 10; i++ {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}
		Expect(ids).To(HaveLen(10))
	})
})

var _ = Describe("New", func() {
	It("should honour the level", func() {
		var buf bytes.Buffer
		log := New(Options{Level: "info", Writer: &buf})
		log.V(1).Info("hidden")
		log.Info("shown")
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("shown"))

		buf.Reset()
		log = New(Options{Level: "debug", Writer: &buf})
		log.V(1).Info("verbose")
		Expect(buf.String()).To(ContainSubstring("verbose"))
	})

	It("should parse level names", func() {
		Expect(ParseLevel("DEBUG")).To(Equal(zapcore.DebugLevel))
		Expect(ParseLevel("warning")).To(Equal(zapcore.WarnLevel))
		Expect(ParseLevel("bogus")).To(Equal(zapcore.InfoLevel))
	})
})
