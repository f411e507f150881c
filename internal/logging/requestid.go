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
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

// RequestIDHeader carries the correlation ID on HTTP requests and responses
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the unexported context key for storing the request ID.
type requestIDKey struct{}

// GenerateID returns a random 8-character lowercase hex string suitable
// for log correlation.
func GenerateID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// WithRequestID stores id in ctx and attaches a logger carrying it.
func WithRequestID(ctx context.Context, log logr.Logger, id string) context.Context {
	ctx = logr.NewContext(ctx, log.WithValues("requestID", id))
	return context.WithValue(ctx, requestIDKey{}, id)
}

// IDFromContext retrieves the request ID from context.
// Returns an empty string if no request ID is present.
func IDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Middleware assigns every request a correlation ID, echoes it in the response
// and puts a request-scoped logger in the context. An incoming X-Request-ID is reused.
func Middleware(log logr.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = GenerateID()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := WithRequestID(r.Context(), log, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		logr.FromContextOrDiscard(ctx).V(1).Info("handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
