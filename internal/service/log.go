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

package service

import (
	"time"

	"github.com/go-logr/logr"
)

// operationLogger tracks one service operation and logs its outcome with duration.
//
// Usage:
//
//	op := s.startOp("Plan", instance.Name)
//	if err != nil {
//	    op.Error(err, "plan rejected")
//	    return err
//	}
//	op.Success("plan assembled")
type operationLogger struct {
	log       logr.Logger
	operation string
	resource  string
	start     time.Time
}

// startOperation logs the operation start at V(1).
func startOperation(log logr.Logger, operation, resource string) *operationLogger {
	ol := &operationLogger{
		log:       log.WithValues("operation", operation, "resource", resource),
		operation: operation,
		resource:  resource,
		start:     time.Now(),
	}
	ol.log.V(1).Info("starting operation")
	return ol
}

// Elapsed returns the time since the operation started
func (ol *operationLogger) Elapsed() time.Duration {
	return time.Since(ol.start)
}

// Success logs successful completion with duration.
func (ol *operationLogger) Success(msg string, keysAndValues ...interface{}) {
	ol.log.Info(msg, append(keysAndValues, "duration", ol.Elapsed().String())...)
}

// Error logs an error with operation context and duration.
func (ol *operationLogger) Error(err error, msg string) {
	ol.log.Error(err, msg, "duration", ol.Elapsed().String())
}

// Debug logs at V(1).
func (ol *operationLogger) Debug(msg string, keysAndValues ...interface{}) {
	ol.log.V(1).Info(msg, keysAndValues...)
}

func (ol *operationLogger) Info(msg string, keysAndValues ...interface{}) {
	ol.log.Info(msg, keysAndValues...)
}

// WithValues returns a new operationLogger with additional key-value pairs.
func (ol *operationLogger) WithValues(keysAndValues ...interface{}) *operationLogger {
	return &operationLogger{
		log:       ol.log.WithValues(keysAndValues...),
		operation: ol.operation,
		resource:  ol.resource,
		start:     ol.start,
	}
}
