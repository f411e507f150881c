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
	"context"

	"github.com/go-logr/logr"

	"github.com/sql-instance-planner/internal/logging"
)

// baseService provides the logger shared by PlanService and PublishService.
type baseService struct {
	log logr.Logger
}

// newBaseService names the configured logger after the service.
func newBaseService(cfg *Config, serviceName string) baseService {
	return baseService{
		log: cfg.GetLogger().WithName(serviceName),
	}
}

// startOp starts an operation logger. When ctx carries a request ID it is
// attached to every line.
func (b *baseService) startOp(ctx context.Context, operation, resource string) *operationLogger {
	log := b.log
	if id := logging.IDFromContext(ctx); id != "" {
		log = log.WithValues("requestID", id)
	}
	return startOperation(log, operation, resource)
}
