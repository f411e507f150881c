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

// Package inspect reads the databases and users that exist on a live instance
// and compares them with a plan. It never writes to the instance.
package inspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// ErrUnsupportedFamily is returned for engine families without an inspector
var ErrUnsupportedFamily = errors.New("engine family cannot be inspected")

// Inspector lists the user-created objects of an instance. System databases
// and users are never returned.
type Inspector interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListUsers(ctx context.Context) ([]string, error)
	Close() error
}

// Open connects to a live instance of the given family. The DSN format is the
// one the family's driver accepts.
func Open(ctx context.Context, family v1alpha1.EngineFamily, dsn string) (Inspector, error) {
	if dsn == "" {
		return nil, errors.New("DSN is required")
	}
	switch family {
	case v1alpha1.EngineFamilyPostgres:
		return OpenPostgres(ctx, dsn)
	case v1alpha1.EngineFamilyMySQL:
		return OpenMySQL(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFamily, family)
	}
}
