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

package inspect

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresDatabasesQuery = `
		SELECT datname
		FROM pg_database
		WHERE datistemplate = false
		  AND datname NOT IN ('postgres', 'template0', 'template1', 'cloudsqladmin')
		ORDER BY datname`

	// rolcanlogin separates users from group roles
	postgresUsersQuery = `
		SELECT rolname
		FROM pg_roles
		WHERE rolcanlogin = true
		  AND rolname != 'postgres'
		  AND rolname NOT LIKE 'pg\_%'
		  AND rolname NOT LIKE 'cloudsql%'
		ORDER BY rolname`
)

// pgQuerier is the subset of pgxpool.Pool the inspector uses
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresInspector inspects a PostgreSQL instance through a pgx pool.
type PostgresInspector struct {
	pool pgQuerier
}

// OpenPostgres connects with a pgx connection string, either URL or keyword/value form.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresInspector, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if _, err := retry(ctx, connectRetry, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresInspector{pool: pool}, nil
}

// ListDatabases returns every non-template database except the built-in ones.
func (i *PostgresInspector) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := queryNames(ctx, i.pool, postgresDatabasesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return names, nil
}

// ListUsers returns login roles, leaving out postgres, pg_* and the Cloud SQL agents.
func (i *PostgresInspector) ListUsers(ctx context.Context) ([]string, error) {
	names, err := queryNames(ctx, i.pool, postgresUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return names, nil
}

func (i *PostgresInspector) Close() error {
	i.pool.Close()
	return nil
}

func queryNames(ctx context.Context, q pgQuerier, query string) ([]string, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return names, nil
}
