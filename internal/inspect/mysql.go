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
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlDatabasesQuery = `
		SELECT SCHEMA_NAME
		FROM INFORMATION_SCHEMA.SCHEMATA
		WHERE SCHEMA_NAME NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY SCHEMA_NAME`

	// DISTINCT because one user may exist for several hosts
	mysqlUsersQuery = `
		SELECT DISTINCT User
		FROM mysql.user
		WHERE User != 'root'
		  AND User != ''
		  AND User NOT LIKE 'mysql.%'
		  AND User NOT LIKE 'mariadb.%'
		  AND User NOT LIKE 'debian-sys-%'
		  AND User NOT LIKE 'cloudsql%'
		ORDER BY User`

	defaultMySQLTimeout = 10 * time.Second
)

// MySQLInspector inspects a MySQL instance through database/sql.
type MySQLInspector struct {
	db *sql.DB
}

// NewMySQLInspector wraps an open database handle
func NewMySQLInspector(db *sql.DB) *MySQLInspector {
	return &MySQLInspector{db: db}
}

// OpenMySQL connects with a go-sql-driver DSN such as user:pass@tcp(host:3306)/.
func OpenMySQL(ctx context.Context, dsn string) (*MySQLInspector, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultMySQLTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultMySQLTimeout
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := retry(ctx, connectRetry, db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewMySQLInspector(db), nil
}

// ListDatabases returns every schema except the MySQL system schemas.
func (i *MySQLInspector) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := i.queryNames(ctx, mysqlDatabasesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return names, nil
}

// ListUsers returns distinct user names, leaving out root, the internal
// mysql.* and mariadb.* accounts and the Cloud SQL agents.
func (i *MySQLInspector) ListUsers(ctx context.Context) ([]string, error) {
	names, err := i.queryNames(ctx, mysqlUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return names, nil
}

func (i *MySQLInspector) Close() error {
	return i.db.Close()
}

func (i *MySQLInspector) queryNames(ctx context.Context, query string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
