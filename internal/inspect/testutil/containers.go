//go:build integration

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

package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docker/go-connections/nat"
	gomysql "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mariadb"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sql-instance-planner/api/v1alpha1"
)

const (
	testUser     = "sqlplan"
	testPassword = "sqlplan-test"
	testDatabase = "seed"
)

// Container is a throwaway database server for inspector tests
type Container struct {
	container testcontainers.Container
	family    v1alpha1.EngineFamily
	host      string
	port      int
}

// StartContainer starts a server for engine, one of postgres, mysql or mariadb.
func StartContainer(ctx context.Context, engine string) (*Container, error) {
	var (
		c       testcontainers.Container
		family  v1alpha1.EngineFamily
		natPort string
		err     error
	)

	switch engine {
	case "postgres":
		family, natPort = v1alpha1.EngineFamilyPostgres, "5432/tcp"
		c, err = postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithUsername(testUser),
			postgres.WithPassword(testPassword),
			postgres.WithDatabase(testDatabase),
			postgres.BasicWaitStrategies(),
		)
	case "mysql":
		family, natPort = v1alpha1.EngineFamilyMySQL, "3306/tcp"
		c, err = mysql.Run(ctx, "mysql:8",
			mysql.WithUsername("root"),
			mysql.WithPassword(testPassword),
			mysql.WithDatabase(testDatabase),
		)
	case "mariadb":
		family, natPort = v1alpha1.EngineFamilyMySQL, "3306/tcp"
		c, err = mariadb.Run(ctx, "mariadb:11.2",
			mariadb.WithUsername("root"),
			mariadb.WithPassword(testPassword),
			mariadb.WithDatabase(testDatabase),
		)
	default:
		return nil, fmt.Errorf("unsupported engine: %s", engine)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", engine, err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s host: %w", engine, err)
	}
	port, err := c.MappedPort(ctx, nat.Port(natPort))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s port: %w", engine, err)
	}

	return &Container{container: c, family: family, host: host, port: port.Int()}, nil
}

// Family is the engine family the container speaks
func (c *Container) Family() v1alpha1.EngineFamily {
	return c.family
}

// DSN returns a connection string in the format the family's inspector expects
func (c *Container) DSN() string {
	if c.family == v1alpha1.EngineFamilyPostgres {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			testUser, testPassword, c.host, c.port, testDatabase)
	}
	cfg := gomysql.NewConfig()
	cfg.User = "root"
	cfg.Passwd = testPassword
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.host, c.port)
	cfg.DBName = testDatabase
	return cfg.FormatDSN()
}

// Exec runs setup statements against the server
func (c *Container) Exec(ctx context.Context, statements ...string) error {
	driver := "mysql"
	if c.family == v1alpha1.EngineFamilyPostgres {
		driver = "pgx"
	}
	db, err := sql.Open(driver, c.DSN())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Stop terminates the container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	return c.container.Terminate(ctx)
}
