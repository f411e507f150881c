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
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/sql-instance-planner/api/v1alpha1"
)

var _ = Describe("PostgresInspector", func() {
	var (
		ctx       context.Context
		mock      pgxmock.PgxPoolIface
		inspector *PostgresInspector
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		mock, err = pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
		Expect(err).NotTo(HaveOccurred())
		inspector = &PostgresInspector{pool: mock}
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("ListDatabases", func() {
		It("returns the rows in order", func() {
			mock.ExpectQuery(`SELECT datname\s+FROM pg_database\s+WHERE datistemplate = false`).
				WillReturnRows(pgxmock.NewRows([]string{"datname"}).AddRow("audit").AddRow("orders"))

			names, err := inspector.ListDatabases(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"audit", "orders"}))
		})

		It("excludes the Cloud SQL admin database", func() {
			Expect(postgresDatabasesQuery).To(ContainSubstring("'cloudsqladmin'"))
		})

		It("wraps query errors", func() {
			mock.ExpectQuery(`FROM pg_database`).WillReturnError(errors.New("connection reset"))

			_, err := inspector.ListDatabases(ctx)
			Expect(err).To(MatchError(ContainSubstring("failed to list databases: connection reset")))
		})

		It("returns nil for an empty instance", func() {
			mock.ExpectQuery(`FROM pg_database`).WillReturnRows(pgxmock.NewRows([]string{"datname"}))

			names, err := inspector.ListDatabases(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})
	})

	Describe("ListUsers", func() {
		It("queries login roles only", func() {
			mock.ExpectQuery(`SELECT rolname\s+FROM pg_roles\s+WHERE rolcanlogin = true`).
				WillReturnRows(pgxmock.NewRows([]string{"rolname"}).AddRow("app").AddRow("reporting"))

			names, err := inspector.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"app", "reporting"}))
		})

		It("reports row errors", func() {
			rows := pgxmock.NewRows([]string{"rolname"}).AddRow("app").RowError(0, errors.New("bad row"))
			mock.ExpectQuery(`FROM pg_roles`).WillReturnRows(rows)

			_, err := inspector.ListUsers(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to list users"))
		})
	})

	It("closes the pool", func() {
		mock.ExpectClose()
		Expect(inspector.Close()).To(Succeed())
	})
})

var _ = Describe("Open", func() {
	It("requires a DSN", func() {
		_, err := Open(context.Background(), v1alpha1.EngineFamilyPostgres, "")
		Expect(err).To(MatchError("DSN is required"))
	})

	DescribeTable("rejects families without an inspector",
		func(family v1alpha1.EngineFamily) {
			_, err := Open(context.Background(), family, "sqlserver://localhost")
			Expect(err).To(MatchError(ErrUnsupportedFamily))
		},
		Entry("SQL Server", v1alpha1.EngineFamilySQLServer),
		Entry("unknown", v1alpha1.EngineFamilyUnknown),
	)

	It("rejects a malformed postgres DSN", func() {
		_, err := OpenPostgres(context.Background(), "postgres://%zz")
		Expect(err).To(MatchError(ContainSubstring("failed to parse connection string")))
	})

	It("rejects a malformed mysql DSN", func() {
		_, err := OpenMySQL(context.Background(), "not a dsn")
		Expect(err).To(MatchError(ContainSubstring("failed to parse DSN")))
	})
})
