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
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MySQLInspector", func() {
	var (
		ctx       context.Context
		db        *sql.DB
		mock      sqlmock.Sqlmock
		inspector *MySQLInspector
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, mock, err = sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		Expect(err).NotTo(HaveOccurred())
		inspector = NewMySQLInspector(db)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("ListDatabases", func() {
		It("reads schemas from INFORMATION_SCHEMA", func() {
			mock.ExpectQuery(`SELECT SCHEMA_NAME\s+FROM INFORMATION_SCHEMA\.SCHEMATA`).
				WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).AddRow("inventory").AddRow("orders"))

			names, err := inspector.ListDatabases(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"inventory", "orders"}))
		})

		It("wraps query errors", func() {
			mock.ExpectQuery(`INFORMATION_SCHEMA\.SCHEMATA`).WillReturnError(errors.New("access denied"))

			_, err := inspector.ListDatabases(ctx)
			Expect(err).To(MatchError("failed to list databases: access denied"))
		})
	})

	Describe("ListUsers", func() {
		It("reads distinct users from mysql.user", func() {
			mock.ExpectQuery(`SELECT DISTINCT User\s+FROM mysql\.user`).
				WillReturnRows(sqlmock.NewRows([]string{"User"}).AddRow("app").AddRow("batch"))

			names, err := inspector.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"app", "batch"}))
		})

		It("filters root and the Cloud SQL agents", func() {
			Expect(mysqlUsersQuery).To(ContainSubstring("User != 'root'"))
			Expect(mysqlUsersQuery).To(ContainSubstring("NOT LIKE 'cloudsql%'"))
		})

		It("fails on scan errors", func() {
			mock.ExpectQuery(`FROM mysql\.user`).
				WillReturnRows(sqlmock.NewRows([]string{"User"}).AddRow(nil))

			_, err := inspector.ListUsers(ctx)
			Expect(err).To(MatchError(ContainSubstring("failed to scan name")))
		})
	})

	It("closes the database", func() {
		mock.ExpectClose()
		Expect(inspector.Close()).To(Succeed())
	})
})
