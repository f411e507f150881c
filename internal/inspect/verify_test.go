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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/sql-instance-planner/api/v1alpha1"
	"github.com/sql-instance-planner/internal/normalizer"
)

type fakeInspector struct {
	databases []string
	users     []string
	dbErr     error
	userErr   error
	closed    bool
}

func (f *fakeInspector) ListDatabases(context.Context) ([]string, error) {
	return f.databases, f.dbErr
}

func (f *fakeInspector) ListUsers(context.Context) ([]string, error) {
	return f.users, f.userErr
}

func (f *fakeInspector) Close() error {
	f.closed = true
	return nil
}

func assemble(spec v1alpha1.SQLInstanceSpec) *normalizer.Plan {
	n, err := normalizer.New(normalizer.Options{Project: "acme"})
	Expect(err).NotTo(HaveOccurred())
	plan, err := n.AssemblePlan(&v1alpha1.SQLInstance{
		ObjectMeta: metav1.ObjectMeta{Name: "orders"},
		Spec:       spec,
	})
	Expect(err).NotTo(HaveOccurred())
	return plan
}

var _ = Describe("Verify", func() {
	var plan *normalizer.Plan

	BeforeEach(func() {
		plan = assemble(v1alpha1.SQLInstanceSpec{
			DatabaseVersion: "POSTGRES_15",
			Databases:       []v1alpha1.DatabaseSpec{{Name: "orders"}, {Name: "audit"}},
			Users:           []v1alpha1.UserSpec{{Name: "app"}, {Name: "reporting"}},
		})
	})

	It("is in sync when everything exists", func() {
		report, err := Verify(context.Background(), plan, &fakeInspector{
			databases: []string{"audit", "orders"},
			users:     []string{"app", "reporting"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.InSync()).To(BeTrue())
		Expect(report.Instance).To(Equal("orders"))
		Expect(report.Family).To(Equal("POSTGRES"))
		Expect(report.MissingCount()).To(Equal(0))
		Expect(report.UnmanagedCount()).To(Equal(0))
	})

	It("reports missing and unmanaged objects sorted", func() {
		report, err := Verify(context.Background(), plan, &fakeInspector{
			databases: []string{"zeta", "orders", "legacy"},
			users:     []string{"app", "dba"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.InSync()).To(BeFalse())
		Expect(report.MissingDatabases).To(Equal([]string{"audit"}))
		Expect(report.MissingUsers).To(Equal([]string{"reporting"}))
		Expect(report.UnmanagedDatabases).To(Equal([]string{"legacy", "zeta"}))
		Expect(report.UnmanagedUsers).To(Equal([]string{"dba"}))
	})

	It("stays in sync with only unmanaged objects", func() {
		report, err := Verify(context.Background(), plan, &fakeInspector{
			databases: []string{"audit", "orders", "scratch"},
			users:     []string{"app", "reporting"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.InSync()).To(BeTrue())
		Expect(report.UnmanagedDatabases).To(ConsistOf("scratch"))
	})

	It("matches default database and user by their planned names", func() {
		plan = assemble(v1alpha1.SQLInstanceSpec{
			DatabaseVersion:       "MYSQL_8_0",
			EnableDefaultDatabase: true,
			EnableDefaultUser:     true,
		})
		report, err := Verify(context.Background(), plan, &fakeInspector{
			databases: []string{"default"},
			users:     []string{"default"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.InSync()).To(BeTrue())
	})

	It("returns inspector errors", func() {
		_, err := Verify(context.Background(), plan, &fakeInspector{dbErr: errors.New("timeout")})
		Expect(err).To(MatchError("timeout"))

		_, err = Verify(context.Background(), plan, &fakeInspector{userErr: errors.New("denied")})
		Expect(err).To(MatchError("denied"))
	})
})

var _ = Describe("difference", func() {
	It("deduplicates and sorts", func() {
		Expect(difference([]string{"b", "a", "b", "c"}, []string{"c"})).To(Equal([]string{"a", "b"}))
	})

	It("returns nil when nothing differs", func() {
		Expect(difference([]string{"a"}, []string{"a"})).To(BeNil())
	})
})
