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

package normalizer

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sql-instance-planner/api/v1alpha1"
)

// DiskPlan is the resolved data disk of an instance
type DiskPlan struct {
	SizeGb          int64             `json:"sizeGb"`
	Type            v1alpha1.DiskType `json:"type"`
	Autoresize      bool              `json:"autoresize"`
	AutoresizeLimit int64             `json:"autoresizeLimit,omitempty"`
}

// InstancePlan is the resolved primary instance.
type InstancePlan struct {
	Project            string                      `json:"project"`
	Name               string                      `json:"name"`
	Region             string                      `json:"region"`
	Zone               string                      `json:"zone,omitempty"`
	SecondaryZone      string                      `json:"secondaryZone,omitempty"`
	DatabaseVersion    string                      `json:"databaseVersion"`
	Family             v1alpha1.EngineFamily       `json:"family"`
	Edition            v1alpha1.Edition            `json:"edition,omitempty"`
	Tier               string                      `json:"tier"`
	Disk               DiskPlan                    `json:"disk"`
	AvailabilityType   v1alpha1.AvailabilityType   `json:"availabilityType"`
	EncryptionKeyName  string                      `json:"encryptionKeyName,omitempty"`
	DeletionProtection bool                        `json:"deletionProtection"`
	Network            NetworkPlan                 `json:"network"`
	Backup             BackupPolicy                `json:"backup"`
	MaintenanceWindow  *v1alpha1.MaintenanceWindow `json:"maintenanceWindow,omitempty"`
	Insights           *v1alpha1.InsightsConfig    `json:"insights,omitempty"`
	UserLabels         map[string]string           `json:"userLabels,omitempty"`
	RootPassword       string                      `json:"-"`
	RootPasswordPolicy PasswordPolicy              `json:"rootPasswordPolicy,omitempty"`
	RootPasswordRef    string                      `json:"rootPasswordRef,omitempty"`
}

// DatabasePlan is a resolved logical database
type DatabasePlan struct {
	Name      string `json:"name"`
	Charset   string `json:"charset,omitempty"`
	Collation string `json:"collation,omitempty"`
}

// ReplicaPlan is a resolved read replica.
type ReplicaPlan struct {
	Key                string                    `json:"key"`
	Name               string                    `json:"name"`
	MasterInstanceName string                    `json:"masterInstanceName"`
	Region             string                    `json:"region"`
	DatabaseVersion    string                    `json:"databaseVersion"`
	Tier               string                    `json:"tier"`
	Zone               string                    `json:"zone,omitempty"`
	Disk               DiskPlan                  `json:"disk"`
	Network            NetworkPlan               `json:"network"`
	EncryptionKeyName  string                    `json:"encryptionKeyName,omitempty"`
	UserLabels         map[string]string         `json:"userLabels,omitempty"`
	Flags              []v1alpha1.DatabaseFlag   `json:"flags,omitempty"`
	AvailabilityType   v1alpha1.AvailabilityType `json:"availabilityType"`
}

// SecretRequest asks the secret collaborator for one generated value.
type SecretRequest struct {
	Name        string `json:"name"`
	For         string `json:"for"`
	Length      int    `json:"length"`
	Digits      int    `json:"digits"`
	Symbols     int    `json:"symbols"`
	NoUpper     bool   `json:"noUpper,omitempty"`
	AllowRepeat bool   `json:"allowRepeat,omitempty"`
}

// Warning is a non-fatal remark about the input.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Plan is the normalized, conflict-free provisioning plan.
// It is built once by AssemblePlan and not modified afterwards.
type Plan struct {
	Policy         string                                      `json:"policy"`
	Instance       InstancePlan                                `json:"instance"`
	Databases      *orderedmap.OrderedMap[string, DatabasePlan] `json:"databases"`
	Users          *orderedmap.OrderedMap[string, UserPlan]     `json:"users"`
	Replicas       *orderedmap.OrderedMap[string, ReplicaPlan]  `json:"replicas"`
	Flags          []v1alpha1.DatabaseFlag                     `json:"flags,omitempty"`
	SecretRequests []SecretRequest                             `json:"secretRequests,omitempty"`
	Warnings       []Warning                                   `json:"warnings,omitempty"`
}

func newPlan() *Plan {
	return &Plan{
		Databases: orderedmap.New[string, DatabasePlan](),
		Users:     orderedmap.New[string, UserPlan](),
		Replicas:  orderedmap.New[string, ReplicaPlan](),
	}
}

// DatabaseList returns the databases in plan order
func (p *Plan) DatabaseList() []DatabasePlan {
	return values(p.Databases)
}

// UserList returns the users in plan order
func (p *Plan) UserList() []UserPlan {
	return values(p.Users)
}

// ReplicaList returns the replicas in plan order
func (p *Plan) ReplicaList() []ReplicaPlan {
	return values(p.Replicas)
}

// SecretRequest looks up a secret request by name.
func (p *Plan) SecretRequest(name string) (SecretRequest, bool) {
	for _, r := range p.SecretRequests {
		if r.Name == name {
			return r, true
		}
	}
	return SecretRequest{}, false
}

func values[V any](m *orderedmap.OrderedMap[string, V]) []V {
	if m == nil {
		return nil
	}
	out := make([]V, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
