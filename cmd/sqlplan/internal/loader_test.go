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

package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-instance-planner/api/v1alpha1"
)

const instanceDoc = `apiVersion: sqlplan.io/v1alpha1
kind: SQLInstance
metadata:
  name: orders
spec:
  databaseVersion: POSTGRES_15
  databases:
    - name: orders
  users:
    - name: app
`

const policyDoc = `apiVersion: sqlplan.io/v1alpha1
kind: PlanPolicy
metadata:
  name: prod
spec:
  preset: secure
  passwordLength: 40
`

func TestLoadReader(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantInstances []string
		wantPolicy    string
		wantErr       string
	}{
		{
			name:          "single instance",
			input:         instanceDoc,
			wantInstances: []string{"orders"},
		},
		{
			name:          "instance with policy and trailing separator",
			input:         policyDoc + "---\n" + instanceDoc + "---\n",
			wantInstances: []string{"orders"},
			wantPolicy:    "prod",
		},
		{
			name: "several instances",
			input: instanceDoc + "---\n" +
				strings.ReplaceAll(instanceDoc, "name: orders\nspec", "name: billing\nspec"),
			wantInstances: []string{"orders", "billing"},
		},
		{
			name:          "kind may be omitted",
			input:         "metadata:\n  name: bare\nspec:\n  databaseVersion: MYSQL_8_0\n",
			wantInstances: []string{"bare"},
		},
		{
			name:          "json document",
			input:         `{"apiVersion":"sqlplan.io/v1alpha1","kind":"SQLInstance","metadata":{"name":"orders"},"spec":{"databaseVersion":"POSTGRES_15"}}`,
			wantInstances: []string{"orders"},
		},
		{
			name:    "policy only",
			input:   policyDoc,
			wantErr: "no SQLInstance documents found",
		},
		{
			name:    "two policies",
			input:   policyDoc + "---\n" + policyDoc + "---\n" + instanceDoc,
			wantErr: "only one PlanPolicy document is allowed",
		},
		{
			name:    "unsupported kind",
			input:   "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: x\n",
			wantErr: "unsupported kind: ConfigMap",
		},
		{
			name:    "unknown field",
			input:   strings.Replace(instanceDoc, "databaseVersion", "dbVersion", 1),
			wantErr: "document 1",
		},
		{
			name:    "wrong api version",
			input:   strings.Replace(instanceDoc, "sqlplan.io/v1alpha1", "sqlplan.io/v2", 1),
			wantErr: "expected sqlplan.io/v1alpha1 SQLInstance",
		},
		{
			name:    "malformed yaml",
			input:   "spec: [unterminated\n",
			wantErr: "failed to parse document 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle, err := LoadReader(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			var names []string
			for _, in := range bundle.Instances {
				names = append(names, in.InstanceName())
			}
			assert.Equal(t, tt.wantInstances, names)

			if tt.wantPolicy == "" {
				assert.Nil(t, bundle.Policy)
				return
			}
			require.NotNil(t, bundle.Policy)
			assert.Equal(t, tt.wantPolicy, bundle.Policy.Name)
		})
	}
}

func TestLoadReader_DecodesSpec(t *testing.T) {
	bundle, err := LoadReader(strings.NewReader(policyDoc + "---\n" + instanceDoc))
	require.NoError(t, err)

	in := bundle.Instances[0]
	assert.Equal(t, "POSTGRES_15", in.Spec.DatabaseVersion)
	require.Len(t, in.Spec.Users, 1)
	assert.Equal(t, "app", in.Spec.Users[0].Name)
	assert.Equal(t, v1alpha1.KindSQLInstance, in.Kind)

	assert.Equal(t, "secure", bundle.Policy.Spec.Preset)
	assert.Equal(t, int32(40), bundle.Policy.Spec.PasswordLength)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(instanceDoc), 0o600))

	bundle, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, bundle.Source)
	assert.Len(t, bundle.Instances, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
