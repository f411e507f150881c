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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInstance(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  string
	}{
		{
			name: "yaml document",
			input: `apiVersion: sqlplan.io/v1alpha1
kind: SQLInstance
metadata:
  name: orders
spec:
  databaseVersion: POSTGRES_15
  databases:
    - name: orders
`,
			wantName: "orders",
		},
		{
			name:     "json without type",
			input:    `{"metadata":{"name":"billing"},"spec":{"databaseVersion":"MYSQL_8_0"}}`,
			wantName: "billing",
		},
		{
			name:     "spec name wins",
			input:    "metadata:\n  name: a\nspec:\n  name: b\n  databaseVersion: MYSQL_8_0\n",
			wantName: "b",
		},
		{
			name:    "wrong kind",
			input:   "apiVersion: sqlplan.io/v1alpha1\nkind: PlanPolicy\nspec: {}\n",
			wantErr: "expected sqlplan.io/v1alpha1 SQLInstance",
		},
		{
			name:    "unknown field",
			input:   "spec:\n  databaseVersion: POSTGRES_15\n  replicas: 2\n",
			wantErr: "replicas",
		},
		{
			name:    "not yaml",
			input:   "spec: [",
			wantErr: "invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := DecodeInstance([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, inst.InstanceName())
		})
	}
}

func TestDecodePolicy_RequiresType(t *testing.T) {
	_, err := DecodePolicy([]byte("spec:\n  preset: secure\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
