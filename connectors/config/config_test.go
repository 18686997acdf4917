// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadFromEnv_RequiresURL(t *testing.T) {
	_, err := LoadFromEnv("missingurl", "postgres")
	require.Error(t, err)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"GOVX_HRSYSTEM_URL": "mysql://hr:3306/org"})

	cfg, err := LoadFromEnv("HRSYSTEM", "mysql")
	require.NoError(t, err)
	assert.Equal(t, "HRSYSTEM", cfg.Name)
	assert.Equal(t, "mysql", cfg.Type)
	assert.Equal(t, "*", cfg.TenantID)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"GOVX_IAMSYSTEM_URL":         "mongodb://iam:27017/identity",
		"GOVX_IAMSYSTEM_TENANT_ID":   "tenant-42",
		"GOVX_IAMSYSTEM_TIMEOUT":     "2s",
		"GOVX_IAMSYSTEM_MAX_RETRIES": "7",
		"GOVX_IAMSYSTEM_USERNAME":    "svc-iam",
	})

	cfg, err := LoadFromEnv("IAMSYSTEM", "mongodb")
	require.NoError(t, err)
	assert.Equal(t, "tenant-42", cfg.TenantID)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, "svc-iam", cfg.Credentials["username"])
}

func TestLoadPostgresConfig_FallsBackToDatabaseURL(t *testing.T) {
	setEnv(t, map[string]string{"DATABASE_URL": "postgres://orchestrator@db/policies"})

	cfg, err := LoadPostgresConfig("policystore")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "postgres://orchestrator@db/policies", cfg.ConnectionURL)
}

func TestLoadObjectStoreConfig_RequiresBucket(t *testing.T) {
	_, err := LoadObjectStoreConfig("policydocs", "s3")
	require.Error(t, err)

	setEnv(t, map[string]string{"GOVX_POLICYDOCS_BUCKET": "grc-policy-docs"})
	cfg, err := LoadObjectStoreConfig("POLICYDOCS", "s3")
	require.NoError(t, err)
	assert.Equal(t, "policies/", cfg.Options["prefix"])
}

func TestValidateConfig(t *testing.T) {
	cfg, err := LoadPostgresConfig("validate")
	require.Error(t, err) // no DATABASE_URL, no GOVX_VALIDATE_URL

	setEnv(t, map[string]string{"GOVX_VALIDATE_URL": "postgres://x/y"})
	cfg, err = LoadPostgresConfig("validate")
	require.NoError(t, err)
	assert.NoError(t, ValidateConfig(cfg))

	cfg.Timeout = 0
	assert.Error(t, ValidateConfig(cfg))
}
