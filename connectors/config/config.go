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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// LoadFromEnv loads a connector configuration from environment variables.
// Environment variables are prefixed with GOVX_<CONNECTOR_NAME>_, e.g.
// GOVX_POLICYSTORE_URL, GOVX_HRSYSTEM_USERNAME.
func LoadFromEnv(connectorName, connectorType string) (*base.ConnectorConfig, error) {
	prefix := "GOVX_" + strings.ToUpper(connectorName) + "_"

	cfg := &base.ConnectorConfig{
		Name:        connectorName,
		Type:        connectorType,
		Credentials: make(map[string]string),
		Options:     make(map[string]interface{}),
	}

	connectionURL := os.Getenv(prefix + "URL")
	if connectionURL == "" {
		return nil, fmt.Errorf("missing required environment variable: %sURL", prefix)
	}
	cfg.ConnectionURL = connectionURL

	cfg.TenantID = getEnvOrDefault(prefix+"TENANT_ID", "*")

	if timeoutStr := os.Getenv(prefix + "TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format: %s", timeoutStr)
		}
		cfg.Timeout = timeout
	} else {
		cfg.Timeout = 5 * time.Second
	}

	if maxRetriesStr := os.Getenv(prefix + "MAX_RETRIES"); maxRetriesStr != "" {
		maxRetries, err := strconv.Atoi(maxRetriesStr)
		if err != nil {
			return nil, fmt.Errorf("invalid max_retries format: %s", maxRetriesStr)
		}
		cfg.MaxRetries = maxRetries
	} else {
		cfg.MaxRetries = 3
	}

	if username := os.Getenv(prefix + "USERNAME"); username != "" {
		cfg.Credentials["username"] = username
	}
	if password := os.Getenv(prefix + "PASSWORD"); password != "" {
		cfg.Credentials["password"] = password
	}
	if apiKey := os.Getenv(prefix + "API_KEY"); apiKey != "" {
		cfg.Credentials["api_key"] = apiKey
	}

	return cfg, nil
}

// LoadPostgresConfig loads configuration for a Postgres-backed repository
// (policy store, audit store, RLS connection). Falls back to DATABASE_URL.
func LoadPostgresConfig(connectorName string) (*base.ConnectorConfig, error) {
	cfg, err := LoadFromEnv(connectorName, "postgres")
	if err == nil {
		return cfg, nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("no PostgreSQL configuration found (tried GOVX_%s_URL and DATABASE_URL)", strings.ToUpper(connectorName))
	}

	return &base.ConnectorConfig{
		Name:          connectorName,
		Type:          "postgres",
		ConnectionURL: databaseURL,
		Timeout:       5 * time.Second,
		MaxRetries:    3,
		TenantID:      "*",
		Options: map[string]interface{}{
			"max_open_conns":    25,
			"max_idle_conns":    5,
			"conn_max_lifetime": "5m",
		},
	}, nil
}

// LoadMySQLConfig loads configuration for the HR-system-backed resolver provider.
func LoadMySQLConfig(connectorName string) (*base.ConnectorConfig, error) {
	return LoadFromEnv(connectorName, "mysql")
}

// LoadMongoConfig loads configuration for the IAM-system-backed resolver provider.
func LoadMongoConfig(connectorName string) (*base.ConnectorConfig, error) {
	cfg, err := LoadFromEnv(connectorName, "mongodb")
	if err != nil {
		return nil, err
	}
	cfg.Options["database"] = getEnvOrDefault("GOVX_"+strings.ToUpper(connectorName)+"_DATABASE", "iam")
	return cfg, nil
}

// LoadObjectStoreConfig loads configuration for a policy-document object-storage
// backend (s3, azureblob, gcs; connectorType selects which).
func LoadObjectStoreConfig(connectorName, connectorType string) (*base.ConnectorConfig, error) {
	prefix := "GOVX_" + strings.ToUpper(connectorName) + "_"

	bucket := os.Getenv(prefix + "BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("missing required environment variable: %sBUCKET", prefix)
	}

	cfg := &base.ConnectorConfig{
		Name:          connectorName,
		Type:          connectorType,
		ConnectionURL: bucket,
		Credentials:   make(map[string]string),
		Options: map[string]interface{}{
			"bucket": bucket,
			"prefix": getEnvOrDefault(prefix+"PREFIX", "policies/"),
		},
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		TenantID:   getEnvOrDefault(prefix+"TENANT_ID", "*"),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConfig validates a connector configuration.
func ValidateConfig(cfg *base.ConnectorConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("connector name is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("connector type is required")
	}
	if cfg.ConnectionURL == "" {
		return fmt.Errorf("connection URL is required for %s connector", cfg.Type)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}
