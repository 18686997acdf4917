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

// Package config loads the orchestrator-wide settings that every other
// package needs at startup: the HTTP listen address, the Postgres and
// Redis DSNs, the deployment mode, and the tunables for the resolver's
// circuit breakers and the SLA manager's reminder schedule. Per-connector
// credentials live in connectors/config instead; this package only covers
// settings the orchestrator process itself consumes directly.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/governex-labs/workflow-orchestrator/shared/types"
)

// Config is the orchestrator process's full runtime configuration.
type Config struct {
	Port           string
	DatabaseURL    string
	RedisAddr      string
	DeploymentMode string // "community" or anything else ("enterprise", "saas", ...)
	Deployment     types.DeploymentConfig

	CircuitBreakerFailureThreshold int
	CircuitBreakerResetTimeout     time.Duration

	SLAReminderIntervalsHours []float64
	SLASweepInterval          time.Duration

	EventDedupTTL time.Duration
}

// Load builds a Config from environment variables, applying the same
// defaults the orchestrator has always shipped with.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		DeploymentMode: getEnv("DEPLOYMENT_MODE", "community"),

		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerResetTimeout:     30 * time.Second,

		SLAReminderIntervalsHours: []float64{12, 6, 2},
		SLASweepInterval:          time.Hour,

		EventDedupTTL: 24 * time.Hour,
	}

	dbURL, err := loadDatabaseURL()
	if err != nil {
		return nil, err
	}
	cfg.DatabaseURL = dbURL

	if v := os.Getenv("CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CIRCUIT_BREAKER_FAILURE_THRESHOLD: %w", err)
		}
		cfg.CircuitBreakerFailureThreshold = n
	}
	if v := os.Getenv("CIRCUIT_BREAKER_RESET_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CIRCUIT_BREAKER_RESET_TIMEOUT: %w", err)
		}
		cfg.CircuitBreakerResetTimeout = d
	}
	if v := os.Getenv("SLA_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SLA_SWEEP_INTERVAL: %w", err)
		}
		cfg.SLASweepInterval = d
	}
	if v := os.Getenv("EVENT_DEDUP_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid EVENT_DEDUP_TTL: %w", err)
		}
		cfg.EventDedupTTL = d
	}

	cfg.Deployment = loadDeploymentConfig()

	return cfg, nil
}

// loadDeploymentConfig reads DEPLOYMENT_ISOLATION ("saas", the default, or
// "invpc") and picks the matching shared/types default. SaaS deployments
// enforce the tenant-scoped RLS path this orchestrator's repositories
// already assume; In-VPC deployments are single-tenant and additionally
// surface platform-wide metrics and node-based licensing instead.
func loadDeploymentConfig() types.DeploymentConfig {
	if types.DeploymentMode(getEnv("DEPLOYMENT_ISOLATION", "saas")) == types.DeploymentModeInVPC {
		return types.DefaultInVPCConfig()
	}
	return types.DefaultSaaSConfig()
}

// IsCommunity reports whether this deployment runs under the free tier.
func (c *Config) IsCommunity() bool {
	return c.DeploymentMode == "" || c.DeploymentMode == "community"
}

// loadDatabaseURL mirrors the orchestrator's long-standing fallback: build
// a DSN from discrete DATABASE_* vars when present, otherwise use
// DATABASE_URL directly.
func loadDatabaseURL() (string, error) {
	dbHost := os.Getenv("DATABASE_HOST")
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	dbURL := os.Getenv("DATABASE_URL")

	if dbHost == "" || dbPassword == "" {
		if dbURL == "" {
			return "", fmt.Errorf("no database configuration found (need DATABASE_HOST+DATABASE_PASSWORD or DATABASE_URL)")
		}
		return dbURL, nil
	}

	dbPort := getEnv("DATABASE_PORT", "5432")
	dbName := getEnv("DATABASE_NAME", "workflow_orchestrator")
	dbUser := getEnv("DATABASE_USER", "orchestrator_app")
	dbSSLMode := getEnv("DATABASE_SSLMODE", "require")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(dbUser), url.QueryEscape(dbPassword), dbHost, dbPort, dbName, dbSSLMode), nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
