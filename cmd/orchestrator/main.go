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

// Package main is the entry point for the Workflow Orchestrator service.
//
// The Orchestrator governs how access-request decisions flow through a
// Governance/Risk/Compliance platform: it assembles workflow shape at
// runtime from policy evaluation, resolves approver identities against
// HR/IAM backends, tracks SLA state, reacts to external events and signed
// webhooks by re-evaluating live workflows, and gates item-level
// provisioning once a workflow reaches a terminal decision.
//
// Usage:
//
//	./orchestrator
//
// Environment Variables:
//
//	DATABASE_URL / DATABASE_HOST+DATABASE_PASSWORD - PostgreSQL connection
//	REDIS_ADDR - Redis address for distributed event dedup (default localhost:6379)
//	DEPLOYMENT_MODE - "community" (default) or anything else for enterprise tier
//	DEPLOYMENT_ISOLATION - "saas" (default, tenant-isolated RLS) or "invpc"
//	  (single-tenant, platform-wide metrics)
//	GOVX_HRSYSTEM_URL, GOVX_IAMSYSTEM_URL - approver-resolution backends (optional)
//	GOVX_POLICYSTORE_TYPE - "s3", "azureblob", "gcs", or "postgres" (optional;
//	  policy sets load inline via LoadPolicySet when unset)
//	GOVX_AUDIT_CASSANDRA_HOSTS, GOVX_AUDIT_CASSANDRA_KEYSPACE - Enterprise-tier
//	  high-volume audit backend (optional; falls back to Postgres)
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/governex-labs/workflow-orchestrator/connectors/azureblob"
	"github.com/governex-labs/workflow-orchestrator/connectors/base"
	"github.com/governex-labs/workflow-orchestrator/connectors/config"
	"github.com/governex-labs/workflow-orchestrator/connectors/gcs"
	connmongo "github.com/governex-labs/workflow-orchestrator/connectors/mongodb"
	connmysql "github.com/governex-labs/workflow-orchestrator/connectors/mysql"
	connpostgres "github.com/governex-labs/workflow-orchestrator/connectors/postgres"
	connregistry "github.com/governex-labs/workflow-orchestrator/connectors/registry"
	"github.com/governex-labs/workflow-orchestrator/connectors/s3"
	"github.com/governex-labs/workflow-orchestrator/internal/audit"
	orchcfg "github.com/governex-labs/workflow-orchestrator/internal/config"
	"github.com/governex-labs/workflow-orchestrator/internal/events"
	"github.com/governex-labs/workflow-orchestrator/internal/orchestrator"
	"github.com/governex-labs/workflow-orchestrator/internal/policy"
	"github.com/governex-labs/workflow-orchestrator/internal/provisioning"
	"github.com/governex-labs/workflow-orchestrator/internal/resolver"
	"github.com/governex-labs/workflow-orchestrator/internal/sla"
	"github.com/governex-labs/workflow-orchestrator/internal/telemetry"
	"github.com/governex-labs/workflow-orchestrator/internal/tenant"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

func main() {
	log := telemetry.NewLogger("main")

	cfg, err := orchcfg.Load()
	if err != nil {
		log.Error("", "", "[MAIN] failed to load configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	license := tenant.NewEnvLicenseChecker()
	auditRepo := buildAuditRepository(cfg, license, log)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	dedup := events.NewRedisDeduplicator(redisClient, cfg.EventDedupTTL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conns := connregistry.NewRegistry()
	resolvers := buildResolverRegistry(conns, log)

	o := orchestrator.New(orchestrator.Deps{
		WorkflowRepo:         workflow.NoOpRepository{},
		AuditRepo:            auditRepo,
		Resolvers:            resolvers,
		License:              license,
		EventDedup:           dedup,
		ProvisioningStrategy: provisioning.StrategyAllOrNothing,
		SLAConfig:            sla.DefaultConfig(),
		Tenants:              []string{},
		SweepInterval:        cfg.SLASweepInterval,
	})

	if policySetID := os.Getenv("GOVX_POLICYSTORE_DEFAULT_SET"); policySetID != "" {
		if store := buildPolicyDocumentStore(conns, log); store != nil {
			if _, err := o.LoadPolicySetFromStore(ctx, store, policySetID); err != nil {
				log.Error("", "", "[MAIN] failed to load default policy set", map[string]interface{}{"error": err.Error(), "policy_set_id": policySetID})
			}
		}
	}

	log.Info("", "", "[MAIN] orchestrator starting", map[string]interface{}{
		"deployment_mode":      cfg.DeploymentMode,
		"deployment_isolation": cfg.Deployment.Mode.String(),
		"sla_sweep_interval":   cfg.SLASweepInterval.String(),
	})

	go watchConnectorHealth(ctx, conns, log)

	o.Run(ctx)

	log.Info("", "", "[MAIN] orchestrator shutting down", nil)
	o.Shutdown()
	conns.DisconnectAll(context.Background())
}

// watchConnectorHealth polls every registered connector every minute and
// logs a warning for any that report unhealthy, so a dead HR/IAM backend
// or policy store shows up in logs before it causes resolution failures.
func watchConnectorHealth(ctx context.Context, conns *connregistry.Registry, log *logger.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, status := range conns.HealthCheck(ctx) {
				if !status.Healthy {
					log.Warn("", "", "[MAIN] connector unhealthy", map[string]interface{}{"connector": name, "error": status.Error})
				}
			}
		}
	}
}

// buildResolverRegistry wires the HR-system (MySQL-backed) and IAM-system
// (MongoDB-backed) approver providers when their connectors are
// configured via GOVX_HRSYSTEM_* / GOVX_IAMSYSTEM_* environment variables.
// Each connector is registered with conns so it is health-checked and
// disconnected alongside every other live backend. An unconfigured
// provider just leaves its approver type unregistered; the resolver
// reports that type unresolved rather than failing assembly.
func buildResolverRegistry(conns *connregistry.Registry, log *logger.Logger) *resolver.Registry {
	registry := resolver.NewRegistry()

	if hrCfg, err := config.LoadMySQLConfig("HRSYSTEM"); err == nil {
		connector := connmysql.NewMySQLConnector()
		if err := conns.Register("hrsystem", connector, hrCfg); err != nil {
			log.Warn("", "", "[MAIN] HR system connector unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			registry.RegisterWithBreaker(workflow.ApproverLineManager, resolver.NewHRSystemProvider(connector), resolver.DefaultCircuitBreakerConfig())
		}
	}

	if iamCfg, err := config.LoadMongoConfig("IAMSYSTEM"); err == nil {
		connector := connmongo.NewMongoDBConnector()
		if err := conns.Register("iamsystem", connector, iamCfg); err != nil {
			log.Warn("", "", "[MAIN] IAM system connector unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			provider := resolver.NewIAMSystemProvider(connector, "")
			registry.RegisterWithBreaker(workflow.ApproverDataOwner, provider, resolver.DefaultCircuitBreakerConfig())
			registry.RegisterWithBreaker(workflow.ApproverSystemOwner, provider, resolver.DefaultCircuitBreakerConfig())
			registry.RegisterWithBreaker(workflow.ApproverRoleOwner, provider, resolver.DefaultCircuitBreakerConfig())
		}
	}

	return registry
}

// buildAuditRepository opens the Postgres audit store, upgrading to the
// Cassandra high-volume backend when GOVX_AUDIT_CASSANDRA_HOSTS is set and
// the deployment's license tier has the cassandra_backend module. Falls
// back to Postgres (or nil, falling through to audit.NoOpRepository) on
// any connection or licensing failure, never blocking startup.
func buildAuditRepository(cfg *orchcfg.Config, license tenant.LicenseChecker, log *logger.Logger) audit.Repository {
	if hosts := os.Getenv("GOVX_AUDIT_CASSANDRA_HOSTS"); hosts != "" {
		gate := tenant.NewGate(license)
		keyspace := os.Getenv("GOVX_AUDIT_CASSANDRA_KEYSPACE")
		if err := gate.RequireModule("*", "audit.cassandra_backend", "cassandra_backend", keyspace != ""); err != nil {
			log.Warn("", "", "[MAIN] cassandra audit backend not licensed or not configured, falling back to postgres", map[string]interface{}{"error": err.Error()})
		} else {
			repo, err := audit.NewCassandraRepository(strings.Split(hosts, ","), keyspace)
			if err != nil {
				log.Error("", "", "[MAIN] failed to connect cassandra audit store, falling back to postgres", map[string]interface{}{"error": err.Error()})
			} else {
				return repo
			}
		}
	}

	repo, err := audit.NewPostgresRepository(cfg.DatabaseURL)
	if err != nil {
		log.Error("", "", "[MAIN] failed to connect audit store, continuing with no-op audit", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return repo
}

// buildPolicyDocumentStore wires a policy.ConnectorDocumentStore over
// whichever backend GOVX_POLICYSTORE_TYPE names, registering the
// connector with conns for health-checking and shutdown. Returns nil if
// unset or the backend fails to connect, leaving policy sets to load
// inline via LoadPolicySet instead.
func buildPolicyDocumentStore(conns *connregistry.Registry, log *logger.Logger) policy.DocumentStore {
	storeType := os.Getenv("GOVX_POLICYSTORE_TYPE")
	if storeType == "" {
		return nil
	}

	var connector base.Connector
	var cfg *base.ConnectorConfig
	var err error

	switch storeType {
	case "s3":
		connector = s3.NewS3Connector()
		cfg, err = config.LoadObjectStoreConfig("POLICYSTORE", "s3")
	case "azureblob":
		connector = azureblob.NewAzureBlobConnector()
		cfg, err = config.LoadObjectStoreConfig("POLICYSTORE", "azureblob")
	case "gcs":
		connector = gcs.NewGCSConnector()
		cfg, err = config.LoadObjectStoreConfig("POLICYSTORE", "gcs")
	case "postgres":
		connector = connpostgres.NewPostgresConnector()
		cfg, err = config.LoadPostgresConfig("POLICYSTORE")
	default:
		log.Warn("", "", "[MAIN] unknown GOVX_POLICYSTORE_TYPE, policy sets must be loaded inline", map[string]interface{}{"type": storeType})
		return nil
	}
	if err != nil {
		log.Warn("", "", "[MAIN] policy document store configuration missing", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if err := conns.Register("policystore", connector, cfg); err != nil {
		log.Warn("", "", "[MAIN] policy document store connector unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}

	bucket, _ := cfg.Options["bucket"].(string)
	prefix, _ := cfg.Options["prefix"].(string)
	return policy.NewConnectorDocumentStore(connector, bucket, prefix)
}
