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

// Package orchestrator is the facade that wires the Policy Engine,
// Approver Resolver, Workflow Assembler, SLA Manager, Workflow Executor,
// Provisioning Gate, and Event/Re-Evaluation Bus into the single Go API a
// caller drives a request's lifecycle through. There is no HTTP or gRPC
// framing here; a caller (cmd/orchestrator, or an embedding service) owns
// that.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/assembler"
	"github.com/governex-labs/workflow-orchestrator/internal/audit"
	"github.com/governex-labs/workflow-orchestrator/internal/events"
	"github.com/governex-labs/workflow-orchestrator/internal/policy"
	"github.com/governex-labs/workflow-orchestrator/internal/provisioning"
	"github.com/governex-labs/workflow-orchestrator/internal/resolver"
	"github.com/governex-labs/workflow-orchestrator/internal/sla"
	"github.com/governex-labs/workflow-orchestrator/internal/tenant"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Deps are the concrete backends the facade wires together. Every field
// may be left nil/zero to fall back to an in-process default, so tests and
// local development can run an Orchestrator without Postgres, Redis, or
// any external connector configured.
type Deps struct {
	WorkflowRepo workflow.Repository
	AuditRepo    audit.Repository
	Resolvers    *resolver.Registry
	License      tenant.LicenseChecker
	EventDedup   events.Deduplicator

	ProvisioningStrategy provisioning.Strategy
	ProvisioningTags     []string
	ProvisioningExecutor provisioning.StepExecutor

	SLAConfig sla.Config

	Tenants          []string
	SweepInterval    time.Duration
	WebhookSecret    []byte
	WebhookIssuer    string
}

// Orchestrator is the assembled Go API surface: submit a request, record
// approver decisions, delegate or escalate a step, ingest an external
// event, and let the re-evaluation engine and its scheduled sweep keep
// live workflows consistent with current policy.
type Orchestrator struct {
	Policy      *policy.Engine
	Assembler   *assembler.Assembler
	Resolver    *resolver.Resolver
	Executor    *workflow.Executor
	SLA         *sla.Manager
	Gate        *provisioning.Gate
	Queue       *provisioning.Queue
	Audit       *audit.Logger
	Bus         *events.Bus
	ReEval      *events.ReEvaluationEngine
	Sweeper     *events.Sweeper
	Webhooks    *events.WebhookVerifier
	License     *tenant.Gate

	repo workflow.Repository
	log  *logger.Logger
}

// New wires every subsystem according to deps, applying the same defaults
// the rest of this module uses when a dependency is left unconfigured: a
// no-op workflow repository, a no-op audit repository, an in-memory event
// dedup table, and an empty resolver registry.
func New(deps Deps) *Orchestrator {
	repo := deps.WorkflowRepo
	if repo == nil {
		repo = workflow.NoOpRepository{}
	}
	auditRepo := deps.AuditRepo
	if auditRepo == nil {
		auditRepo = audit.NoOpRepository{}
	}
	registry := deps.Resolvers
	if registry == nil {
		registry = resolver.NewRegistry()
	}
	license := deps.License
	if license == nil {
		license = tenant.NewEnvLicenseChecker()
	}

	engine := policy.NewEngine()
	asm := assembler.New(engine)
	res := resolver.NewResolver(registry)
	auditLogger := audit.New(auditRepo)

	pub := &auditPublisher{audit: auditLogger}
	executor := workflow.NewExecutor(repo, pub)

	slaCfg := deps.SLAConfig
	if slaCfg.ReminderIntervalsHours == nil {
		slaCfg = sla.DefaultConfig()
	}
	slaManager := sla.NewManager(slaCfg)

	strategy := deps.ProvisioningStrategy
	if strategy == "" {
		strategy = provisioning.StrategyAllOrNothing
	}
	gate := provisioning.NewGate(strategy, deps.ProvisioningTags)

	var queue *provisioning.Queue
	if deps.ProvisioningExecutor != nil {
		queue = provisioning.NewQueue(deps.ProvisioningExecutor)
	}

	dedup := deps.EventDedup
	if dedup == nil {
		dedup = events.NewMemoryDeduplicator(24 * time.Hour)
	}
	bus := events.NewBus(dedup)
	reeval := events.NewReEvaluationEngine(asm, executor).WithEscalation(slaManager, res)

	sweepInterval := deps.SweepInterval
	sweeper := events.NewSweeper(repo, reeval, deps.Tenants, sweepInterval)

	var verifier *events.WebhookVerifier
	if len(deps.WebhookSecret) > 0 {
		verifier = events.NewWebhookVerifier(deps.WebhookSecret, deps.WebhookIssuer)
	}

	o := &Orchestrator{
		Policy:    engine,
		Assembler: asm,
		Resolver:  res,
		Executor:  executor,
		SLA:       slaManager,
		Gate:      gate,
		Queue:     queue,
		Audit:     auditLogger,
		Bus:       bus,
		ReEval:    reeval,
		Sweeper:   sweeper,
		Webhooks:  verifier,
		License:   tenant.NewGate(license),
		repo:      repo,
		log:       logger.New("orchestrator-facade"),
	}
	bus.Subscribe(o.dispatchReEvaluation)
	return o
}

// LoadPolicySet registers a policy set with the engine, making it eligible
// for SubmitRequest and re-evaluation.
func (o *Orchestrator) LoadPolicySet(set *policy.Set) error {
	return o.Policy.LoadPolicySet(set)
}

// LoadPolicySetFromStore fetches policySetID's document from store, parses
// and registers it with the engine. Used at startup when policy documents
// live in Postgres or object storage rather than being loaded inline.
func (o *Orchestrator) LoadPolicySetFromStore(ctx context.Context, store policy.DocumentStore, policySetID string) (*policy.Set, error) {
	return o.Policy.LoadAndCompile(ctx, store, policySetID)
}

// SubmitRequest runs the full intake path: assemble a workflow from req
// under policySetID, resolve each step's approver identity, persist the
// workflow, and submit it into the executor (activating its first step).
func (o *Orchestrator) SubmitRequest(ctx context.Context, tc tenant.Context, req *workflow.AccessRequest, attributes map[string]interface{}, policySetID string) (*workflow.Workflow, error) {
	if err := tc.Require("submit_request"); err != nil {
		return nil, err
	}
	ctx = tenant.WithContext(ctx, tc)

	wfCtx := &workflow.Context{
		Request:     req,
		TenantID:    tc.TenantID,
		Attributes:  attributes,
		EvaluatedAt: time.Now(),
	}

	wf, err := o.Assembler.Assemble(wfCtx, policySetID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: assemble: %w", err)
	}

	for _, step := range wf.Steps {
		if step.ApproverID != "" {
			continue
		}
		result, err := o.Resolver.Resolve(ctx, wfCtx, step.ApproverType)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: resolve approver for step %s: %w", step.StepID, err)
		}
		if result.Success && result.Approver != nil {
			step.ApproverID = result.Approver.ApproverID
		}
	}

	if err := o.repo.Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("orchestrator: save workflow: %w", err)
	}

	// Assemble already resolved auto-approved/auto-rejected requests to a
	// terminal status with zero steps; only a workflow still awaiting its
	// first activation goes through Submit.
	if wf.Status == workflow.StatusDraft {
		if err := o.Executor.Submit(ctx, wf); err != nil {
			return nil, err
		}
	}
	return wf, nil
}

// RecordDecision applies an approver's verdict to wf's active step.
func (o *Orchestrator) RecordDecision(ctx context.Context, tc tenant.Context, wf *workflow.Workflow, stepID, actorID string, decision workflow.Decision, comment string) error {
	if err := tc.Require("record_decision"); err != nil {
		return err
	}
	ctx = tenant.WithContext(ctx, tc)
	return o.Executor.RecordDecision(ctx, wf, stepID, actorID, decision, comment)
}

// HandleWebhook verifies a signed external event and, if it affects live
// workflows, re-evaluates each one directly (bypassing the bus, since a
// webhook caller typically wants synchronous confirmation its signal was
// applied).
func (o *Orchestrator) HandleWebhook(ctx context.Context, token string) (events.Event, []events.ReEvaluationAction, error) {
	if o.Webhooks == nil {
		return events.Event{}, nil, fmt.Errorf("orchestrator: no webhook verifier configured")
	}
	evt, err := o.Webhooks.Verify(token)
	if err != nil {
		return events.Event{}, nil, err
	}

	var applied []events.ReEvaluationAction
	for _, workflowID := range evt.AffectedWorkflowIDs {
		wf, err := o.repo.Get(ctx, workflowID)
		if err != nil {
			o.log.Warn("", workflowID, "[ORCHESTRATOR] webhook: workflow not found", map[string]interface{}{"error": err.Error()})
			continue
		}
		actions, err := o.ReEval.Reevaluate(ctx, wf, evt)
		if err != nil {
			o.log.Warn(wf.TenantID, workflowID, "[ORCHESTRATOR] webhook: re-evaluation failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		if err := o.repo.Save(ctx, wf); err != nil {
			o.log.Warn(wf.TenantID, workflowID, "[ORCHESTRATOR] webhook: save failed", map[string]interface{}{"error": err.Error()})
		}
		applied = append(applied, actions...)
	}
	return evt, applied, nil
}

// PublishEvent hands evt to the bus for asynchronous, priority-ordered
// re-evaluation of its affected workflows.
func (o *Orchestrator) PublishEvent(evt events.Event) {
	o.Bus.Publish(evt)
}

// dispatchReEvaluation is the bus subscriber that turns a delivered event
// into re-evaluation of each workflow it names.
func (o *Orchestrator) dispatchReEvaluation(ctx context.Context, evt events.Event) error {
	for _, workflowID := range evt.AffectedWorkflowIDs {
		wf, err := o.repo.Get(ctx, workflowID)
		if err != nil {
			o.log.Warn("", workflowID, "[ORCHESTRATOR] event dispatch: workflow not found", map[string]interface{}{"error": err.Error()})
			continue
		}
		if _, err := o.ReEval.Reevaluate(ctx, wf, evt); err != nil {
			return err
		}
		if err := o.repo.Save(ctx, wf); err != nil {
			return err
		}
	}
	return nil
}

// Run blocks, driving the event bus, the provisioning queue worker (when a
// queue is configured) and the scheduled re-evaluation sweep until ctx is
// canceled.
func (o *Orchestrator) Run(ctx context.Context) {
	go o.Bus.Run(ctx)
	if o.Queue != nil {
		go o.Queue.RunWorker(ctx)
	}
	o.Sweeper.Run(ctx)
}

// Shutdown flushes the audit logger and closes the event bus and
// provisioning queue.
func (o *Orchestrator) Shutdown() {
	o.Bus.Close()
	if o.Queue != nil {
		o.Queue.Close()
	}
	o.Audit.Shutdown()
}

// auditPublisher adapts audit.Logger (which records events keyed by an
// explicit tenant id) to workflow.EventPublisher (which only receives the
// event itself), recovering the tenant id the facade attached to ctx.
type auditPublisher struct {
	audit *audit.Logger
}

func (p *auditPublisher) Publish(ctx context.Context, evt workflow.Event) error {
	tc := tenant.FromContext(ctx)
	p.audit.Record(tc.TenantID, evt)
	return nil
}
