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

package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Repository persists workflow state. The executor holds the per-workflow
// lock; the repository only needs to durably store whatever it is handed.
type Repository interface {
	Save(ctx context.Context, wf *Workflow) error
	Get(ctx context.Context, workflowID string) (*Workflow, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Workflow, error)
	AppendEvent(ctx context.Context, evt Event) error
}

// NoOpRepository discards everything. Useful for tests and for running the
// assembler/executor without a configured persistence backend.
type NoOpRepository struct{}

var _ Repository = (*NoOpRepository)(nil)

func (NoOpRepository) Save(context.Context, *Workflow) error                 { return nil }
func (NoOpRepository) Get(context.Context, string) (*Workflow, error)        { return nil, fmt.Errorf("workflow: no-op repository holds no state") }
func (NoOpRepository) ListByTenant(context.Context, string) ([]*Workflow, error) { return nil, nil }
func (NoOpRepository) AppendEvent(context.Context, Event) error              { return nil }

// EventPublisher receives every event the executor emits. internal/events
// implements this to fan events out to the priority bus and the audit log.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }

// Clock abstracts time.Now so tests can control step activation/due times.
type Clock func() time.Time

// Executor drives the workflow state machine: submission, decisions,
// delegation, escalation, cancellation and the provisioning handoff. Every
// mutating operation serializes on a per-workflow mutex so that two
// concurrent decisions on the same workflow cannot race, while unrelated
// workflows proceed independently.
type Executor struct {
	repo      Repository
	publisher EventPublisher
	log       *logger.Logger
	now       Clock

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewExecutor builds an Executor. A nil repo or publisher is replaced with
// a no-op implementation so the executor is usable standalone.
func NewExecutor(repo Repository, publisher EventPublisher) *Executor {
	if repo == nil {
		repo = NoOpRepository{}
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Executor{
		repo:      repo,
		publisher: publisher,
		log:       logger.New("workflow-executor"),
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// WithClock overrides the executor's time source, for deterministic tests.
func (e *Executor) WithClock(c Clock) *Executor {
	e.now = c
	return e
}

func (e *Executor) lockFor(workflowID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[workflowID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[workflowID] = l
	}
	return l
}

func (e *Executor) emit(ctx context.Context, wf *Workflow, stepID string, t EventType, actorID string, details map[string]interface{}) {
	evt := Event{
		EventID:     uuid.NewString(),
		WorkflowID:  wf.WorkflowID,
		StepID:      stepID,
		Type:        t,
		ActorID:     actorID,
		ActorType:   actorTypeFor(t, actorID),
		OccurredAt:  e.now(),
		Description: eventDescription(t),
		Details:     details,
	}
	if err := e.repo.AppendEvent(ctx, evt); err != nil {
		e.log.Error(wf.TenantID, wf.WorkflowID, "[EXECUTOR] failed to persist event", map[string]interface{}{"event_type": string(t), "error": err.Error()})
	}
	if err := e.publisher.Publish(ctx, evt); err != nil {
		e.log.Warn(wf.TenantID, wf.WorkflowID, "[EXECUTOR] failed to publish event", map[string]interface{}{"event_type": string(t), "error": err.Error()})
	}
}

// Submit transitions a freshly assembled workflow from DRAFT/PENDING into
// execution, activating its first step (or completing it as APPROVED
// immediately if the assembler produced zero steps).
func (e *Executor) Submit(ctx context.Context, wf *Workflow) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if err := NewInvalidStateError(wf.WorkflowID, "submit", wf.Status, StatusDraft, StatusPending); err != nil {
		return err
	}

	e.emit(ctx, wf, "", EventWorkflowSubmitted, "", nil)

	if len(wf.Steps) == 0 {
		return e.completeLocked(ctx, wf, StatusApproved)
	}

	wf.Status = StatusInProgress
	wf.CurrentStep = 0
	wf.UpdatedAt = e.now()
	e.activateCurrentLocked(ctx, wf)
	return e.repo.Save(ctx, wf)
}

func (e *Executor) activateCurrentLocked(ctx context.Context, wf *Workflow) {
	step := wf.ActiveStep()
	if step == nil {
		return
	}
	step.Activate(e.now())
	wf.Status = StatusWaitingApproval
	e.emit(ctx, wf, step.StepID, EventStepActivated, "", map[string]interface{}{"approver_type": string(step.ApproverType)})
}

// Decision is an approver's verdict on the currently active step.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// RecordDecision applies an approver's decision to the workflow's active
// step, advancing to the next step, rejecting the whole workflow, or
// completing it as APPROVED when the chain is exhausted.
func (e *Executor) RecordDecision(ctx context.Context, wf *Workflow, stepID, actorID string, decision Decision, comment string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if err := NewInvalidStateError(wf.WorkflowID, "recordDecision", wf.Status, StatusInProgress, StatusWaitingApproval); err != nil {
		return err
	}

	step := wf.ActiveStep()
	if step == nil || step.StepID != stepID {
		return &StepNotFoundError{WorkflowID: wf.WorkflowID, StepID: stepID}
	}
	if step.Status != StepActive {
		return NewInvalidStateError(wf.WorkflowID, "recordDecision", wf.Status, StatusWaitingApproval)
	}

	now := e.now()
	step.DecidedAt = &now
	step.DecidedBy = actorID
	step.Comment = comment

	switch decision {
	case DecisionReject:
		step.Status = StepRejected
		e.emit(ctx, wf, step.StepID, EventStepRejected, actorID, map[string]interface{}{"comment": comment})
		return e.completeLocked(ctx, wf, StatusRejected)
	case DecisionApprove:
		step.Status = StepApproved
		e.emit(ctx, wf, step.StepID, EventStepApproved, actorID, map[string]interface{}{"comment": comment})
	default:
		return fmt.Errorf("workflow %s: unknown decision %q", wf.WorkflowID, decision)
	}

	wf.CurrentStep++
	wf.UpdatedAt = now
	if wf.CurrentStep >= len(wf.Steps) {
		return e.completeLocked(ctx, wf, StatusApproved)
	}
	wf.Status = StatusInProgress
	e.activateCurrentLocked(ctx, wf)
	return e.repo.Save(ctx, wf)
}

// Delegate reassigns the active step to another approver without advancing
// the workflow; the new approver's due time restarts from now.
func (e *Executor) Delegate(ctx context.Context, wf *Workflow, stepID, fromID, toID, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	step := wf.ActiveStep()
	if step == nil || step.StepID != stepID {
		return &StepNotFoundError{WorkflowID: wf.WorkflowID, StepID: stepID}
	}
	if step.Status != StepActive {
		return NewInvalidStateError(wf.WorkflowID, "delegate", wf.Status, StatusWaitingApproval)
	}

	step.Status = StepDelegated
	step.DelegatedTo = toID
	step.ApproverID = toID
	step.Activate(e.now())
	step.Status = StepActive
	wf.UpdatedAt = e.now()

	e.emit(ctx, wf, step.StepID, EventStepDelegated, fromID, map[string]interface{}{"delegated_to": toID, "reason": reason})
	return e.repo.Save(ctx, wf)
}

// Escalate moves the active step's ownership to an escalation target,
// typically invoked by the SLA manager after a breach.
func (e *Executor) Escalate(ctx context.Context, wf *Workflow, stepID, toID, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	step := wf.ActiveStep()
	if step == nil || step.StepID != stepID {
		return &StepNotFoundError{WorkflowID: wf.WorkflowID, StepID: stepID}
	}

	step.EscalatedTo = toID
	step.ApproverID = toID
	prevStatus := step.Status
	step.Status = StepEscalated
	step.Activate(e.now())
	step.Status = StepActive
	wf.UpdatedAt = e.now()

	e.emit(ctx, wf, step.StepID, EventStepEscalated, "", map[string]interface{}{
		"escalated_to": toID, "reason": reason, "previous_status": string(prevStatus),
	})
	return e.repo.Save(ctx, wf)
}

// Cancel terminates a workflow that has not yet reached a terminal status.
func (e *Executor) Cancel(ctx context.Context, wf *Workflow, actorID, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if wf.Status.Terminal() {
		return NewInvalidStateError(wf.WorkflowID, "cancel", wf.Status, StatusDraft, StatusPending, StatusInProgress, StatusWaitingApproval)
	}

	if step := wf.ActiveStep(); step != nil && step.Status == StepActive {
		step.Status = StepCancelled
	}
	wf.Status = StatusCancelled
	now := e.now()
	wf.CompletedAt = &now
	wf.UpdatedAt = now

	e.emit(ctx, wf, "", EventWorkflowCancelled, actorID, map[string]interface{}{"reason": reason})
	return e.repo.Save(ctx, wf)
}

// Provision marks an approved workflow as handed off to the provisioning
// gate; it does not itself perform provisioning (see internal/provisioning).
func (e *Executor) Provision(ctx context.Context, wf *Workflow) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if err := NewInvalidStateError(wf.WorkflowID, "provision", wf.Status, StatusApproved, StatusAutoApproved); err != nil {
		return err
	}
	wf.Status = StatusProvisioning
	wf.UpdatedAt = e.now()
	e.emit(ctx, wf, "", EventProvisioningStarted, "", nil)
	return e.repo.Save(ctx, wf)
}

// Complete marks a provisioning workflow finished, successfully or not.
func (e *Executor) Complete(ctx context.Context, wf *Workflow, success bool, failureReason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if err := NewInvalidStateError(wf.WorkflowID, "complete", wf.Status, StatusProvisioning); err != nil {
		return err
	}
	if success {
		return e.completeLocked(ctx, wf, StatusCompleted)
	}
	wf.Status = StatusFailed
	now := e.now()
	wf.CompletedAt = &now
	wf.UpdatedAt = now
	e.emit(ctx, wf, "", EventWorkflowFailed, "", map[string]interface{}{"reason": failureReason})
	return e.repo.Save(ctx, wf)
}

// applyItemOutcome stamps every still-pending item of wf's request with
// the item-level status implied by the workflow's terminal decision. Items
// a prior partial-provisioning pass already moved past PENDING (e.g.
// PROVISIONED, FAILED) are left alone.
func applyItemOutcome(wf *Workflow, status ItemStatus) {
	if wf.Context == nil || wf.Context.Request == nil {
		return
	}
	items := wf.Context.Request.Items
	for i := range items {
		if items[i].EffectiveStatus() == ItemPending {
			items[i].Status = status
		}
	}
}

// completeLocked finalizes the workflow to a terminal status. Caller must
// already hold the per-workflow lock.
func (e *Executor) completeLocked(ctx context.Context, wf *Workflow, status Status) error {
	wf.Status = status
	now := e.now()
	wf.CompletedAt = &now
	wf.UpdatedAt = now

	switch status {
	case StatusApproved, StatusAutoApproved:
		applyItemOutcome(wf, ItemApproved)
	case StatusRejected, StatusAutoRejected:
		applyItemOutcome(wf, ItemRejected)
	}

	switch status {
	case StatusApproved:
		e.emit(ctx, wf, "", EventWorkflowApproved, "", nil)
	case StatusRejected:
		e.emit(ctx, wf, "", EventWorkflowRejected, "", nil)
	case StatusAutoApproved:
		e.emit(ctx, wf, "", EventWorkflowAutoApproved, "", nil)
	case StatusAutoRejected:
		e.emit(ctx, wf, "", EventWorkflowAutoRejected, "", nil)
	case StatusCompleted:
		e.emit(ctx, wf, "", EventWorkflowCompleted, "", nil)
	}
	return e.repo.Save(ctx, wf)
}

// actorTypeFor classifies an event's actor: autonomous policy outcomes are
// attributed to POLICY, an empty actor id to SYSTEM, anything else to USER.
func actorTypeFor(t EventType, actorID string) ActorType {
	switch t {
	case EventWorkflowAutoApproved, EventWorkflowAutoRejected:
		return ActorPolicy
	}
	if actorID == "" {
		return ActorSystem
	}
	return ActorUser
}

// eventDescription renders a human-readable summary of an event type for
// the audit trail and explain() output.
func eventDescription(t EventType) string {
	switch t {
	case EventWorkflowCreated:
		return "workflow created"
	case EventWorkflowSubmitted:
		return "workflow submitted for approval"
	case EventStepActivated:
		return "approval step activated"
	case EventStepApproved:
		return "approval step approved"
	case EventStepRejected:
		return "approval step rejected"
	case EventStepDelegated:
		return "approval step delegated"
	case EventStepEscalated:
		return "approval step escalated"
	case EventStepSkipped:
		return "approval step skipped"
	case EventStepAdded:
		return "approval step added by re-evaluation"
	case EventStepsReordered:
		return "remaining approval steps reordered by re-evaluation"
	case EventWorkflowPaused:
		return "workflow paused by re-evaluation"
	case EventWorkflowResumed:
		return "workflow resumed"
	case EventWorkflowApproved:
		return "workflow approved"
	case EventWorkflowRejected:
		return "workflow rejected"
	case EventWorkflowAutoApproved:
		return "workflow auto-approved by policy"
	case EventWorkflowAutoRejected:
		return "workflow auto-rejected by policy"
	case EventWorkflowCancelled:
		return "workflow cancelled"
	case EventProvisioningStarted:
		return "provisioning started"
	case EventWorkflowCompleted:
		return "workflow completed"
	case EventWorkflowFailed:
		return "workflow failed"
	case EventSLAWarning:
		return "SLA warning threshold reached"
	case EventSLABreached:
		return "SLA breached"
	default:
		return string(t)
	}
}
