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

package events

import (
	"context"

	"github.com/governex-labs/workflow-orchestrator/internal/assembler"
	"github.com/governex-labs/workflow-orchestrator/internal/resolver"
	"github.com/governex-labs/workflow-orchestrator/internal/sla"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Executor is the subset of workflow.Executor the re-evaluation engine
// drives. Matched structurally so *workflow.Executor satisfies it without
// an import of internal/events back into internal/workflow.
type Executor interface {
	AddStep(ctx context.Context, wf *workflow.Workflow, approverType workflow.ApproverType, slaHours float64, insertAfter int, reason string) (*workflow.Step, error)
	RemoveStep(ctx context.Context, wf *workflow.Workflow, stepID, reason string) error
	Reorder(ctx context.Context, wf *workflow.Workflow, newOrder []string) error
	AutoApproveRemaining(ctx context.Context, wf *workflow.Workflow, reason string) error
	ForceReject(ctx context.Context, wf *workflow.Workflow, reason string) error
	Escalate(ctx context.Context, wf *workflow.Workflow, stepID, toID, reason string) error
}

// ApproverResolver is the subset of internal/resolver.Resolver the
// re-evaluation engine needs to find a live identity for an escalation
// target. Matched structurally so *resolver.Resolver satisfies it without
// an import of internal/events back into internal/resolver.
type ApproverResolver interface {
	Resolve(ctx context.Context, wfCtx *workflow.Context, approverType workflow.ApproverType) (*resolver.Result, error)
}

// ReEvaluationEngine re-runs the policy engine against a workflow's
// (possibly event-updated) context, diffs the remaining steps, and applies
// the resulting ReEvaluationAction(s) through the Executor. sla and
// resolver are optional: when either is nil, ActionEscalate still moves
// the step but leaves its new approver identity unresolved, matching the
// engine's previous fail-open behavior.
type ReEvaluationEngine struct {
	assembler *assembler.Assembler
	executor  Executor
	sla       *sla.Manager
	resolver  ApproverResolver
	log       *logger.Logger
}

// NewReEvaluationEngine builds a ReEvaluationEngine.
func NewReEvaluationEngine(asm *assembler.Assembler, executor Executor) *ReEvaluationEngine {
	return &ReEvaluationEngine{assembler: asm, executor: executor, log: logger.New("reevaluation-engine")}
}

// WithEscalation attaches the SLA manager and approver resolver that
// ActionEscalate uses to pick a real escalation target instead of leaving
// the step's ApproverID unset.
func (r *ReEvaluationEngine) WithEscalation(slaManager *sla.Manager, resolver ApproverResolver) *ReEvaluationEngine {
	r.sla = slaManager
	r.resolver = resolver
	return r
}

// Reevaluate applies evt to wf per the re-evaluation contract. It never
// alters an already-decided step; only PENDING and ACTIVE steps are
// eligible for change. Returns the actions it decided and applied, in
// order.
func (r *ReEvaluationEngine) Reevaluate(ctx context.Context, wf *workflow.Workflow, evt Event) ([]ReEvaluationAction, error) {
	if wf.Status.Terminal() {
		return []ReEvaluationAction{{Type: ActionNoChange, Reason: "workflow already terminal"}}, nil
	}
	if !TriggersReEvaluation(evt.EventType) {
		return []ReEvaluationAction{{Type: ActionNoChange, Reason: "event type does not trigger re-evaluation"}}, nil
	}

	updatedCtx := applyPayload(wf, evt)

	// Hard-stop event types never need a policy re-run to know the outcome.
	if evt.EventType == TypeFraudAlert {
		action := ReEvaluationAction{Type: ActionAutoReject, Reason: "fraud alert received"}
		return []ReEvaluationAction{action}, r.apply(ctx, wf, action)
	}
	if evt.EventType == TypeUserTerminated || evt.EventType == TypeRoleRevoked {
		active := wf.ActiveStep()
		if active == nil {
			return []ReEvaluationAction{{Type: ActionNotifyOnly, Reason: "no active step to escalate"}}, nil
		}
		action := ReEvaluationAction{Type: ActionEscalate, StepID: active.StepID, Reason: string(evt.EventType)}
		return []ReEvaluationAction{action}, r.apply(ctx, wf, action)
	}

	reassembled, err := r.assembler.Simulate(ctx, updatedCtx, wf.PolicySetID)
	if err != nil {
		return nil, err
	}

	actions := diff(wf, reassembled)
	for _, action := range actions {
		if err := r.apply(ctx, wf, action); err != nil {
			return actions, err
		}
	}
	if len(actions) == 0 {
		actions = []ReEvaluationAction{{Type: ActionNoChange}}
	}
	return actions, nil
}

// applyPayload folds an event's payload fields into a cloned copy of the
// workflow's retained context, so the re-assembled policy evaluation
// reflects the new information (e.g. an updated risk_level on a
// risk-changed event). Falls back to a bare context carrying only the
// workflow's tenant id if none was retained.
func applyPayload(wf *workflow.Workflow, evt Event) *workflow.Context {
	clone := &workflow.Context{TenantID: wf.TenantID, Attributes: map[string]interface{}{}}
	if wf.Context != nil {
		clone.Request = wf.Context.Request
		for k, v := range wf.Context.Attributes {
			clone.Attributes[k] = v
		}
	}
	for k, v := range evt.Payload {
		clone.Attributes[k] = v
	}
	return clone
}

// diff compares wf's current non-terminal steps against reassembled's
// freshly-assembled steps and decides what ReEvaluationAction(s) reconcile
// them.
func diff(wf *workflow.Workflow, reassembled *workflow.Workflow) []ReEvaluationAction {
	if reassembled.Status == workflow.StatusAutoRejected {
		return []ReEvaluationAction{{Type: ActionAutoReject, Reason: "policy re-evaluation now auto-rejects"}}
	}

	var current []*workflow.Step
	for _, s := range wf.Steps {
		if s.Status == workflow.StepPending || s.Status == workflow.StepActive {
			current = append(current, s)
		}
	}

	if reassembled.Status == workflow.StatusAutoApproved && len(reassembled.Steps) == 0 {
		if len(current) == 0 {
			return nil
		}
		return []ReEvaluationAction{{Type: ActionAutoApproveRemaining, Reason: "policy re-evaluation now auto-approves"}}
	}

	target := reassembled.Steps

	var actions []ReEvaluationAction
	switch {
	case len(target) > len(current):
		for _, extra := range target[len(current):] {
			actions = append(actions, ReEvaluationAction{
				Type: ActionAddStep, ApproverType: extra.ApproverType, InsertAfter: len(current) - 1, Reason: "policy re-evaluation added an approver requirement",
			})
		}
	case len(target) < len(current):
		for _, extra := range current[len(target):] {
			actions = append(actions, ReEvaluationAction{Type: ActionRemoveStep, StepID: extra.StepID, Reason: "policy re-evaluation dropped an approver requirement"})
		}
	default:
		for i := range current {
			if current[i].ApproverType != target[i].ApproverType {
				actions = append(actions, ReEvaluationAction{Type: ActionReorder, Reason: "policy re-evaluation changed approver ordering"})
				break
			}
		}
	}
	return actions
}

func (r *ReEvaluationEngine) apply(ctx context.Context, wf *workflow.Workflow, action ReEvaluationAction) error {
	switch action.Type {
	case ActionNoChange, ActionNotifyOnly:
		return nil
	case ActionAddStep:
		_, err := r.executor.AddStep(ctx, wf, action.ApproverType, 0, action.InsertAfter, action.Reason)
		return err
	case ActionRemoveStep:
		return r.executor.RemoveStep(ctx, wf, action.StepID, action.Reason)
	case ActionReorder:
		var order []string
		for _, s := range wf.Steps {
			if s.Status == workflow.StepPending || s.Status == workflow.StepActive {
				order = append(order, s.StepID)
			}
		}
		return r.executor.Reorder(ctx, wf, order)
	case ActionEscalate:
		active := wf.ActiveStep()
		if active == nil {
			return nil
		}
		if r.sla == nil || r.resolver == nil {
			return r.executor.Escalate(ctx, wf, active.StepID, "", action.Reason)
		}
		esc := r.sla.CreateEscalation(wf, active, sla.TriggerManualRequest, action.Reason)
		result, err := r.resolver.Resolve(ctx, wf.Context, esc.ToApproverType)
		if err != nil || !result.Success || result.Approver == nil {
			r.log.Warn(wf.TenantID, wf.WorkflowID, "[reevaluation] escalation target could not be resolved; escalating with no approver assigned", map[string]interface{}{
				"step_id": active.StepID, "to_approver_type": string(esc.ToApproverType),
			})
			return r.executor.Escalate(ctx, wf, active.StepID, "", action.Reason)
		}
		return r.sla.ExecuteEscalation(ctx, r.executor, wf, esc, result.Approver.ApproverID)
	case ActionAutoApproveRemaining:
		return r.executor.AutoApproveRemaining(ctx, wf, action.Reason)
	case ActionAutoReject:
		return r.executor.ForceReject(ctx, wf, action.Reason)
	case ActionPause:
		return nil
	}
	return nil
}
