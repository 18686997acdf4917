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

// Package assembler turns a policy evaluation into a concrete, ordered
// workflow: it is the glue between internal/policy's rule matches and the
// internal/workflow state machine the executor drives.
package assembler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/governex-labs/workflow-orchestrator/internal/policy"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Assembler builds a Workflow from a policy Engine's evaluation of a
// request context. It never resolves approver identities itself; that is
// internal/resolver's job, invoked by the caller between assembly and
// submission (or left to the executor to resolve lazily at activation
// time); the assembler only decides the shape and ordering of the chain.
type Assembler struct {
	engine *policy.Engine
	now    func() time.Time
}

// New builds an Assembler over engine.
func New(engine *policy.Engine) *Assembler {
	return &Assembler{engine: engine, now: time.Now}
}

// WithClock overrides the assembler's time source, for deterministic tests.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Assemble runs the full assembly algorithm:
//
//  1. Evaluate the policy set(s) against ctx.
//  2. If any rule auto-rejected, short-circuit to an AUTO_REJECTED
//     workflow with zero steps.
//  3. Otherwise collect the deduplicated ADD_APPROVER directives.
//  4. If AUTO_APPROVE fired and no approver directive survived
//     dedup, short-circuit to an AUTO_APPROVED workflow with zero steps.
//  5. Otherwise build one step per surviving directive, in rule-priority
//     order, assigning each the resolved SLA (minimum of any SET_SLA
//     override and the risk-based default).
//  6. Record which rules fired, for audit and for deterministic replay
//     through Simulate.
func (a *Assembler) Assemble(ctx *workflow.Context, policySetID string) (*workflow.Workflow, error) {
	result, err := a.engine.Evaluate(ctx, policySetID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	wf := &workflow.Workflow{
		WorkflowID:     uuid.NewString(),
		TenantID:       ctx.TenantID,
		PolicySetID:    policySetID,
		Context:        ctx,
		CurrentStep:    -1,
		CreatedAt:      now,
		UpdatedAt:      now,
		AppliedRuleIDs: result.MatchedRuleIDs,
	}
	if ctx.Request != nil {
		wf.RequestID = ctx.Request.RequestID
	}

	if result.AutoReject {
		wf.Status = workflow.StatusAutoRejected
		wf.CompletedAt = &now
		return wf, nil
	}

	if result.AutoApprove {
		wf.Status = workflow.StatusAutoApproved
		wf.CompletedAt = &now
		return wf, nil
	}

	steps := make([]*workflow.Step, 0, len(result.AddedApprovers))
	for i, directive := range result.AddedApprovers {
		steps = append(steps, &workflow.Step{
			StepID:       uuid.NewString(),
			Sequence:     i,
			ApproverType: directiveApproverType(directive),
			ApproverID:   directive.StaticApproverID,
			Status:       workflow.StepPending,
			SLAHours:     result.SLAHours,
			AddedByRule:  directive.RuleID,
		})
	}
	wf.Steps = steps
	wf.Status = workflow.StatusDraft
	return wf, nil
}

func directiveApproverType(d policy.ApproverDirective) workflow.ApproverType {
	if d.ApproverType != "" {
		return d.ApproverType
	}
	return workflow.ApproverStatic
}

// Simulate runs Assemble against a candidate context without the caller
// committing to the result; useful for "what would happen if" previews.
// Determinism requirement: calling Simulate twice with the same ctx and
// policySetID (and the same loaded policy sets) must produce workflows
// that are identical except for WorkflowID/StepID/timestamps, since the
// assembler performs no randomized tie-breaking. Rules are evaluated in
// ascending (priority, rule id) order, and approver steps of equal
// priority keep the order in which their approver types first matched.
func (a *Assembler) Simulate(ctx context.Context, wfCtx *workflow.Context, policySetID string) (*workflow.Workflow, error) {
	return a.Assemble(wfCtx, policySetID)
}
