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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/governex-labs/workflow-orchestrator/internal/assembler"
	"github.com/governex-labs/workflow-orchestrator/internal/policy"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// fakeExecutor records every call the re-evaluation engine makes, without
// touching real workflow state, so tests can assert on intent rather than
// on the full executor's side effects.
type fakeExecutor struct {
	added      []string
	removed    []string
	reordered  [][]string
	approvedAll bool
	rejected   bool
	escalated  []string
	failAdd    bool
}

func (f *fakeExecutor) AddStep(ctx context.Context, wf *workflow.Workflow, approverType workflow.ApproverType, slaHours float64, insertAfter int, reason string) (*workflow.Step, error) {
	if f.failAdd {
		return nil, assertErr
	}
	f.added = append(f.added, string(approverType))
	return &workflow.Step{StepID: "new-step", ApproverType: approverType, Status: workflow.StepPending}, nil
}

func (f *fakeExecutor) RemoveStep(ctx context.Context, wf *workflow.Workflow, stepID, reason string) error {
	f.removed = append(f.removed, stepID)
	return nil
}

func (f *fakeExecutor) Reorder(ctx context.Context, wf *workflow.Workflow, newOrder []string) error {
	f.reordered = append(f.reordered, newOrder)
	return nil
}

func (f *fakeExecutor) AutoApproveRemaining(ctx context.Context, wf *workflow.Workflow, reason string) error {
	f.approvedAll = true
	return nil
}

func (f *fakeExecutor) ForceReject(ctx context.Context, wf *workflow.Workflow, reason string) error {
	f.rejected = true
	return nil
}

func (f *fakeExecutor) Escalate(ctx context.Context, wf *workflow.Workflow, stepID, toID, reason string) error {
	f.escalated = append(f.escalated, stepID)
	return nil
}

var assertErr = &testExecutorError{}

type testExecutorError struct{}

func (e *testExecutorError) Error() string { return "fake executor failure" }

func newTestEngine(t *testing.T, rules ...policy.Rule) (*ReEvaluationEngine, *fakeExecutor) {
	t.Helper()
	for i := range rules {
		rules[i].Enabled = true
	}
	set := &policy.Set{PolicySetID: "ps-1", Rules: rules}
	engine := policy.NewEngine()
	require.NoError(t, engine.LoadPolicySet(set))
	asm := assembler.New(engine)
	exec := &fakeExecutor{}
	return NewReEvaluationEngine(asm, exec), exec
}

func baseWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		WorkflowID:  "wf-1",
		TenantID:    "tenant-a",
		PolicySetID: "ps-1",
		Status:      workflow.StatusInProgress,
		CurrentStep: 0,
		Context: &workflow.Context{
			TenantID:   "tenant-a",
			Attributes: map[string]interface{}{"risk_level": "LOW"},
		},
		Steps: []*workflow.Step{
			{StepID: "step-1", Sequence: 0, ApproverType: workflow.ApproverLineManager, Status: workflow.StepActive},
		},
	}
}

func TestReevaluate_TerminalWorkflowIsNoOp(t *testing.T) {
	engine, exec := newTestEngine(t)
	wf := baseWorkflow()
	wf.Status = workflow.StatusCompleted

	actions, err := engine.Reevaluate(context.Background(), wf, Event{EventType: TypeRiskChanged})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoChange, actions[0].Type)
	assert.Empty(t, exec.added)
}

func TestReevaluate_NonTriggeringEventTypeIsNoOp(t *testing.T) {
	engine, _ := newTestEngine(t)
	wf := baseWorkflow()

	actions, err := engine.Reevaluate(context.Background(), wf, Event{EventType: TypeSLAWarning})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoChange, actions[0].Type)
}

func TestReevaluate_FraudAlertForcesAutoReject(t *testing.T) {
	engine, exec := newTestEngine(t)
	wf := baseWorkflow()

	actions, err := engine.Reevaluate(context.Background(), wf, Event{EventType: TypeFraudAlert})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionAutoReject, actions[0].Type)
	assert.True(t, exec.rejected)
}

func TestReevaluate_UserTerminatedEscalatesActiveStep(t *testing.T) {
	engine, exec := newTestEngine(t)
	wf := baseWorkflow()

	actions, err := engine.Reevaluate(context.Background(), wf, Event{EventType: TypeUserTerminated})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionEscalate, actions[0].Type)
	assert.Equal(t, []string{"step-1"}, exec.escalated)
}

func TestReevaluate_RoleRevokedWithNoActiveStepNotifiesOnly(t *testing.T) {
	engine, exec := newTestEngine(t)
	wf := baseWorkflow()
	wf.CurrentStep = -1

	actions, err := engine.Reevaluate(context.Background(), wf, Event{EventType: TypeRoleRevoked})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNotifyOnly, actions[0].Type)
	assert.Empty(t, exec.escalated)
}

func TestReevaluate_RiskChangedAddsStepWhenPolicyNowRequiresMoreApprovers(t *testing.T) {
	rule := policy.Rule{
		RuleID:   "r-high-risk",
		Priority: 1,
		Conditions: []policy.Condition{
			{Field: "risk_level", Operator: policy.OpEquals, Value: "HIGH"},
		},
		Actions: []policy.Action{
			{Type: policy.ActionAddApprover, ApproverType: workflow.ApproverSecurityOfficer},
		},
	}
	engine, exec := newTestEngine(t, rule)

	// The existing LINE_MANAGER step has already been decided; only the
	// newly-required SECURITY_OFFICER step is still outstanding against the
	// current (empty) pending/active set, so this is a pure addition.
	wf := baseWorkflow()
	wf.Steps[0].Status = workflow.StepApproved
	wf.CurrentStep = -1

	actions, err := engine.Reevaluate(context.Background(), wf, Event{
		EventType: TypeRiskChanged,
		Payload:   map[string]interface{}{"risk_level": "HIGH"},
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionAddStep, actions[0].Type)
	assert.Equal(t, []string{string(workflow.ApproverSecurityOfficer)}, exec.added)
}

func TestReevaluate_RiskChangedWithNoPolicyDriftIsNoOp(t *testing.T) {
	wf := baseWorkflow()
	// A rule that matches the workflow's existing LINE_MANAGER step exactly,
	// so reassembly reproduces the same shape and no action is needed.
	noopRule := policy.Rule{
		RuleID:   "r-line-manager",
		Priority: 1,
		Conditions: []policy.Condition{
			{Field: "risk_level", Operator: policy.OpEquals, Value: "LOW"},
		},
		Actions: []policy.Action{
			{Type: policy.ActionAddApprover, ApproverType: workflow.ApproverLineManager},
		},
	}
	engine, exec := newTestEngine(t, noopRule)

	actions, err := engine.Reevaluate(context.Background(), wf, Event{
		EventType: TypeRiskChanged,
		Payload:   map[string]interface{}{"risk_level": "LOW"},
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNoChange, actions[0].Type)
	assert.Empty(t, exec.added)
	assert.Empty(t, exec.removed)
}
