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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestWorkflow() *Workflow {
	return &Workflow{
		WorkflowID: "wf-1",
		TenantID:   "tenant-a",
		RequestID:  "req-1",
		Status:     StatusDraft,
		Steps: []*Step{
			{StepID: "step-1", Sequence: 0, ApproverType: ApproverLineManager, ApproverID: "mgr-1", Status: StepPending, SLAHours: 24},
			{StepID: "step-2", Sequence: 1, ApproverType: ApproverSecurityOfficer, ApproverID: "sec-1", Status: StepPending, SLAHours: 8},
		},
		CurrentStep: -1,
	}
}

func TestSubmit_ActivatesFirstStep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ex := NewExecutor(nil, nil).WithClock(fixedClock(now))
	wf := newTestWorkflow()

	require.NoError(t, ex.Submit(context.Background(), wf))

	assert.Equal(t, StatusWaitingApproval, wf.Status)
	assert.Equal(t, 0, wf.CurrentStep)
	assert.Equal(t, StepActive, wf.Steps[0].Status)
	require.NotNil(t, wf.Steps[0].DueAt)
	assert.Equal(t, now.Add(24*time.Hour), *wf.Steps[0].DueAt)
}

func TestSubmit_NoStepsApprovesImmediately(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	wf.Steps = nil

	require.NoError(t, ex.Submit(context.Background(), wf))
	assert.Equal(t, StatusApproved, wf.Status)
	require.NotNil(t, wf.CompletedAt)
}

func TestRecordDecision_ApproveAdvancesToNextStep(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))

	require.NoError(t, ex.RecordDecision(context.Background(), wf, "step-1", "mgr-1", DecisionApprove, "looks fine"))

	assert.Equal(t, 1, wf.CurrentStep)
	assert.Equal(t, StepApproved, wf.Steps[0].Status)
	assert.Equal(t, StepActive, wf.Steps[1].Status)
	assert.Equal(t, StatusWaitingApproval, wf.Status)
}

func TestRecordDecision_ApproveLastStepCompletesWorkflow(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	wf.Steps = wf.Steps[:1]
	require.NoError(t, ex.Submit(context.Background(), wf))

	require.NoError(t, ex.RecordDecision(context.Background(), wf, "step-1", "mgr-1", DecisionApprove, ""))

	assert.Equal(t, StatusApproved, wf.Status)
	require.NotNil(t, wf.CompletedAt)
}

func TestRecordDecision_RejectTerminatesWorkflow(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))

	require.NoError(t, ex.RecordDecision(context.Background(), wf, "step-1", "mgr-1", DecisionReject, "denied"))

	assert.Equal(t, StatusRejected, wf.Status)
	assert.Equal(t, StepRejected, wf.Steps[0].Status)
	// second step never activates
	assert.Equal(t, StepPending, wf.Steps[1].Status)
}

func TestRecordDecision_WrongStepIDErrors(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))

	err := ex.RecordDecision(context.Background(), wf, "step-2", "sec-1", DecisionApprove, "")
	var notFound *StepNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRecordDecision_InvalidWorkflowStatusErrors(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	// never submitted: still DRAFT

	err := ex.RecordDecision(context.Background(), wf, "step-1", "mgr-1", DecisionApprove, "")
	var invalid *InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestDelegate_ReassignsActiveStep(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))

	require.NoError(t, ex.Delegate(context.Background(), wf, "step-1", "mgr-1", "mgr-2", "on leave"))

	assert.Equal(t, "mgr-2", wf.Steps[0].ApproverID)
	assert.Equal(t, "mgr-2", wf.Steps[0].DelegatedTo)
	assert.Equal(t, StepActive, wf.Steps[0].Status)
}

func TestEscalate_MovesOwnershipAndResetsDueTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ex := NewExecutor(nil, nil).WithClock(fixedClock(now))
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))

	later := now.Add(20 * time.Hour)
	ex.WithClock(fixedClock(later))
	require.NoError(t, ex.Escalate(context.Background(), wf, "step-1", "sec-esc-1", "sla breached"))

	assert.Equal(t, "sec-esc-1", wf.Steps[0].ApproverID)
	assert.Equal(t, "sec-esc-1", wf.Steps[0].EscalatedTo)
	require.NotNil(t, wf.Steps[0].DueAt)
	assert.Equal(t, later.Add(24*time.Hour), *wf.Steps[0].DueAt)
}

func TestCancel_FromNonTerminalStatus(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))

	require.NoError(t, ex.Cancel(context.Background(), wf, "admin", "request withdrawn"))
	assert.Equal(t, StatusCancelled, wf.Status)
	assert.Equal(t, StepCancelled, wf.Steps[0].Status)
}

func TestCancel_AlreadyTerminalErrors(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	require.NoError(t, ex.Submit(context.Background(), wf))
	require.NoError(t, ex.Cancel(context.Background(), wf, "admin", "first cancel"))

	err := ex.Cancel(context.Background(), wf, "admin", "second cancel")
	var invalid *InvalidStateError
	require.ErrorAs(t, err, &invalid)
}

func TestProvisionThenComplete(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	wf.Steps = wf.Steps[:1]
	require.NoError(t, ex.Submit(context.Background(), wf))
	require.NoError(t, ex.RecordDecision(context.Background(), wf, "step-1", "mgr-1", DecisionApprove, ""))
	require.Equal(t, StatusApproved, wf.Status)

	require.NoError(t, ex.Provision(context.Background(), wf))
	assert.Equal(t, StatusProvisioning, wf.Status)

	require.NoError(t, ex.Complete(context.Background(), wf, true, ""))
	assert.Equal(t, StatusCompleted, wf.Status)
}

func TestComplete_FailurePath(t *testing.T) {
	ex := NewExecutor(nil, nil)
	wf := newTestWorkflow()
	wf.Steps = wf.Steps[:1]
	require.NoError(t, ex.Submit(context.Background(), wf))
	require.NoError(t, ex.RecordDecision(context.Background(), wf, "step-1", "mgr-1", DecisionApprove, ""))
	require.NoError(t, ex.Provision(context.Background(), wf))

	require.NoError(t, ex.Complete(context.Background(), wf, false, "target system unreachable"))
	assert.Equal(t, StatusFailed, wf.Status)
}
