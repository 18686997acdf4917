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

package assembler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/governex-labs/workflow-orchestrator/internal/policy"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

func twoApproverEngine(t *testing.T) *policy.Engine {
	t.Helper()
	e := policy.NewEngine()
	set := &policy.Set{
		PolicySetID: "ps-1",
		Rules: []policy.Rule{
			{RuleID: "r-mgr", Priority: 1, Enabled: true,
				Conditions: []policy.Condition{{Field: "request.risk_level", Operator: policy.OpIn, Value: []interface{}{"MEDIUM", "HIGH", "CRITICAL"}}},
				Actions:    []policy.Action{{Type: policy.ActionAddApprover, ApproverType: workflow.ApproverLineManager}}},
			{RuleID: "r-sec", Priority: 2, Enabled: true,
				Conditions: []policy.Condition{{Field: "request.risk_level", Operator: policy.OpIn, Value: []interface{}{"HIGH", "CRITICAL"}}},
				Actions:    []policy.Action{{Type: policy.ActionAddApprover, ApproverType: workflow.ApproverSecurityOfficer}}},
		},
	}
	require.NoError(t, e.LoadPolicySet(set))
	return e
}

func highRiskContext() *workflow.Context {
	return &workflow.Context{
		TenantID: "tenant-a",
		Request: &workflow.AccessRequest{
			RequestID: "req-1",
			Items:     []workflow.AccessItem{{ItemID: "item-1", RiskLevel: workflow.RiskHigh}},
		},
	}
}

func TestAssemble_BuildsStepsInPriorityOrder(t *testing.T) {
	a := New(twoApproverEngine(t))
	wf, err := a.Assemble(highRiskContext(), "ps-1")
	require.NoError(t, err)

	require.Len(t, wf.Steps, 2)
	assert.Equal(t, workflow.ApproverLineManager, wf.Steps[0].ApproverType)
	assert.Equal(t, workflow.ApproverSecurityOfficer, wf.Steps[1].ApproverType)
	assert.Equal(t, workflow.StatusDraft, wf.Status)
}

func TestAssemble_AutoRejectProducesZeroSteps(t *testing.T) {
	e := policy.NewEngine()
	set := &policy.Set{
		PolicySetID: "ps-reject",
		Rules: []policy.Rule{
			{RuleID: "r1", Priority: 1, Enabled: true,
				Conditions: []policy.Condition{{Field: "request.risk_level", Operator: policy.OpEquals, Value: "HIGH"}},
				Actions:    []policy.Action{{Type: policy.ActionAutoReject, Reason: "blocked"}}},
		},
	}
	require.NoError(t, e.LoadPolicySet(set))

	a := New(e)
	wf, err := a.Assemble(highRiskContext(), "ps-reject")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAutoRejected, wf.Status)
	assert.Empty(t, wf.Steps)
	require.NotNil(t, wf.CompletedAt)
}

func TestAssemble_AutoApproveProducesZeroSteps(t *testing.T) {
	e := policy.NewEngine()
	set := &policy.Set{
		PolicySetID: "ps-approve",
		Rules: []policy.Rule{
			{RuleID: "r1", Priority: 1, Enabled: true,
				Conditions: []policy.Condition{{Field: "request.risk_level", Operator: policy.OpEquals, Value: "HIGH"}},
				Actions:    []policy.Action{{Type: policy.ActionAutoApprove}}},
		},
	}
	require.NoError(t, e.LoadPolicySet(set))

	a := New(e)
	wf, err := a.Assemble(highRiskContext(), "ps-approve")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAutoApproved, wf.Status)
	assert.Empty(t, wf.Steps)
}

func TestSimulate_IsDeterministicAcrossCalls(t *testing.T) {
	a := New(twoApproverEngine(t))
	wf1, err := a.Simulate(context.Background(), highRiskContext(), "ps-1")
	require.NoError(t, err)
	wf2, err := a.Simulate(context.Background(), highRiskContext(), "ps-1")
	require.NoError(t, err)

	require.Len(t, wf1.Steps, len(wf2.Steps))
	for i := range wf1.Steps {
		assert.Equal(t, wf1.Steps[i].ApproverType, wf2.Steps[i].ApproverType)
		assert.Equal(t, wf1.Steps[i].SLAHours, wf2.Steps[i].SLAHours)
	}
	assert.Equal(t, wf1.AppliedRuleIDs, wf2.AppliedRuleIDs)
}
