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

import "github.com/governex-labs/workflow-orchestrator/internal/workflow"

// ReEvaluationActionType is the verdict a re-evaluation rule produces for
// one non-terminal workflow reacting to one event.
type ReEvaluationActionType string

const (
	ActionNoChange             ReEvaluationActionType = "NO_CHANGE"
	ActionAddStep              ReEvaluationActionType = "ADD_STEP"
	ActionRemoveStep           ReEvaluationActionType = "REMOVE_STEP"
	ActionReorder              ReEvaluationActionType = "REORDER"
	ActionEscalate             ReEvaluationActionType = "ESCALATE"
	ActionAutoApproveRemaining ReEvaluationActionType = "AUTO_APPROVE_REMAINING"
	ActionAutoReject           ReEvaluationActionType = "AUTO_REJECT"
	ActionPause                ReEvaluationActionType = "PAUSE"
	ActionNotifyOnly           ReEvaluationActionType = "NOTIFY_ONLY"
)

// ReEvaluationAction is the diff the Re-Evaluation Engine produces for one
// workflow in reaction to one event; ReEvaluationEngine.Reevaluate applies
// it through the Executor.
type ReEvaluationAction struct {
	Type ReEvaluationActionType

	// ADD_STEP
	ApproverType workflow.ApproverType
	InsertAfter  int

	// REMOVE_STEP / ESCALATE
	StepID string

	Reason string
}
