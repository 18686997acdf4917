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

// Package provisioning gates and executes the entitlement grants an
// approved workflow authorizes, and decides, per strategy, whether a
// partially-approved request can still be partially provisioned.
package provisioning

import (
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Status is the lifecycle state of a provisioning Task or Step.
type Status string

const (
	StatusPending             Status = "PENDING"
	StatusQueued              Status = "QUEUED"
	StatusInProgress          Status = "IN_PROGRESS"
	StatusCompleted           Status = "COMPLETED"
	StatusFailed              Status = "FAILED"
	StatusPartiallyCompleted  Status = "PARTIALLY_COMPLETED"
	StatusCancelled           Status = "CANCELLED"
	StatusRetryScheduled      Status = "RETRY_SCHEDULED"
)

// Action is the kind of provisioning operation a Step performs against a
// target system.
type Action string

const (
	ActionCreateUser    Action = "CREATE_USER"
	ActionUpdateUser    Action = "UPDATE_USER"
	ActionDeleteUser    Action = "DELETE_USER"
	ActionLockUser      Action = "LOCK_USER"
	ActionUnlockUser    Action = "UNLOCK_USER"
	ActionResetPassword Action = "RESET_PASSWORD"
	ActionAssignRole    Action = "ASSIGN_ROLE"
	ActionRemoveRole    Action = "REMOVE_ROLE"
	ActionSyncUser      Action = "SYNC_USER"
)

// Step is a single provisioning operation against one target system.
type Step struct {
	StepID       string
	Action       Action
	TargetSystem string
	TargetUser   string
	Parameters   map[string]interface{}

	Status       Status
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Result       map[string]interface{}

	RetryCount int
	MaxRetries int
}

// Task is the complete provisioning unit of work for one approved
// (possibly partially approved) access request.
type Task struct {
	TaskID    string
	RequestID string
	TenantID  string
	Priority  Priority
	Strategy  Strategy
	Steps     []*Step
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priority orders tasks within the provisioning queue; lower values run
// first.
type Priority int

const (
	PriorityCritical   Priority = 1
	PriorityHigh       Priority = 3
	PriorityNormal     Priority = 5
	PriorityLow        Priority = 7
	PriorityBackground Priority = 9
)

// PriorityForRisk maps a request's overall risk to a queue priority.
func PriorityForRisk(risk workflow.RiskLevel) Priority {
	switch risk {
	case workflow.RiskCritical:
		return PriorityCritical
	case workflow.RiskHigh:
		return PriorityHigh
	case workflow.RiskMedium:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// Strategy governs how a Gate decides which items of a
// request are eligible to provision.
type Strategy string

const (
	StrategyAllOrNothing     Strategy = "ALL_OR_NOTHING"
	StrategyPartialAllowed   Strategy = "PARTIAL_ALLOWED"
	StrategyRiskBasedPartial Strategy = "RISK_BASED_PARTIAL"
	StrategyTagBased         Strategy = "TAG_BASED"
)

// ItemDecision records whether a single access item is authorized to
// provision, keyed to the approval chain that covered it.
type ItemDecision struct {
	Item       workflow.AccessItem
	Authorized bool
	Reason     string
}

// GateResult is the outcome of evaluating a request against a Strategy.
type GateResult struct {
	RequestID      string
	Strategy       Strategy
	FullyAuthorized bool
	Decisions      []ItemDecision
}

// AuthorizedItems returns only the items the gate authorized.
func (r *GateResult) AuthorizedItems() []workflow.AccessItem {
	var items []workflow.AccessItem
	for _, d := range r.Decisions {
		if d.Authorized {
			items = append(items, d.Item)
		}
	}
	return items
}
