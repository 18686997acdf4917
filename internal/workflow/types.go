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

// Package workflow holds the core data model for dynamically-assembled
// approval workflows: the request context they evaluate, the step/workflow
// state machines, and the events the executor emits as a workflow advances.
package workflow

import "time"

// Status is the lifecycle state of a Workflow.
type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusPending          Status = "PENDING"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusWaitingApproval  Status = "WAITING_APPROVAL"
	StatusApproved         Status = "APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusAutoApproved     Status = "AUTO_APPROVED"
	StatusAutoRejected     Status = "AUTO_REJECTED"
	StatusCancelled        Status = "CANCELLED"
	StatusProvisioning     Status = "PROVISIONING"
	StatusCompleted        Status = "COMPLETED"
	StatusFailed           Status = "FAILED"
	StatusPaused           Status = "PAUSED"
)

// terminal reports whether a workflow in this status is final and can no
// longer transition.
func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusAutoRejected, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether a workflow in this status is final and can no
// longer transition.
func (s Status) Terminal() bool { return s.terminal() }

// StepStatus is the lifecycle state of a single WorkflowStep.
type StepStatus string

const (
	StepPending    StepStatus = "PENDING"
	StepActive     StepStatus = "ACTIVE"
	StepApproved   StepStatus = "APPROVED"
	StepRejected   StepStatus = "REJECTED"
	StepDelegated  StepStatus = "DELEGATED"
	StepEscalated  StepStatus = "ESCALATED"
	StepSkipped    StepStatus = "SKIPPED"
	StepCancelled  StepStatus = "CANCELLED"
)

// RiskLevel classifies the risk of an AccessRequest, driving default SLAs
// and provisioning strategy selection.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ApproverType enumerates the kinds of approvers the resolver registry can
// resolve an approver identity for.
type ApproverType string

const (
	ApproverLineManager         ApproverType = "LINE_MANAGER"
	ApproverRoleOwner           ApproverType = "ROLE_OWNER"
	ApproverProcessOwner        ApproverType = "PROCESS_OWNER"
	ApproverDataOwner           ApproverType = "DATA_OWNER"
	ApproverSystemOwner         ApproverType = "SYSTEM_OWNER"
	ApproverSecurityOfficer     ApproverType = "SECURITY_OFFICER"
	ApproverComplianceOfficer   ApproverType = "COMPLIANCE_OFFICER"
	ApproverCISO                ApproverType = "CISO"
	ApproverFirefighterSupervisor ApproverType = "FIREFIGHTER_SUPERVISOR"
	ApproverGovernanceDesk      ApproverType = "GOVERNANCE_DESK"
	ApproverStatic              ApproverType = "STATIC"
)

// ItemStatus is the lifecycle state of a single AccessItem. Unlike a
// Step, which records the progress of the approval chain, ItemStatus
// records the outcome that chain produced for this item, and is what the
// provisioning gate consults when deciding whether to enact it.
type ItemStatus string

const (
	ItemPending     ItemStatus = "PENDING"
	ItemApproved    ItemStatus = "APPROVED"
	ItemRejected    ItemStatus = "REJECTED"
	ItemProvisioned ItemStatus = "PROVISIONED"
	ItemFailed      ItemStatus = "FAILED"
)

// AccessItem is a single entitlement being requested (a role, a system
// account, a firefighter grant, ...).
type AccessItem struct {
	ItemID     string            `json:"item_id"`
	SystemID   string            `json:"system_id"`
	ItemType   string            `json:"item_type"`
	ItemName   string            `json:"item_name"`
	RiskLevel  RiskLevel         `json:"risk_level"`
	Tags       []string          `json:"tags,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	// Status defaults to "" (treated as ItemPending) until the governing
	// workflow reaches a terminal decision.
	Status ItemStatus `json:"status,omitempty"`
}

// EffectiveStatus returns the item's status, treating the unset zero value
// as ItemPending.
func (a AccessItem) EffectiveStatus() ItemStatus {
	if a.Status == "" {
		return ItemPending
	}
	return a.Status
}

// AccessRequest is the subject of a workflow: who is asking for what, and
// under what circumstances.
type AccessRequest struct {
	RequestID   string            `json:"request_id"`
	TenantID    string            `json:"tenant_id"`
	RequesterID string            `json:"requester_id"`
	BeneficiaryID string          `json:"beneficiary_id"`
	Items       []AccessItem      `json:"items"`
	Justification string          `json:"justification,omitempty"`
	RequestedAt time.Time         `json:"requested_at"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// OverallRisk returns the highest risk level across the request's items.
// An AccessRequest with no items is LOW risk.
func (r *AccessRequest) OverallRisk() RiskLevel {
	order := map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskCritical: 3}
	highest := RiskLow
	for _, item := range r.Items {
		if order[item.RiskLevel] > order[highest] {
			highest = item.RiskLevel
		}
	}
	return highest
}

// Context is the evaluation input handed to the policy engine and to every
// approver-resolution call: the request plus whatever attributes the
// policy conditions and resolvers need to reason about it.
type Context struct {
	Request    *AccessRequest    `json:"request"`
	TenantID   string            `json:"tenant_id"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// Attr fetches an attribute from the context's own attribute bag; request
// and item attributes are not consulted.
func (c *Context) Attr(key string) (interface{}, bool) {
	if c.Attributes != nil {
		if v, ok := c.Attributes[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Step is one hop in a workflow's approval chain.
type Step struct {
	StepID       string       `json:"step_id"`
	Sequence     int          `json:"sequence"`
	ApproverType ApproverType `json:"approver_type"`
	ApproverID   string       `json:"approver_id,omitempty"`
	FallbackIDs  []string     `json:"fallback_ids,omitempty"`
	Status       StepStatus   `json:"status"`
	SLAHours     float64      `json:"sla_hours"`
	DueAt        *time.Time   `json:"due_at,omitempty"`
	ActivatedAt  *time.Time   `json:"activated_at,omitempty"`
	DecidedAt    *time.Time   `json:"decided_at,omitempty"`
	DecidedBy    string       `json:"decided_by,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	DelegatedTo  string       `json:"delegated_to,omitempty"`
	EscalatedTo  string       `json:"escalated_to,omitempty"`
	// AddedByRule records which policy rule added this step, for audit and
	// for the re-evaluation engine's ADD_STEP/REMOVE_STEP bookkeeping.
	AddedByRule string `json:"added_by_rule,omitempty"`
}

// Activate marks the step active and computes its due time from the
// activation instant, not from whenever the workflow was assembled.
func (s *Step) Activate(now time.Time) {
	s.Status = StepActive
	s.ActivatedAt = &now
	due := now.Add(time.Duration(s.SLAHours * float64(time.Hour)))
	s.DueAt = &due
}

// Workflow is the assembled, executing instance produced by the assembler
// and driven forward by the executor.
type Workflow struct {
	WorkflowID  string    `json:"workflow_id"`
	TenantID    string    `json:"tenant_id"`
	RequestID   string    `json:"request_id"`
	PolicySetID string    `json:"policy_set_id,omitempty"`
	// Context is the WorkflowContext the assembler evaluated to produce this
	// workflow, retained so re-evaluation can re-run the policy engine
	// against the same (possibly event-updated) inputs.
	Context     *Context  `json:"context,omitempty"`
	Status      Status    `json:"status"`
	Steps       []*Step   `json:"steps"`
	CurrentStep int       `json:"current_step"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// AppliedRuleIDs is the ordered set of policy rule IDs that fired during
	// assembly, kept for audit and for deterministic re-simulation.
	AppliedRuleIDs []string `json:"applied_rule_ids,omitempty"`
}

// ActiveStep returns the currently active step, or nil if none is active
// (the workflow is not yet started, or has finished).
func (w *Workflow) ActiveStep() *Step {
	if w.CurrentStep < 0 || w.CurrentStep >= len(w.Steps) {
		return nil
	}
	return w.Steps[w.CurrentStep]
}

// ActorType classifies who or what triggered an Event, per the audit-record
// contract: a human actor, the system itself, or a policy rule acting
// autonomously (auto-approve/auto-reject).
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorSystem ActorType = "SYSTEM"
	ActorPolicy ActorType = "POLICY"
)

// EventType enumerates the kinds of events the executor and event bus emit
// over a workflow's lifetime.
type EventType string

const (
	EventWorkflowCreated     EventType = "WORKFLOW_CREATED"
	EventWorkflowSubmitted   EventType = "WORKFLOW_SUBMITTED"
	EventStepActivated       EventType = "STEP_ACTIVATED"
	EventStepApproved        EventType = "STEP_APPROVED"
	EventStepRejected        EventType = "STEP_REJECTED"
	EventStepDelegated       EventType = "STEP_DELEGATED"
	EventStepEscalated       EventType = "STEP_ESCALATED"
	EventStepSkipped         EventType = "STEP_SKIPPED"
	EventStepAdded           EventType = "STEP_ADDED"
	EventStepsReordered      EventType = "STEPS_REORDERED"
	EventWorkflowPaused      EventType = "WORKFLOW_PAUSED"
	EventWorkflowResumed     EventType = "WORKFLOW_RESUMED"
	EventWorkflowApproved    EventType = "WORKFLOW_APPROVED"
	EventWorkflowRejected    EventType = "WORKFLOW_REJECTED"
	EventWorkflowAutoApproved EventType = "WORKFLOW_AUTO_APPROVED"
	EventWorkflowAutoRejected EventType = "WORKFLOW_AUTO_REJECTED"
	EventWorkflowCancelled   EventType = "WORKFLOW_CANCELLED"
	EventProvisioningStarted EventType = "PROVISIONING_STARTED"
	EventWorkflowCompleted   EventType = "WORKFLOW_COMPLETED"
	EventWorkflowFailed      EventType = "WORKFLOW_FAILED"
	EventSLAWarning          EventType = "SLA_WARNING"
	EventSLABreached         EventType = "SLA_BREACHED"
)

// Event is a single fact about something that happened to a workflow. The
// executor hands these to its repository's AppendEvent and publishes them
// on the event bus; the audit package persists them.
type Event struct {
	EventID    string                 `json:"event_id"`
	WorkflowID string                 `json:"workflow_id"`
	StepID     string                 `json:"step_id,omitempty"`
	Type       EventType              `json:"type"`
	ActorID    string                 `json:"actor_id,omitempty"`
	ActorType  ActorType              `json:"actor_type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Description string                `json:"description"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Evidence   map[string]interface{} `json:"evidence,omitempty"`
}
