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

// Package policy evaluates policy sets against a workflow context and
// produces the actions the assembler uses to build an approval chain.
package policy

import (
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals       Operator = "="
	OpNotEquals    Operator = "!="
	OpLessThan     Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreaterThan  Operator = ">"
	OpGreaterEqual Operator = ">="
	OpIn           Operator = "in"
	OpNotIn        Operator = "not-in"
	OpContains     Operator = "contains"
	OpMatchesRegex Operator = "matches-regex"
	OpIsEmpty      Operator = "is-empty"
	OpAnyOf        Operator = "any-of"
	OpAllOf        Operator = "all-of"
)

// Condition is a single predicate over a workflow.Context attribute.
type Condition struct {
	Field    string      `json:"field" yaml:"field"`
	Operator Operator    `json:"operator" yaml:"operator"`
	Value    interface{} `json:"value" yaml:"value"`
	// Conditions nests sub-conditions for any-of/all-of composite operators.
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ActionType is the kind of effect a rule has when it matches.
type ActionType string

const (
	ActionAddApprover ActionType = "ADD_APPROVER"
	ActionAutoApprove ActionType = "AUTO_APPROVE"
	ActionAutoReject  ActionType = "AUTO_REJECT"
	ActionSetSLA      ActionType = "SET_SLA"
)

// Action is the effect applied when a rule's conditions all hold.
type Action struct {
	Type         ActionType          `json:"type" yaml:"type"`
	ApproverType workflow.ApproverType `json:"approver_type,omitempty" yaml:"approver_type,omitempty"`
	StaticApproverID string          `json:"static_approver_id,omitempty" yaml:"static_approver_id,omitempty"`
	SLAHours     float64             `json:"sla_hours,omitempty" yaml:"sla_hours,omitempty"`
	Reason       string              `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Rule is a single named predicate -> action pair within a policy set.
// Priority breaks ties when multiple ADD_APPROVER rules target the same
// approver type; lower priority values are kept during dedup.
type Rule struct {
	RuleID     string      `json:"rule_id" yaml:"rule_id"`
	Name       string      `json:"name" yaml:"name"`
	Priority   int         `json:"priority" yaml:"priority"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Actions    []Action    `json:"actions" yaml:"actions"`
	Enabled    bool        `json:"enabled" yaml:"enabled"`
}

// Set is a versioned, named collection of rules evaluated together.
type Set struct {
	PolicySetID string    `json:"policy_set_id" yaml:"policy_set_id"`
	TenantID    string    `json:"tenant_id" yaml:"tenant_id"`
	Name        string    `json:"name" yaml:"name"`
	Version     int       `json:"version" yaml:"version"`
	Rules       []Rule    `json:"rules" yaml:"rules"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Result is the outcome of evaluating a Set against a workflow.Context.
type Result struct {
	PolicySetID    string
	AutoApprove    bool
	AutoReject     bool
	RejectReason   string
	AddedApprovers []ApproverDirective
	SLAHours       float64
	MatchedRuleIDs []string
}

// ApproverDirective is one ADD_APPROVER action that survived dedup.
type ApproverDirective struct {
	ApproverType workflow.ApproverType
	StaticApproverID string
	RuleID       string
	Priority     int
}
