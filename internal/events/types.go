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

// Package events is the orchestrator's event bus and re-evaluation engine:
// the single integration surface through which external signals (risk
// changes, SoD detections, SLA breaches, fraud alerts, HR terminations,
// role revocations, provisioning outcomes, signed webhooks) reshape a live
// workflow before its final decision.
package events

import (
	"context"
	"time"
)

// Priority orders delivery: CRITICAL events are handed to subscribers
// before HIGH, HIGH before NORMAL, NORMAL before LOW; ties within a
// priority are delivered in submission order.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// Type enumerates the closed set of event kinds the bus carries.
type Type string

const (
	TypeRiskChanged           Type = "risk-changed"
	TypeSoDDetected           Type = "sod-detected"
	TypeSLAWarning            Type = "sla-warning"
	TypeSLABreach             Type = "sla-breach"
	TypeFraudAlert            Type = "fraud-alert"
	TypeUserTerminated        Type = "user-terminated"
	TypeRoleRevoked           Type = "role-revoked"
	TypeProvisioningSucceeded Type = "provisioning-succeeded"
	TypeProvisioningFailed    Type = "provisioning-failed"
	TypeExternalWebhook       Type = "external-webhook"
)

// reEvaluationTriggers is the subset of Type that the re-evaluation engine
// reacts to when the event names a non-terminal workflow.
var reEvaluationTriggers = map[Type]bool{
	TypeRiskChanged:    true,
	TypeSoDDetected:    true,
	TypeSLABreach:      true,
	TypeFraudAlert:     true,
	TypeUserTerminated: true,
	TypeRoleRevoked:    true,
}

// TriggersReEvaluation reports whether t is one of the types the
// re-evaluation engine reacts to.
func TriggersReEvaluation(t Type) bool { return reEvaluationTriggers[t] }

// Event is the bus's wire shape: {event_id, event_type, priority, source,
// timestamp, payload, affected_workflow_ids[]}. EventID is the
// deduplication key for at-least-once delivery.
type Event struct {
	EventID             string                 `json:"event_id"`
	EventType           Type                   `json:"event_type"`
	Priority            Priority               `json:"priority"`
	Source              string                 `json:"source"`
	Timestamp           time.Time              `json:"timestamp"`
	Payload             map[string]interface{} `json:"payload"`
	AffectedWorkflowIDs []string               `json:"affected_workflow_ids"`
}

// Handler processes one delivered event. Handlers must be idempotent with
// respect to Event.EventID since delivery is at-least-once.
type Handler func(ctx context.Context, evt Event) error
