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

// Package audit persists a workflow's append-only audit log durably,
// independent of the in-memory Workflow.AuditLog the executor maintains.
// It is the source of truth for compliance reporting once an entry has
// been written: nothing ever updates or deletes a persisted entry.
package audit

import (
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Backend selects which durable store persists audit entries.
type Backend string

const (
	// BackendPostgres is the default backend for all tenants.
	BackendPostgres Backend = "postgres"
	// BackendCassandra is an Enterprise-tier backend for tenants whose
	// audit volume exceeds what the Postgres repository can retain
	// practically.
	BackendCassandra Backend = "cassandra"
)

// Entry is the durable record of one workflow event, mirroring the
// audit-record contract: event id, type, timestamp, actor, description,
// details and evidence.
type Entry struct {
	EntryID    string                 `json:"entry_id"`
	TenantID   string                 `json:"tenant_id"`
	WorkflowID string                 `json:"workflow_id"`
	EventID    string                 `json:"event_id"`
	EventType  workflow.EventType     `json:"event_type"`
	Timestamp  time.Time              `json:"timestamp"`
	Actor      string                 `json:"actor"`
	ActorType  workflow.ActorType     `json:"actor_type"`
	Description string                `json:"description"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Evidence   map[string]interface{} `json:"evidence,omitempty"`
}

// FromEvent builds a durable Entry from an in-memory workflow Event.
func FromEvent(tenantID string, evt workflow.Event) *Entry {
	return &Entry{
		EntryID:     evt.EventID,
		WorkflowID:  evt.WorkflowID,
		TenantID:    tenantID,
		EventID:     evt.EventID,
		EventType:   evt.Type,
		Timestamp:   evt.OccurredAt,
		Actor:       evt.ActorID,
		ActorType:   evt.ActorType,
		Description: evt.Description,
		Details:     evt.Details,
		Evidence:    evt.Evidence,
	}
}

// SearchFilter narrows a compliance-report query over persisted entries.
type SearchFilter struct {
	TenantID   string
	WorkflowID string
	EventType  workflow.EventType
	Since      time.Time
	Until      time.Time
	Limit      int
}
