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
	"time"

	"github.com/google/uuid"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// WorkflowLister supplies the set of non-terminal workflows a scheduled
// sweep should re-evaluate.
type WorkflowLister interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*workflow.Workflow, error)
}

// Sweeper periodically re-evaluates every non-terminal workflow to catch
// drift not driven by an explicit event (default cadence: every hour).
type Sweeper struct {
	repo     WorkflowLister
	engine   *ReEvaluationEngine
	tenants  []string
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper builds a Sweeper that re-evaluates tenants' workflows every
// interval, defaulting to one hour if interval is zero or negative.
func NewSweeper(repo WorkflowLister, engine *ReEvaluationEngine, tenants []string, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{repo: repo, engine: engine, tenants: tenants, interval: interval, log: logger.New("sweeper")}
}

// Run blocks, ticking every s.interval, until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	for _, tenantID := range s.tenants {
		workflows, err := s.repo.ListByTenant(ctx, tenantID)
		if err != nil {
			s.log.Warn(tenantID, "", "[EVENTS] sweep: failed to list workflows", map[string]interface{}{"error": err.Error()})
			continue
		}
		for _, wf := range workflows {
			if wf.Status.Terminal() {
				continue
			}
			evt := Event{
				EventID:   uuid.NewString(),
				EventType: TypeRiskChanged,
				Priority:  PriorityLow,
				Source:    "scheduled-sweep",
				Timestamp: time.Now(),
				AffectedWorkflowIDs: []string{wf.WorkflowID},
			}
			if _, err := s.engine.Reevaluate(ctx, wf, evt); err != nil {
				s.log.Warn(tenantID, wf.WorkflowID, "[EVENTS] sweep: re-evaluation failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
