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

package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Resolver resolves approver types against the registry, walking each
// type's fallback chain until a provider succeeds or the chain is
// exhausted. Resolution is never cached across requests: approver
// assignments (OOO status, delegates, role ownership) can change between
// one request and the next, and a stale cache would silently hand a
// decision to the wrong person.
type Resolver struct {
	registry *Registry
	log      *logger.Logger
	now      func() time.Time
}

// NewResolver builds a Resolver over registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry, log: logger.New("approver-resolver"), now: time.Now}
}

// Resolve walks approverType's provider chain in order, skipping providers
// whose circuit breaker is open, and returns the first successful
// resolution. If the primary provider is skipped or fails, the result
// records that a fallback was used and why.
func (r *Resolver) Resolve(ctx context.Context, wfCtx *workflow.Context, approverType workflow.ApproverType) (*Result, error) {
	start := r.now()
	chain := r.registry.ChainFor(approverType)
	if len(chain) == 0 {
		return nil, &ResolutionError{ApproverType: approverType, Errors: []string{"no provider registered"}}
	}

	var errs []string
	for i, entry := range chain {
		if !entry.breaker.Allow() {
			errs = append(errs, fmt.Sprintf("provider %d: circuit open", i))
			continue
		}

		approver, err := entry.provider.Resolve(ctx, wfCtx, approverType)
		if err != nil {
			entry.breaker.RecordFailure()
			errs = append(errs, fmt.Sprintf("provider %d: %v", i, err))
			r.log.Warn(wfCtx.TenantID, "", "[RESOLVER] provider failed, trying fallback", map[string]interface{}{
				"approver_type": string(approverType), "provider_index": i, "error": err.Error(),
			})
			continue
		}

		entry.breaker.RecordSuccess()
		return &Result{
			Success:          true,
			Approver:         approver,
			FallbackUsed:     i > 0,
			FallbackReason:   fallbackReason(errs),
			ResolutionTimeMS: float64(r.now().Sub(start).Microseconds()) / 1000.0,
		}, nil
	}

	return &Result{
		Success:          false,
		FallbackUsed:      len(chain) > 1,
		ResolutionTimeMS:  float64(r.now().Sub(start).Microseconds()) / 1000.0,
		Errors:            errs,
	}, &ResolutionError{ApproverType: approverType, Errors: errs}
}

func fallbackReason(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0]
}
