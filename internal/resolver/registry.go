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
	"sync"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// registeredProvider pairs a Provider with the circuit breaker guarding
// calls to it. Breakers are per-registration, not per-provider-instance,
// so the same backend registered under two approver types trips
// independently for each.
type registeredProvider struct {
	provider Provider
	breaker  *CircuitBreaker
}

// Registry maps each approver type to an ordered chain of providers: the
// first entry is the primary source, later entries are fallbacks tried in
// order when an earlier one fails or its circuit is open.
type Registry struct {
	mu    sync.RWMutex
	chain map[workflow.ApproverType][]*registeredProvider
}

// NewRegistry builds an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{chain: make(map[workflow.ApproverType][]*registeredProvider)}
}

// Register appends provider to the fallback chain for approverType, using
// the default circuit breaker configuration.
func (r *Registry) Register(approverType workflow.ApproverType, provider Provider) {
	r.RegisterWithBreaker(approverType, provider, DefaultCircuitBreakerConfig())
}

// RegisterWithBreaker appends provider with a caller-supplied breaker
// configuration, for backends that warrant a different trip threshold.
func (r *Registry) RegisterWithBreaker(approverType workflow.ApproverType, provider Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain[approverType] = append(r.chain[approverType], &registeredProvider{
		provider: provider,
		breaker:  NewCircuitBreaker(cfg),
	})
}

// ChainFor returns the registered provider chain for approverType, or nil
// if nothing is registered.
func (r *Registry) ChainFor(approverType workflow.ApproverType) []*registeredProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := r.chain[approverType]
	out := make([]*registeredProvider, len(chain))
	copy(out, chain)
	return out
}
