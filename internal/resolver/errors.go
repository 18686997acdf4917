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
	"fmt"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// ResolutionError is returned when no provider (primary or fallback) could
// resolve an approver for the requested type.
type ResolutionError struct {
	ApproverType workflow.ApproverType
	Errors       []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolver: could not resolve approver type %s: %v", e.ApproverType, e.Errors)
}

func (e *ResolutionError) Code() string { return "RESOLUTION_ERROR" }

// CircuitOpenError is returned when a provider's circuit breaker is open
// and the call was rejected without even reaching the backend.
type CircuitOpenError struct {
	ApproverType workflow.ApproverType
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resolver: circuit breaker open for approver type %s", e.ApproverType)
}

func (e *CircuitOpenError) Code() string { return "RESOLVER_CIRCUIT_OPEN" }
