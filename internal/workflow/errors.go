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

package workflow

import "fmt"

// InvalidStateError is returned when an operation is attempted against a
// workflow or step that is not in a state the operation allows.
type InvalidStateError struct {
	WorkflowID string
	Operation  string
	Current    Status
	Allowed    []Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("workflow %s: cannot %s from status %s (allowed: %v)",
		e.WorkflowID, e.Operation, e.Current, e.Allowed)
}

// Code returns the machine-readable error code, following the Code()
// convention of the module's other typed errors.
func (e *InvalidStateError) Code() string { return "WORKFLOW_INVALID_STATE" }

// NewInvalidStateError builds an InvalidStateError and checks whether the
// reported current status is actually outside the allowed set, returning
// nil if the transition was in fact legal.
func NewInvalidStateError(workflowID, operation string, current Status, allowed ...Status) *InvalidStateError {
	for _, a := range allowed {
		if a == current {
			return nil
		}
	}
	return &InvalidStateError{WorkflowID: workflowID, Operation: operation, Current: current, Allowed: allowed}
}

// StepNotFoundError is returned when a step id does not exist on a workflow.
type StepNotFoundError struct {
	WorkflowID string
	StepID     string
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("workflow %s: step %s not found", e.WorkflowID, e.StepID)
}

func (e *StepNotFoundError) Code() string { return "WORKFLOW_STEP_NOT_FOUND" }
