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

import (
	"context"

	"github.com/google/uuid"
)

// The methods in this file are the mutation primitives internal/events'
// Re-Evaluation Engine drives through the Executor. They never touch an
// already-completed step; only PENDING and ACTIVE steps are eligible.

// AddStep inserts a new PENDING step immediately after the step at index
// insertAfter (0-based; -1 inserts at index 0, ahead of every existing step).
func (e *Executor) AddStep(ctx context.Context, wf *Workflow, approverType ApproverType, slaHours float64, insertAfter int, reason string) (*Step, error) {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if wf.Status.Terminal() {
		return nil, NewInvalidStateError(wf.WorkflowID, "add_step", wf.Status, StatusDraft, StatusPending, StatusInProgress, StatusWaitingApproval)
	}

	step := &Step{StepID: uuid.NewString(), ApproverType: approverType, Status: StepPending, SLAHours: slaHours}

	insertAt := insertAfter + 1
	if insertAt < 0 || insertAt > len(wf.Steps) {
		insertAt = len(wf.Steps)
	}
	wf.Steps = append(wf.Steps, nil)
	copy(wf.Steps[insertAt+1:], wf.Steps[insertAt:])
	wf.Steps[insertAt] = step
	for i := range wf.Steps {
		wf.Steps[i].Sequence = i + 1
	}

	wf.UpdatedAt = e.now()
	e.emit(ctx, wf, step.StepID, EventStepAdded, "", map[string]interface{}{"approver_type": string(approverType), "reason": reason})
	return step, e.repo.Save(ctx, wf)
}

// RemoveStep transitions a PENDING or ACTIVE step to SKIPPED, keeping it in
// the chain (advancing the workflow past it if it was the active step).
// Removing an already-decided (terminal) step is rejected.
func (e *Executor) RemoveStep(ctx context.Context, wf *Workflow, stepID, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	idx, step := findStep(wf, stepID)
	if step == nil {
		return &StepNotFoundError{WorkflowID: wf.WorkflowID, StepID: stepID}
	}
	if step.Status != StepPending && step.Status != StepActive {
		return NewInvalidStateError(wf.WorkflowID, "remove_step", wf.Status, StatusDraft)
	}

	wasActive := step.Status == StepActive
	step.Status = StepSkipped
	now := e.now()
	step.DecidedAt = &now
	wf.UpdatedAt = now

	e.emit(ctx, wf, step.StepID, EventStepSkipped, "", map[string]interface{}{"reason": reason})

	if wasActive {
		// advancePastLocked saves the workflow itself (directly, or via
		// completeLocked if no eligible step remains).
		return e.advancePastLocked(ctx, wf, idx)
	}
	return e.repo.Save(ctx, wf)
}

// Reorder replaces the ordering of the workflow's not-yet-decided steps.
// newOrder must name exactly the set of PENDING/ACTIVE step ids currently
// on the workflow.
func (e *Executor) Reorder(ctx context.Context, wf *Workflow, newOrder []string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	byID := make(map[string]*Step, len(wf.Steps))
	var fixedPrefix []*Step
	for _, s := range wf.Steps {
		if s.Status == StepPending || s.Status == StepActive {
			byID[s.StepID] = s
		} else {
			fixedPrefix = append(fixedPrefix, s)
		}
	}
	if len(newOrder) != len(byID) {
		return NewInvalidStateError(wf.WorkflowID, "reorder", wf.Status, StatusDraft)
	}

	reordered := make([]*Step, 0, len(wf.Steps))
	reordered = append(reordered, fixedPrefix...)
	for _, id := range newOrder {
		s, ok := byID[id]
		if !ok {
			return &StepNotFoundError{WorkflowID: wf.WorkflowID, StepID: id}
		}
		reordered = append(reordered, s)
	}

	wf.Steps = reordered
	for i, s := range wf.Steps {
		s.Sequence = i + 1
		if s.Status == StepActive {
			wf.CurrentStep = i
		}
	}
	wf.UpdatedAt = e.now()
	e.emit(ctx, wf, "", EventStepsReordered, "", nil)
	return e.repo.Save(ctx, wf)
}

// AutoApproveRemaining skips every remaining PENDING/ACTIVE step and
// completes the workflow as APPROVED.
func (e *Executor) AutoApproveRemaining(ctx context.Context, wf *Workflow, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if wf.Status.Terminal() {
		return NewInvalidStateError(wf.WorkflowID, "auto_approve_remaining", wf.Status, StatusDraft, StatusPending, StatusInProgress, StatusWaitingApproval)
	}
	now := e.now()
	for _, s := range wf.Steps {
		if s.Status == StepPending || s.Status == StepActive {
			s.Status = StepSkipped
			s.DecidedAt = &now
			e.emit(ctx, wf, s.StepID, EventStepSkipped, "", map[string]interface{}{"reason": reason})
		}
	}
	return e.completeLocked(ctx, wf, StatusApproved)
}

// ForceReject rejects a live workflow outright (used when re-evaluation
// determines the workflow can no longer proceed, e.g. a fraud alert).
func (e *Executor) ForceReject(ctx context.Context, wf *Workflow, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if wf.Status.Terminal() {
		return NewInvalidStateError(wf.WorkflowID, "force_reject", wf.Status, StatusDraft, StatusPending, StatusInProgress, StatusWaitingApproval)
	}
	if step := wf.ActiveStep(); step != nil && step.Status == StepActive {
		now := e.now()
		step.Status = StepRejected
		step.DecidedAt = &now
		step.Comment = reason
	}
	return e.completeLocked(ctx, wf, StatusRejected)
}

// Pause suspends a live workflow so no further step activation or decision
// is accepted until Resume is called.
func (e *Executor) Pause(ctx context.Context, wf *Workflow, reason string) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if wf.Status.Terminal() {
		return NewInvalidStateError(wf.WorkflowID, "pause", wf.Status, StatusDraft, StatusPending, StatusInProgress, StatusWaitingApproval)
	}
	wf.Status = StatusPaused
	wf.UpdatedAt = e.now()
	e.emit(ctx, wf, "", EventWorkflowPaused, "", map[string]interface{}{"reason": reason})
	return e.repo.Save(ctx, wf)
}

// Resume returns a paused workflow to IN_PROGRESS.
func (e *Executor) Resume(ctx context.Context, wf *Workflow) error {
	lock := e.lockFor(wf.WorkflowID)
	lock.Lock()
	defer lock.Unlock()

	if err := NewInvalidStateError(wf.WorkflowID, "resume", wf.Status, StatusPaused); err != nil {
		return err
	}
	wf.Status = StatusInProgress
	wf.UpdatedAt = e.now()
	e.emit(ctx, wf, "", EventWorkflowResumed, "", nil)
	return e.repo.Save(ctx, wf)
}

func findStep(wf *Workflow, stepID string) (int, *Step) {
	for i, s := range wf.Steps {
		if s.StepID == stepID {
			return i, s
		}
	}
	return -1, nil
}

// advancePastLocked moves the workflow's current-step pointer forward past
// a just-skipped active step, activating the next eligible step or
// completing the workflow if none remain. Caller holds the lock.
func (e *Executor) advancePastLocked(ctx context.Context, wf *Workflow, skippedIdx int) error {
	wf.CurrentStep = skippedIdx + 1
	for wf.CurrentStep < len(wf.Steps) && wf.Steps[wf.CurrentStep].Status != StepPending {
		wf.CurrentStep++
	}
	if wf.CurrentStep >= len(wf.Steps) {
		return e.completeLocked(ctx, wf, StatusApproved)
	}
	wf.Steps[wf.CurrentStep].Activate(e.now())
	e.emit(ctx, wf, wf.Steps[wf.CurrentStep].StepID, EventStepActivated, "", map[string]interface{}{"approver_type": string(wf.Steps[wf.CurrentStep].ApproverType)})
	return e.repo.Save(ctx, wf)
}
