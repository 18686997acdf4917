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

package provisioning

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// StepExecutor performs one provisioning Step against its target system.
// Concrete implementations dispatch to the target-system connector
// (HR/IAM/role-store backends) registered for step.TargetSystem.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, step *Step) error
}

// queuedTask is a Task ordered for the priority heap: lower Priority
// values run first, ties broken by arrival order (FIFO) via seq.
type queuedTask struct {
	task *Task
	seq  int64
}

type taskHeap []*queuedTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority < h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(*queuedTask)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is a priority-ordered, worker-pool-backed provisioning task
// queue: tasks are popped lowest-priority-value-first, each step within a
// task executed in order, with retry and exponential backoff on failure.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	heap    taskHeap
	seq     int64
	closed  bool

	executor StepExecutor
	log      *logger.Logger

	statsMu      sync.Mutex
	completed    int
	failed       int
}

// NewQueue builds a Queue that dispatches steps to executor.
func NewQueue(executor StepExecutor) *Queue {
	q := &Queue{executor: executor, log: logger.New("provisioning-queue")}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds task to the queue, ordering it by task.Priority.
func (q *Queue) Enqueue(task *Task) {
	q.mu.Lock()
	task.Status = StatusQueued
	q.seq++
	heap.Push(&q.heap, &queuedTask{task: task, seq: q.seq})
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *Queue) pop() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.heap.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed && q.heap.Len() == 0 {
		return nil
	}
	item := heap.Pop(&q.heap).(*queuedTask)
	return item.task
}

// Close stops the queue; workers draining with RunWorker return once no
// tasks remain.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// RunWorker pulls tasks until the queue is closed and drained or ctx is
// canceled, executing each task's steps in order.
func (q *Queue) RunWorker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		task := q.pop()
		if task == nil {
			return
		}
		q.execute(ctx, task)
	}
}

func (q *Queue) execute(ctx context.Context, task *Task) {
	task.Status = StatusInProgress
	now := time.Now()
	task.UpdatedAt = now

	allOK := true
	anyOK := false
	for _, step := range task.Steps {
		if err := q.executeStepWithRetry(ctx, step); err != nil {
			step.Status = StatusFailed
			step.ErrorMessage = err.Error()
			allOK = false
			continue
		}
		step.Status = StatusCompleted
		anyOK = true
	}

	task.UpdatedAt = time.Now()
	switch {
	case allOK:
		task.Status = StatusCompleted
		q.recordOutcome(true)
	case anyOK:
		task.Status = StatusPartiallyCompleted
		q.recordOutcome(false)
	default:
		task.Status = StatusFailed
		q.recordOutcome(false)
	}

	q.log.Info(task.TenantID, task.RequestID, "[PROVISIONING] task finished", map[string]interface{}{
		"task_id": task.TaskID, "status": string(task.Status),
	})
}

func (q *Queue) executeStepWithRetry(ctx context.Context, step *Step) error {
	started := time.Now()
	step.StartedAt = &started
	step.Status = StatusInProgress

	maxRetries := step.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 200 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			step.RetryCount = attempt
		}

		err := q.executor.ExecuteStep(ctx, step)
		if err == nil {
			completed := time.Now()
			step.CompletedAt = &completed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (q *Queue) recordOutcome(success bool) {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	if success {
		q.completed++
	} else {
		q.failed++
	}
}

// Stats returns the queue's lifetime completed/failed task counts.
func (q *Queue) Stats() (completed, failed int) {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	return q.completed, q.failed
}
