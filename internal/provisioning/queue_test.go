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
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	mu      sync.Mutex
	order   []string
	failFor map[string]int // target system -> number of times to fail before succeeding
	calls   map[string]int
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{failFor: make(map[string]int), calls: make(map[string]int)}
}

func (e *recordingExecutor) ExecuteStep(_ context.Context, step *Step) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.order = append(e.order, step.StepID)
	e.calls[step.StepID]++
	if remaining, ok := e.failFor[step.StepID]; ok && e.calls[step.StepID] <= remaining {
		return fmt.Errorf("transient failure for %s", step.StepID)
	}
	return nil
}

func TestQueue_RunsHighestPriorityFirst(t *testing.T) {
	exec := newRecordingExecutor()
	q := NewQueue(exec)

	low := &Task{TaskID: "low", Priority: PriorityLow, Steps: []*Step{{StepID: "s-low", MaxRetries: 0}}}
	critical := &Task{TaskID: "critical", Priority: PriorityCritical, Steps: []*Step{{StepID: "s-critical", MaxRetries: 0}}}
	q.Enqueue(low)
	q.Enqueue(critical)
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.RunWorker(ctx)

	require.Len(t, exec.order, 2)
	assert.Equal(t, "s-critical", exec.order[0])
	assert.Equal(t, "s-low", exec.order[1])
}

func TestQueue_RetriesBeforeSucceeding(t *testing.T) {
	exec := newRecordingExecutor()
	exec.failFor["s1"] = 2 // fail twice, succeed on 3rd try

	q := NewQueue(exec)
	task := &Task{TaskID: "t1", Priority: PriorityNormal, Steps: []*Step{{StepID: "s1", MaxRetries: 3}}}
	q.Enqueue(task)
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	q.RunWorker(ctx)

	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, StatusCompleted, task.Steps[0].Status)
	completed, failed := q.Stats()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, failed)
}

func TestQueue_PartiallyCompletedWhenOneStepExhaustsRetries(t *testing.T) {
	exec := newRecordingExecutor()
	exec.failFor["s-bad"] = 99

	q := NewQueue(exec)
	task := &Task{
		TaskID:   "t1",
		Priority: PriorityNormal,
		Steps: []*Step{
			{StepID: "s-good", MaxRetries: 0},
			{StepID: "s-bad", MaxRetries: 1},
		},
	}
	q.Enqueue(task)
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	q.RunWorker(ctx)

	assert.Equal(t, StatusPartiallyCompleted, task.Status)
	assert.Equal(t, StatusCompleted, task.Steps[0].Status)
	assert.Equal(t, StatusFailed, task.Steps[1].Status)
}
