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

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

const (
	queueCapacity   = 10000
	defaultBatch    = 100
	flushInterval   = 5 * time.Second
)

// Logger queues workflow events and batch-writes them to a Repository in
// the background, so appending an audit entry never blocks a workflow
// operation on storage latency.
type Logger struct {
	repo         Repository
	log          *logger.Logger
	queue        chan *Entry
	batchSize    int
	shutdownChan chan struct{}
	wg           sync.WaitGroup

	mu      sync.Mutex
	pending []*Entry
}

// New builds a Logger backed by repo. A nil repo is treated as NoOpRepository.
func New(repo Repository) *Logger {
	if repo == nil {
		repo = NoOpRepository{}
	}
	l := &Logger{
		repo:         repo,
		log:          logger.New("audit-logger"),
		queue:        make(chan *Entry, queueCapacity),
		batchSize:    defaultBatch,
		shutdownChan: make(chan struct{}),
		pending:      make([]*Entry, 0, defaultBatch),
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

// Record enqueues a workflow event for durable persistence, converting it
// to an Entry. Never blocks the caller: if the queue is full the entry is
// written synchronously so nothing is silently dropped.
func (l *Logger) Record(tenantID string, evt workflow.Event) {
	entry := FromEvent(tenantID, evt)
	select {
	case l.queue <- entry:
	default:
		l.log.Warn(tenantID, evt.WorkflowID, "[AUDIT] queue full, writing entry synchronously", nil)
		if err := l.repo.WriteBatch(context.Background(), []*Entry{entry}); err != nil {
			l.log.Error(tenantID, evt.WorkflowID, "[AUDIT] synchronous write failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (l *Logger) drain() {
	defer l.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-l.queue:
			l.add(entry)
		case <-ticker.C:
			l.Flush()
		case <-l.shutdownChan:
			l.Flush()
			return
		}
	}
}

func (l *Logger) add(entry *Entry) {
	l.mu.Lock()
	l.pending = append(l.pending, entry)
	shouldFlush := len(l.pending) >= l.batchSize
	l.mu.Unlock()
	if shouldFlush {
		l.Flush()
	}
}

// Flush writes any queued or pending entries immediately.
func (l *Logger) Flush() {
	l.mu.Lock()
	for queued := true; queued; {
		select {
		case entry := <-l.queue:
			l.pending = append(l.pending, entry)
		default:
			queued = false
		}
	}
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return
	}
	batch := l.pending
	l.pending = make([]*Entry, 0, l.batchSize)
	l.mu.Unlock()

	if err := l.repo.WriteBatch(context.Background(), batch); err != nil {
		l.log.Error("", "", "[AUDIT] batch write failed", map[string]interface{}{"error": err.Error(), "count": len(batch)})
	}
}

// Shutdown stops the background drain goroutine after flushing remaining
// entries. Safe to call once.
func (l *Logger) Shutdown() {
	close(l.shutdownChan)
	l.wg.Wait()
}

// Search queries persisted entries through the underlying repository.
func (l *Logger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	return l.repo.Search(ctx, filter)
}

// Healthy reports whether the underlying repository is reachable.
func (l *Logger) Healthy(ctx context.Context) bool {
	return l.repo.Healthy(ctx)
}
