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
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Deduplicator decides whether an event id has already been processed, so
// at-least-once delivery doesn't re-apply a handler's effects. Backed by
// Redis in production (SETNX with a TTL); an in-memory map is fine for
// single-process deployments and tests.
type Deduplicator interface {
	// MarkProcessed returns true if eventID was NOT already marked
	// (i.e. this call is the one that should process the event).
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// MemoryDeduplicator is an in-process Deduplicator with TTL-based eviction.
type MemoryDeduplicator struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryDeduplicator builds a Deduplicator that forgets an event id
// after ttl has elapsed.
func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{seen: make(map[string]time.Time), ttl: ttl}
}

func (d *MemoryDeduplicator) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evictLocked()
	if _, ok := d.seen[eventID]; ok {
		return false, nil
	}
	d.seen[eventID] = time.Now()
	return true, nil
}

func (d *MemoryDeduplicator) evictLocked() {
	if d.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-d.ttl)
	for id, seenAt := range d.seen {
		if seenAt.Before(cutoff) {
			delete(d.seen, id)
		}
	}
}

type queuedEvent struct {
	evt Event
	seq int64
}

type eventHeap []*queuedEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].evt.Priority != h[j].evt.Priority {
		return h[i].evt.Priority > h[j].evt.Priority // higher priority first
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*queuedEvent)) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Bus is a priority-ordered publish-subscribe structure. Events are
// delivered CRITICAL > HIGH > NORMAL > LOW, ties broken by submission
// order, to every subscribed Handler, at-least-once, deduplicated by
// Event.EventID via the configured Deduplicator.
type Bus struct {
	mu          sync.Mutex
	cond        *sync.Cond
	heap        eventHeap
	seq         int64
	closed      bool
	subscribers []Handler
	dedup       Deduplicator
	log         *logger.Logger
}

// NewBus builds a Bus. A nil dedup uses an in-memory deduplicator with a
// 24-hour TTL.
func NewBus(dedup Deduplicator) *Bus {
	if dedup == nil {
		dedup = NewMemoryDeduplicator(24 * time.Hour)
	}
	b := &Bus{dedup: dedup, log: logger.New("event-bus")}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Subscribe registers h to receive every published event.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, h)
}

// Publish enqueues evt for delivery in priority order.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	b.seq++
	heap.Push(&b.heap, &queuedEvent{evt: evt, seq: b.seq})
	b.mu.Unlock()
	b.cond.Signal()
}

func (b *Bus) pop() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.heap.Len() == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.closed && b.heap.Len() == 0 {
		return Event{}, false
	}
	item := heap.Pop(&b.heap).(*queuedEvent)
	return item.evt, true
}

// Close stops Run loops once the queue drains.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Run drains the bus until Close is called and the queue empties, or ctx is
// canceled. Intended to run in its own goroutine.
func (b *Bus) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		evt, ok := b.pop()
		if !ok {
			return
		}
		b.deliver(ctx, evt)
	}
}

func (b *Bus) deliver(ctx context.Context, evt Event) {
	shouldProcess, err := b.dedup.MarkProcessed(ctx, evt.EventID)
	if err != nil {
		b.log.Warn("", "", "[EVENTS] dedup check failed, processing anyway", map[string]interface{}{"event_id": evt.EventID, "error": err.Error()})
		shouldProcess = true
	}
	if !shouldProcess {
		b.log.Info("", "", "[EVENTS] duplicate event suppressed", map[string]interface{}{"event_id": evt.EventID})
		return
	}

	b.mu.Lock()
	subscribers := append([]Handler(nil), b.subscribers...)
	b.mu.Unlock()

	for _, h := range subscribers {
		if err := h(ctx, evt); err != nil {
			b.log.Error("", "", "[EVENTS] handler failed", map[string]interface{}{"event_id": evt.EventID, "event_type": string(evt.EventType), "error": err.Error()})
		}
	}
}
