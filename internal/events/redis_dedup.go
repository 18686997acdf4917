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
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisDeduplicator backs at-least-once delivery dedup with a distributed
// SETNX, so multiple orchestrator instances sharing one bus agree on which
// instance processes a given event id.
type RedisDeduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Deduplicator = (*RedisDeduplicator)(nil)

// NewRedisDeduplicator builds a RedisDeduplicator using client, keying
// dedup entries under "events:dedup:<event_id>" with the given ttl.
func NewRedisDeduplicator(client *redis.Client, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, ttl: ttl}
}

func (d *RedisDeduplicator) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf("events:dedup:%s", eventID)
	ok, err := d.client.SetNX(ctx, key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: redis dedup check for %s: %w", eventID, err)
	}
	return ok, nil
}
