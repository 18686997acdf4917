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
	"time"
)

// CircuitState is one of the three states of a CircuitBreaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitBreakerConfig tunes how a provider's breaker trips and recovers.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	OpenDuration     time.Duration // how long the breaker stays open
	HalfOpenDuration time.Duration // carried in the config; not consulted by CircuitBreaker
}

// DefaultCircuitBreakerConfig opens the breaker after 5 consecutive
// failures and lets a half-open trial call through once it has been open
// for 60s; the first result recorded while half-open closes or re-opens it.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		OpenDuration:      60 * time.Second,
		HalfOpenDuration:  60 * time.Second,
	}
}

// CircuitBreaker is a per-provider failure guard. It is safe for
// concurrent use; Allow/RecordSuccess/RecordFailure form the call
// sequence a caller uses around each resolve attempt.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu                 sync.Mutex
	state              CircuitState
	consecutiveFailures int
	openedAt           time.Time
	halfOpenStartedAt  time.Time
}

// NewCircuitBreaker builds a closed circuit breaker with cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed}
}

// Allow reports whether a call should be attempted right now, transitioning
// OPEN -> HALF_OPEN once the open duration has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(b.openedAt) >= b.cfg.OpenDuration {
			b.state = CircuitHalfOpen
			b.halfOpenStartedAt = time.Now()
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker. A success observed during the
// half-open trial clears the failure count and fully re-closes the
// circuit rather than waiting out the remainder of the trial window.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.state = CircuitClosed
}

// RecordFailure counts a failed call, opening the breaker once the
// threshold is reached, and re-opening immediately if a half-open trial
// call fails.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitHalfOpen {
		b.trip()
		return
	}

	b.consecutiveFailures++
	if b.consecutiveFailures >= b.cfg.FailureThreshold {
		b.trip()
	}
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitOpen
	b.openedAt = time.Now()
}

// State returns the breaker's current state, for health checks and metrics.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
