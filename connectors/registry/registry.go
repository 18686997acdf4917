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

package registry

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// Registry manages the live backend connectors wired into an orchestrator
// instance (HR/IAM resolution backends, the policy document store).
// Thread-safe for concurrent access.
type Registry struct {
	connectors map[string]base.Connector
	configs    map[string]*base.ConnectorConfig
	mu         sync.RWMutex
	logger     *log.Logger
}

// NewRegistry creates a new, empty connector registry.
func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[string]base.Connector),
		configs:    make(map[string]*base.ConnectorConfig),
		logger:     log.New(os.Stdout, "[CONNECTOR_REGISTRY] ", log.LstdFlags),
	}
}

// Register connects a connector and adds it to the registry under name.
// Returns error if a connector with the same name already exists.
func (r *Registry) Register(name string, connector base.Connector, config *base.ConnectorConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[name]; exists {
		return fmt.Errorf("connector '%s' already registered", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	if err := connector.Connect(ctx, config); err != nil {
		r.logger.Printf("Failed to connect connector '%s': %v", name, err)
		return fmt.Errorf("failed to connect connector '%s': %w", name, err)
	}

	r.connectors[name] = connector
	r.configs[name] = config

	r.logger.Printf("Registered connector '%s' (type: %s)", name, config.Type)

	return nil
}

// HealthCheck performs health checks on all registered connectors.
// Returns a map of connector names to their health status.
func (r *Registry) HealthCheck(ctx context.Context) map[string]*base.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]*base.HealthStatus)

	for name, connector := range r.connectors {
		status, err := connector.HealthCheck(ctx)
		if err != nil {
			r.logger.Printf("Health check failed for connector '%s': %v", name, err)
			status = &base.HealthStatus{
				Healthy: false,
				Error:   err.Error(),
			}
		}
		results[name] = status
	}

	return results
}

// DisconnectAll disconnects all registered connectors. Used for graceful shutdown.
func (r *Registry) DisconnectAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Println("Disconnecting all connectors...")

	for name, connector := range r.connectors {
		if err := connector.Disconnect(ctx); err != nil {
			r.logger.Printf("Error disconnecting connector '%s': %v", name, err)
		} else {
			r.logger.Printf("Disconnected connector '%s'", name)
		}
	}

	r.logger.Println("All connectors disconnected")
}
