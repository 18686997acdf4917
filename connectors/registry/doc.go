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

/*
Package registry provides a thread-safe registry for the backend
connectors an orchestrator instance holds live: HR/IAM approver-resolution
backends and the policy document store.

# Overview

The Registry is the central management point for an orchestrator's
connectors. It handles:

  - Connector registration and connection lifecycle
  - Health checking across all registered connectors
  - Coordinated shutdown (disconnecting every connector)

# Creating a Registry

	registry := NewRegistry()

# Registering Connectors

Register a connector with its configuration; Register connects it
immediately and fails if the connection attempt fails:

	config := &base.ConnectorConfig{
	    Name:          "hrsystem",
	    Type:          "mysql",
	    ConnectionURL: "mysql://...",
	    TenantID:      "tenant-123",
	    Timeout:       5 * time.Second,
	}

	err := registry.Register("hrsystem", mysqlConnector, config)

# Health Checking

Check health of all registered connectors, e.g. from a periodic
background sweep:

	health := registry.HealthCheck(ctx)
	for name, status := range health {
	    if !status.Healthy {
	        log.Printf("Connector %s unhealthy: %s", name, status.Error)
	    }
	}

# Graceful Shutdown

Disconnect all connectors on shutdown:

	registry.DisconnectAll(ctx)

# Thread Safety

The Registry is safe for concurrent use. All methods use sync.RWMutex
for proper synchronization.
*/
package registry
