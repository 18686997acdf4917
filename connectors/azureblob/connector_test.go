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

package azureblob

import (
	"context"
	"testing"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

func TestNewAzureBlobConnector(t *testing.T) {
	conn := NewAzureBlobConnector()

	if conn == nil {
		t.Fatal("expected connector to be created")
	}
	if conn.Type() != "azureblob" {
		t.Errorf("expected type azureblob, got %s", conn.Type())
	}
	if conn.Version() != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", conn.Version())
	}

	caps := conn.Capabilities()
	if len(caps) != 2 {
		t.Errorf("expected 2 capabilities, got %d", len(caps))
	}
}

func TestAzureBlobConnectorQueryWithoutConnect(t *testing.T) {
	conn := NewAzureBlobConnector()
	ctx := context.Background()

	_, err := conn.Query(ctx, &base.Query{Statement: "get_object"})
	if err == nil {
		t.Error("expected error when querying without connection")
	}
}

func TestAzureBlobConnectorExecuteWithoutConnect(t *testing.T) {
	conn := NewAzureBlobConnector()
	ctx := context.Background()

	_, err := conn.Execute(ctx, &base.Command{Statement: "put_object"})
	if err == nil {
		t.Error("expected error when executing without connection")
	}
}

func TestAzureBlobConnectorHealthCheckWithoutConnect(t *testing.T) {
	conn := NewAzureBlobConnector()
	ctx := context.Background()

	status, err := conn.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Healthy {
		t.Error("expected unhealthy status without connection")
	}
}

func TestAzureBlobConnectorContainerParam(t *testing.T) {
	conn := NewAzureBlobConnector()
	conn.defaultContainer = "default-container"

	t.Run("container from bucket param", func(t *testing.T) {
		params := map[string]interface{}{"bucket": "custom-container"}
		if c := conn.containerParam(params); c != "custom-container" {
			t.Errorf("expected custom-container, got %s", c)
		}
	})

	t.Run("default container", func(t *testing.T) {
		if c := conn.containerParam(map[string]interface{}{}); c != "default-container" {
			t.Errorf("expected default-container, got %s", c)
		}
	})
}

func TestAzureBlobConnectorName(t *testing.T) {
	conn := NewAzureBlobConnector()
	conn.config = &base.ConnectorConfig{Name: "test-connector"}

	if conn.Name() != "test-connector" {
		t.Errorf("expected name test-connector, got %s", conn.Name())
	}
}

func TestAzureBlobConnectorDisconnectWithoutConnect(t *testing.T) {
	conn := NewAzureBlobConnector()

	if err := conn.Disconnect(context.Background()); err != nil {
		t.Errorf("unexpected error on disconnect: %v", err)
	}
}
