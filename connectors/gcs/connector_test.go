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

package gcs

import (
	"context"
	"testing"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

func TestNewGCSConnector(t *testing.T) {
	conn := NewGCSConnector()

	if conn == nil {
		t.Fatal("expected connector to be created")
	}
	if conn.Type() != "gcs" {
		t.Errorf("expected type gcs, got %s", conn.Type())
	}
	if conn.Version() != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", conn.Version())
	}

	caps := conn.Capabilities()
	if len(caps) != 2 {
		t.Errorf("expected 2 capabilities, got %d", len(caps))
	}
}

func TestGCSConnectorQueryWithoutConnect(t *testing.T) {
	conn := NewGCSConnector()
	ctx := context.Background()

	_, err := conn.Query(ctx, &base.Query{Statement: "get_object"})
	if err == nil {
		t.Error("expected error when querying without connection")
	}
}

func TestGCSConnectorExecuteWithoutConnect(t *testing.T) {
	conn := NewGCSConnector()
	ctx := context.Background()

	_, err := conn.Execute(ctx, &base.Command{Statement: "put_object"})
	if err == nil {
		t.Error("expected error when executing without connection")
	}
}

func TestGCSConnectorHealthCheckWithoutConnect(t *testing.T) {
	conn := NewGCSConnector()
	ctx := context.Background()

	status, err := conn.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Healthy {
		t.Error("expected unhealthy status without connection")
	}
}

func TestGCSConnectorBucketParam(t *testing.T) {
	conn := NewGCSConnector()
	conn.defaultBucket = "default-bucket"

	t.Run("bucket from params", func(t *testing.T) {
		params := map[string]interface{}{"bucket": "custom-bucket"}
		if b := conn.bucketParam(params); b != "custom-bucket" {
			t.Errorf("expected custom-bucket, got %s", b)
		}
	})

	t.Run("default bucket", func(t *testing.T) {
		if b := conn.bucketParam(map[string]interface{}{}); b != "default-bucket" {
			t.Errorf("expected default-bucket, got %s", b)
		}
	})
}

func TestGCSConnectorName(t *testing.T) {
	conn := NewGCSConnector()
	conn.config = &base.ConnectorConfig{Name: "test-connector"}

	if conn.Name() != "test-connector" {
		t.Errorf("expected name test-connector, got %s", conn.Name())
	}
}

func TestGCSConnectorDisconnectWithoutConnect(t *testing.T) {
	conn := NewGCSConnector()

	if err := conn.Disconnect(context.Background()); err != nil {
		t.Errorf("unexpected error on disconnect: %v", err)
	}
}
