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

// Package gcs backs the policy document store for deployments that keep
// policy sets as objects in Google Cloud Storage. It implements
// base.Connector's get_object and put_object operations only.
package gcs

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// GCSConnector backs the policy document store: a flat key/value object
// store holding versioned policy-set documents.
type GCSConnector struct {
	config        *base.ConnectorConfig
	client        *storage.Client
	defaultBucket string
	logger        *log.Logger
}

// NewGCSConnector creates a new GCS connector instance.
func NewGCSConnector() *GCSConnector {
	return &GCSConnector{
		logger: log.New(os.Stdout, "[CONNECTOR_GCS] ", log.LstdFlags),
	}
}

// Connect establishes a GCS client. Credentials come from
// config.Credentials (a service-account JSON key or file path) falling
// back to Application Default Credentials when unset.
func (c *GCSConnector) Connect(ctx context.Context, cfg *base.ConnectorConfig) error {
	c.config = cfg

	bucket, _ := cfg.Options["bucket"].(string)
	c.defaultBucket = bucket

	var opts []option.ClientOption
	if credFile := cfg.Credentials["credentials_file"]; credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	} else if credJSON := cfg.Credentials["credentials_json"]; credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return base.NewConnectorError(cfg.Name, "Connect", "failed to create GCS client", err)
	}
	c.client = client

	if c.defaultBucket != "" {
		if _, err := c.client.Bucket(c.defaultBucket).Attrs(ctx); err != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to verify bucket access", err)
		}
	}

	c.logger.Printf("Connected to GCS: %s (bucket=%s)", cfg.Name, c.defaultBucket)
	return nil
}

// Disconnect closes the GCS client.
func (c *GCSConnector) Disconnect(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return base.NewConnectorError(c.Name(), "Disconnect", "failed to close client", err)
	}
	c.client = nil
	return nil
}

// HealthCheck verifies the configured bucket is reachable.
func (c *GCSConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.client == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "client not connected",
			Timestamp: time.Now(),
		}, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.client.Bucket(c.defaultBucket).Attrs(checkCtx)
	latency := time.Since(start)

	if err != nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     err.Error(),
			Latency:   latency,
			Timestamp: time.Now(),
		}, nil
	}

	return &base.HealthStatus{
		Healthy:   true,
		Latency:   latency,
		Details:   map[string]string{"bucket": c.defaultBucket},
		Timestamp: time.Now(),
	}, nil
}

// Query fetches an object's body. Statement must be "get_object";
// Parameters must carry "key" (bucket defaults to the configured one).
func (c *GCSConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	if c.client == nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "client not connected", nil)
	}
	if query.Statement != "get_object" {
		return nil, base.NewConnectorError(c.Name(), "Query", fmt.Sprintf("unsupported statement: %s", query.Statement), nil)
	}

	bucket := c.bucketParam(query.Parameters)
	key, _ := query.Parameters["key"].(string)
	if key == "" {
		return nil, base.NewConnectorError(c.Name(), "Query", "key is required", nil)
	}

	start := time.Now()
	reader, err := c.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", fmt.Sprintf("get_object failed: %s", key), err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "failed to read object body", err)
	}

	return &base.QueryResult{
		Rows:      []map[string]interface{}{{"key": key, "body": string(body)}},
		RowCount:  1,
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// Execute writes an object. Statement must be "put_object"; Parameters
// must carry "key" and "body".
func (c *GCSConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	if c.client == nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "client not connected", nil)
	}
	if cmd.Statement != "put_object" {
		return nil, base.NewConnectorError(c.Name(), "Execute", fmt.Sprintf("unsupported statement: %s", cmd.Statement), nil)
	}

	bucket := c.bucketParam(cmd.Parameters)
	key, _ := cmd.Parameters["key"].(string)
	body, _ := cmd.Parameters["body"].(string)
	if key == "" {
		return nil, base.NewConnectorError(c.Name(), "Execute", "key is required", nil)
	}

	start := time.Now()
	writer := c.client.Bucket(bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "application/x-yaml"

	if _, err := writer.Write([]byte(body)); err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", fmt.Sprintf("put_object failed: %s", key), err)
	}
	if err := writer.Close(); err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "failed to finalize write", err)
	}

	return &base.CommandResult{
		Success:      true,
		RowsAffected: 1,
		Duration:     time.Since(start),
		Message:      fmt.Sprintf("object uploaded: %s", key),
		Connector:    c.Name(),
	}, nil
}

// Name returns the connector name.
func (c *GCSConnector) Name() string {
	if c.config == nil {
		return "gcs"
	}
	return c.config.Name
}

// Type returns the connector type.
func (c *GCSConnector) Type() string { return "gcs" }

// Version returns the connector version.
func (c *GCSConnector) Version() string { return "1.0.0" }

// Capabilities returns the list of supported capabilities.
func (c *GCSConnector) Capabilities() []string { return []string{"query", "execute"} }

func (c *GCSConnector) bucketParam(params map[string]interface{}) string {
	if bucket, _ := params["bucket"].(string); bucket != "" {
		return bucket
	}
	return c.defaultBucket
}

// Ensure GCSConnector implements the Connector interface
var _ base.Connector = (*GCSConnector)(nil)
