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

package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

const (
	// DefaultTimeout is the default operation timeout
	DefaultTimeout = 30 * time.Second
	// DefaultConnectTimeout is the default connection timeout
	DefaultConnectTimeout = 10 * time.Second
)

// MongoDBConnector backs the IAM-system approver-resolution provider: a
// read-only lookup of data owner, system owner, and role owner by
// system_id and approver_type.
type MongoDBConnector struct {
	config   *base.ConnectorConfig
	client   *mongo.Client
	database *mongo.Database
	logger   *log.Logger
	dbName   string
}

// NewMongoDBConnector creates a new MongoDB connector instance
func NewMongoDBConnector() *MongoDBConnector {
	return &MongoDBConnector{
		logger: log.New(os.Stdout, "[CONNECTOR_MONGODB] ", log.LstdFlags),
	}
}

// Connect establishes a connection to MongoDB. The URI comes from
// config.ConnectionURL (GOVX_<NAME>_URL); the target database from
// config.Options["database"] (set by connectors/config.LoadMongoConfig).
func (c *MongoDBConnector) Connect(ctx context.Context, config *base.ConnectorConfig) error {
	c.config = config

	if config.ConnectionURL == "" {
		return base.NewConnectorError(config.Name, "Connect", "connection URL is required", nil)
	}

	clientOpts := options.Client().ApplyURI(config.ConnectionURL)
	clientOpts.SetConnectTimeout(DefaultConnectTimeout)
	clientOpts.SetAppName("workflow-orchestrator")
	clientOpts.SetRetryReads(true)

	connectCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return base.NewConnectorError(config.Name, "Connect", "failed to connect to MongoDB", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return base.NewConnectorError(config.Name, "Connect", "failed to ping MongoDB", err)
	}

	c.client = client

	dbName, ok := config.Options["database"].(string)
	if !ok || dbName == "" {
		_ = client.Disconnect(ctx)
		return base.NewConnectorError(config.Name, "Connect", "database name is required", nil)
	}
	c.dbName = dbName
	c.database = client.Database(dbName)

	c.logger.Printf("Connected to MongoDB: %s (database=%s)", config.Name, c.dbName)

	return nil
}

// Disconnect closes the MongoDB client connection
func (c *MongoDBConnector) Disconnect(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.client.Disconnect(disconnectCtx); err != nil {
		return base.NewConnectorError(c.Name(), "Disconnect", "failed to disconnect", err)
	}

	c.logger.Printf("Disconnected from MongoDB: %s", c.Name())
	return nil
}

// HealthCheck verifies the MongoDB connection is healthy
func (c *MongoDBConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.client == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "client not connected",
			Timestamp: time.Now(),
		}, nil
	}

	start := time.Now()
	err := c.client.Ping(ctx, readpref.Primary())
	latency := time.Since(start)

	if err != nil {
		return &base.HealthStatus{
			Healthy:   false,
			Latency:   latency,
			Timestamp: time.Now(),
			Error:     err.Error(),
		}, nil
	}

	return &base.HealthStatus{
		Healthy:   true,
		Latency:   latency,
		Details:   map[string]string{"database": c.dbName},
		Timestamp: time.Now(),
	}, nil
}

// Query executes a find against the collection named in the statement.
// Statement format: "find:<collection>". Parameters are used directly as
// an equality filter (system_id, approver_type, ...).
func (c *MongoDBConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	if c.client == nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "client not connected", nil)
	}

	timeout := query.Timeout
	if timeout == 0 && c.config != nil {
		timeout = c.config.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	collectionName, err := c.collectionFromStatement(query.Statement)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "invalid statement", err)
	}
	collection := c.database.Collection(collectionName)

	filter := c.filterFromParams(query.Parameters)

	opts := options.Find()
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	start := time.Now()
	cursor, err := collection.Find(queryCtx, filter, opts)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "query execution failed", err)
	}
	defer func() { _ = cursor.Close(queryCtx) }()

	results, err := c.decodeCursor(queryCtx, cursor)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "failed to decode results", err)
	}

	duration := time.Since(start)
	c.logger.Printf("Query executed (find.%s): %d results in %v", collectionName, len(results), duration)

	return &base.QueryResult{
		Rows:      results,
		RowCount:  len(results),
		Duration:  duration,
		Connector: c.Name(),
	}, nil
}

// Execute inserts a single document into the collection named in the
// statement. No resolver or policy-store call site currently issues writes
// against MongoDB; this exists so MongoDBConnector satisfies base.Connector.
func (c *MongoDBConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	if c.client == nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "client not connected", nil)
	}

	timeout := cmd.Timeout
	if timeout == 0 && c.config != nil {
		timeout = c.config.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	collectionName, err := c.collectionFromStatement(cmd.Statement)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "invalid statement", err)
	}
	collection := c.database.Collection(collectionName)

	start := time.Now()
	result, err := collection.InsertOne(execCtx, c.filterFromParams(cmd.Parameters))
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "insert failed", err)
	}
	duration := time.Since(start)

	return &base.CommandResult{
		Success:      true,
		RowsAffected: 1,
		Duration:     duration,
		Message:      fmt.Sprintf("inserted document id=%v", result.InsertedID),
		Connector:    c.Name(),
	}, nil
}

// Name returns the connector name
func (c *MongoDBConnector) Name() string {
	if c.config == nil {
		return "mongodb"
	}
	return c.config.Name
}

// Type returns the connector type
func (c *MongoDBConnector) Type() string {
	return "mongodb"
}

// Version returns the connector version
func (c *MongoDBConnector) Version() string {
	return "1.0.0"
}

// Capabilities returns the list of supported capabilities
func (c *MongoDBConnector) Capabilities() []string {
	return []string{"query", "execute"}
}

// collectionFromStatement extracts the collection name from a
// "find:<collection>" style statement.
func (c *MongoDBConnector) collectionFromStatement(statement string) (string, error) {
	parts := strings.SplitN(statement, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("expected statement of the form 'find:<collection>', got %q", statement)
	}
	return parts[1], nil
}

// filterFromParams builds an equality filter directly from the parameter
// map (e.g. {"system_id": "...", "approver_type": "..."}).
func (c *MongoDBConnector) filterFromParams(params map[string]interface{}) bson.M {
	filter := bson.M{}
	for k, v := range params {
		filter[k] = v
	}
	return filter
}

// decodeCursor decodes all documents from a cursor
func (c *MongoDBConnector) decodeCursor(ctx context.Context, cursor *mongo.Cursor) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, c.bsonToMap(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// bsonToMap converts a BSON document to a Go map with proper type handling
func (c *MongoDBConnector) bsonToMap(doc bson.M) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range doc {
		result[k] = c.convertFromBSON(v)
	}
	return result
}

// convertFromBSON converts BSON types to JSON-serializable Go types
func (c *MongoDBConnector) convertFromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time()
	case bson.M:
		return c.bsonToMap(val)
	case bson.A:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = c.convertFromBSON(item)
		}
		return result
	default:
		return val
	}
}
