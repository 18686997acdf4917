// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
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
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// getTestURI returns the MongoDB URI for testing
// Set MONGODB_TEST_URI environment variable for integration tests
func getTestURI() string {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	return uri
}

func skipIfNoMongoDB(t *testing.T) *MongoDBConnector {
	uri := getTestURI()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
		return nil
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not available: %v", err)
		return nil
	}

	c := NewMongoDBConnector()
	err = c.Connect(context.Background(), &base.ConnectorConfig{
		Name:          "test-mongodb",
		ConnectionURL: uri,
		Timeout:       30 * time.Second,
		Options: map[string]interface{}{
			"database": "orchestrator_test",
		},
	})
	if err != nil {
		t.Skipf("Failed to connect: %v", err)
		return nil
	}

	return c
}

func TestNewMongoDBConnector(t *testing.T) {
	c := NewMongoDBConnector()
	if c == nil {
		t.Fatal("NewMongoDBConnector returned nil")
	}
	if c.logger == nil {
		t.Error("expected logger to be initialized")
	}
}

func TestMongoDBConnector_Metadata(t *testing.T) {
	c := NewMongoDBConnector()

	if c.Type() != "mongodb" {
		t.Errorf("Type() = %s, want mongodb", c.Type())
	}
	if c.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", c.Version())
	}
	if c.Name() != "mongodb" {
		t.Errorf("Name() = %s, want mongodb", c.Name())
	}

	caps := c.Capabilities()
	expectedCaps := []string{"query", "execute"}
	if len(caps) != len(expectedCaps) {
		t.Errorf("Capabilities() length = %d, want %d", len(caps), len(expectedCaps))
	}
}

func TestMongoDBConnector_CollectionFromStatement(t *testing.T) {
	c := NewMongoDBConnector()

	tests := []struct {
		statement      string
		wantCollection string
		wantErr        bool
	}{
		{"find:approvers", "approvers", false},
		{"find:system_owners", "system_owners", false},
		{"approvers", "", true},
		{"find:", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			collection, err := c.collectionFromStatement(tt.statement)
			if (err != nil) != tt.wantErr {
				t.Errorf("collectionFromStatement() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && collection != tt.wantCollection {
				t.Errorf("collectionFromStatement() = %s, want %s", collection, tt.wantCollection)
			}
		})
	}
}

func TestMongoDBConnector_FilterFromParams(t *testing.T) {
	c := NewMongoDBConnector()

	filter := c.filterFromParams(map[string]interface{}{
		"system_id":     "sys-1",
		"approver_type": "data_owner",
	})

	if filter["system_id"] != "sys-1" || filter["approver_type"] != "data_owner" {
		t.Errorf("filterFromParams() = %v, missing expected keys", filter)
	}
}

func TestMongoDBConnector_ConvertFromBSON(t *testing.T) {
	c := NewMongoDBConnector()

	objectID := primitive.NewObjectID()
	dateTime := primitive.DateTime(time.Now().UnixMilli())

	tests := []struct {
		name  string
		input interface{}
	}{
		{name: "ObjectID", input: objectID},
		{name: "DateTime", input: dateTime},
		{name: "bson.M", input: bson.M{"key": "value"}},
		{name: "bson.A", input: bson.A{1, 2, 3}},
		{name: "string", input: "hello"},
		{name: "int", input: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.convertFromBSON(tt.input)
			if result == nil && tt.input != nil {
				t.Error("convertFromBSON() returned nil for non-nil input")
			}
		})
	}
}

func TestMongoDBConnector_Connect_MissingDatabase(t *testing.T) {
	c := NewMongoDBConnector()

	err := c.Connect(context.Background(), &base.ConnectorConfig{
		Name:          "test-mongodb",
		ConnectionURL: "mongodb://localhost:27017",
		Options:       map[string]interface{}{},
	})

	if err == nil {
		c.Disconnect(context.Background())
		t.Error("expected error for missing database")
	}
}

func TestMongoDBConnector_Connect_MissingURL(t *testing.T) {
	c := NewMongoDBConnector()

	err := c.Connect(context.Background(), &base.ConnectorConfig{
		Name: "test-mongodb",
	})

	if err == nil {
		t.Error("expected error for missing connection URL")
	}
}

func TestMongoDBConnector_DisconnectWithoutConnect(t *testing.T) {
	c := NewMongoDBConnector()

	err := c.Disconnect(context.Background())
	if err != nil {
		t.Errorf("Disconnect() error = %v, want nil", err)
	}
}

func TestMongoDBConnector_QueryWithoutConnect(t *testing.T) {
	c := NewMongoDBConnector()

	_, err := c.Query(context.Background(), &base.Query{
		Statement: "find:approvers",
	})

	if err == nil {
		t.Error("expected error when querying without connection")
	}
}

func TestMongoDBConnector_ExecuteWithoutConnect(t *testing.T) {
	c := NewMongoDBConnector()

	_, err := c.Execute(context.Background(), &base.Command{
		Action:    "insert",
		Statement: "find:approvers",
	})

	if err == nil {
		t.Error("expected error when executing without connection")
	}
}

func TestMongoDBConnector_HealthCheckWithoutConnect(t *testing.T) {
	c := NewMongoDBConnector()

	status, err := c.HealthCheck(context.Background())
	if err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if status.Healthy {
		t.Error("expected unhealthy status when not connected")
	}
}

// Integration tests - run with actual MongoDB
func TestMongoDBConnector_Integration_Connect(t *testing.T) {
	c := skipIfNoMongoDB(t)
	if c == nil {
		return
	}
	defer c.Disconnect(context.Background())

	if c.client == nil {
		t.Error("expected client to be initialized")
	}
	if c.database == nil {
		t.Error("expected database to be initialized")
	}
}

func TestMongoDBConnector_Integration_HealthCheck(t *testing.T) {
	c := skipIfNoMongoDB(t)
	if c == nil {
		return
	}
	defer c.Disconnect(context.Background())

	status, err := c.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if !status.Healthy {
		t.Errorf("expected healthy status, got error: %s", status.Error)
	}
}

func TestMongoDBConnector_Integration_ApproverLookup(t *testing.T) {
	c := skipIfNoMongoDB(t)
	if c == nil {
		return
	}
	defer c.Disconnect(context.Background())

	ctx := context.Background()
	collectionName := "approvers_test"

	_, err := c.Execute(ctx, &base.Command{
		Action:    "insert",
		Statement: "find:" + collectionName,
		Parameters: map[string]interface{}{
			"system_id":     "sys-1",
			"approver_type": "data_owner",
			"approver_id":   "emp-42",
		},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	result, err := c.Query(ctx, &base.Query{
		Statement: "find:" + collectionName,
		Parameters: map[string]interface{}{
			"system_id":     "sys-1",
			"approver_type": "data_owner",
		},
		Limit: 1,
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.RowCount != 1 {
		t.Errorf("expected 1 row, got %d", result.RowCount)
	}
	if result.Rows[0]["approver_id"] != "emp-42" {
		t.Errorf("unexpected approver_id: %v", result.Rows[0]["approver_id"])
	}
}
