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

// Package s3 backs the policy document store for deployments that keep
// policy sets as versioned objects in Amazon S3 (or an S3-compatible
// service such as MinIO). It implements base.Connector's get_object and
// put_object operations only; the orchestrator never lists, presigns, or
// manages buckets.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// S3Connector backs the policy document store: a flat key/value object
// store holding versioned policy-set documents.
type S3Connector struct {
	config        *base.ConnectorConfig
	client        *s3.Client
	defaultBucket string
	logger        *log.Logger
}

// NewS3Connector creates a new S3 connector instance.
func NewS3Connector() *S3Connector {
	return &S3Connector{
		logger: log.New(os.Stdout, "[CONNECTOR_S3] ", log.LstdFlags),
	}
}

// Connect establishes an S3 client. Region and optional custom endpoint
// (for MinIO/R2/Spaces) come from config.Options; credentials from
// config.Credentials fall back to the default AWS credential chain when
// unset, so IAM-role-based deployments need no explicit secrets.
func (c *S3Connector) Connect(ctx context.Context, cfg *base.ConnectorConfig) error {
	c.config = cfg

	region := getStringOption(cfg, "region", "us-east-1")
	endpoint := getStringOption(cfg, "endpoint", "")
	forcePathStyle := getBoolOption(cfg, "force_path_style", false)

	optFns := []func(*config.LoadOptions) error{config.WithRegion(region)}

	if accessKeyID := cfg.Credentials["access_key_id"]; accessKeyID != "" {
		secretAccessKey := cfg.Credentials["secret_access_key"]
		sessionToken := cfg.Credentials["session_token"]
		creds := credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
		optFns = append(optFns, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return base.NewConnectorError(cfg.Name, "Connect", "failed to load AWS config", err)
	}

	var s3Options []func(*s3.Options)
	if endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) { o.BaseEndpoint = aws.String(endpoint) })
	}
	if forcePathStyle {
		s3Options = append(s3Options, func(o *s3.Options) { o.UsePathStyle = true })
	}

	c.client = s3.NewFromConfig(awsCfg, s3Options...)

	bucket, _ := cfg.Options["bucket"].(string)
	c.defaultBucket = bucket

	if c.defaultBucket != "" {
		if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.defaultBucket)}); err != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to verify bucket access", err)
		}
	}

	c.logger.Printf("Connected to S3: %s (region=%s, bucket=%s)", cfg.Name, region, c.defaultBucket)
	return nil
}

// Disconnect releases the client. The AWS SDK client holds no connection
// to close explicitly.
func (c *S3Connector) Disconnect(ctx context.Context) error {
	c.client = nil
	return nil
}

// HealthCheck verifies the configured bucket is reachable.
func (c *S3Connector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.client == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "client not connected",
			Timestamp: time.Now(),
		}, nil
	}

	start := time.Now()
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.defaultBucket)})
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
		Details:   map[string]string{"bucket": c.defaultBucket},
		Timestamp: time.Now(),
	}, nil
}

// Query fetches an object's body. Statement must be "get_object";
// Parameters must carry "bucket" and "key".
func (c *S3Connector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
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
	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", fmt.Sprintf("get_object failed: %s", key), err)
	}
	defer output.Body.Close()

	body, err := io.ReadAll(output.Body)
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
// must carry "bucket", "key", and "body".
func (c *S3Connector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
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
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(body)),
		ContentType: aws.String("application/x-yaml"),
	})
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", fmt.Sprintf("put_object failed: %s", key), err)
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
func (c *S3Connector) Name() string {
	if c.config == nil {
		return "s3"
	}
	return c.config.Name
}

// Type returns the connector type.
func (c *S3Connector) Type() string { return "s3" }

// Version returns the connector version.
func (c *S3Connector) Version() string { return "1.0.0" }

// Capabilities returns the list of supported capabilities.
func (c *S3Connector) Capabilities() []string { return []string{"query", "execute"} }

func (c *S3Connector) bucketParam(params map[string]interface{}) string {
	if bucket, _ := params["bucket"].(string); bucket != "" {
		return bucket
	}
	return c.defaultBucket
}

func getStringOption(cfg *base.ConnectorConfig, key, defaultValue string) string {
	if cfg.Options == nil {
		return defaultValue
	}
	if v, ok := cfg.Options[key].(string); ok && v != "" {
		return v
	}
	return defaultValue
}

func getBoolOption(cfg *base.ConnectorConfig, key string, defaultValue bool) bool {
	if cfg.Options == nil {
		return defaultValue
	}
	if v, ok := cfg.Options[key].(bool); ok {
		return v
	}
	return defaultValue
}

// Verify S3Connector implements base.Connector
var _ base.Connector = (*S3Connector)(nil)
