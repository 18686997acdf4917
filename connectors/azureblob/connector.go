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

// Package azureblob backs the policy document store for deployments that
// keep policy sets as blobs in Azure Blob Storage. It implements
// base.Connector's get_object and put_object operations only, where
// "bucket" maps to an Azure container and "key" to a blob name.
package azureblob

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// AzureBlobConnector backs the policy document store: a flat key/value
// object store holding versioned policy-set documents, addressed by
// container (bucket) and blob name (key).
type AzureBlobConnector struct {
	config           *base.ConnectorConfig
	client           *azblob.Client
	serviceClient    *service.Client
	accountName      string
	defaultContainer string
	logger           *log.Logger
}

// NewAzureBlobConnector creates a new Azure Blob connector instance.
func NewAzureBlobConnector() *AzureBlobConnector {
	return &AzureBlobConnector{
		logger: log.New(os.Stdout, "[CONNECTOR_AZUREBLOB] ", log.LstdFlags),
	}
}

// Connect establishes an Azure Blob client, choosing authentication from
// whichever of connection_string, account_key, or managed identity is
// configured, in that order of preference.
func (c *AzureBlobConnector) Connect(ctx context.Context, cfg *base.ConnectorConfig) error {
	c.config = cfg

	c.accountName, _ = cfg.Options["account_name"].(string)
	bucket, _ := cfg.Options["bucket"].(string)
	c.defaultContainer = bucket

	connectionString := cfg.Credentials["connection_string"]
	accountKey := cfg.Credentials["account_key"]
	useManagedIdentity, _ := cfg.Options["use_managed_identity"].(bool)

	var err error
	switch {
	case connectionString != "":
		c.client, err = azblob.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to create client from connection string", err)
		}
		c.serviceClient, err = service.NewClientFromConnectionString(connectionString, nil)
	case accountKey != "":
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", c.accountName)
		cred, credErr := azblob.NewSharedKeyCredential(c.accountName, accountKey)
		if credErr != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to create shared key credential", credErr)
		}
		c.client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to create client", err)
		}
		c.serviceClient, err = service.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	case useManagedIdentity:
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", c.accountName)
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to create Azure credential", credErr)
		}
		c.client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return base.NewConnectorError(cfg.Name, "Connect", "failed to create client", err)
		}
		c.serviceClient, err = service.NewClient(serviceURL, cred, nil)
	default:
		return base.NewConnectorError(cfg.Name, "Connect", "no authentication method provided", nil)
	}
	if err != nil {
		return base.NewConnectorError(cfg.Name, "Connect", "failed to create service client", err)
	}

	if _, err := c.serviceClient.GetProperties(ctx, nil); err != nil {
		return base.NewConnectorError(cfg.Name, "Connect", "failed to verify Azure Blob connectivity", err)
	}

	c.logger.Printf("Connected to Azure Blob Storage: %s (account=%s, container=%s)", cfg.Name, c.accountName, c.defaultContainer)
	return nil
}

// Disconnect releases the clients.
func (c *AzureBlobConnector) Disconnect(ctx context.Context) error {
	c.client = nil
	c.serviceClient = nil
	return nil
}

// HealthCheck verifies the storage account is reachable.
func (c *AzureBlobConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.serviceClient == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "client not connected",
			Timestamp: time.Now(),
		}, nil
	}

	start := time.Now()
	_, err := c.serviceClient.GetProperties(ctx, nil)
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
		Details:   map[string]string{"account_name": c.accountName, "container": c.defaultContainer},
		Timestamp: time.Now(),
	}, nil
}

// Query fetches a blob's content. Statement must be "get_object";
// Parameters must carry "key" (bucket maps to container, defaults to the
// configured one).
func (c *AzureBlobConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	if c.client == nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "client not connected", nil)
	}
	if query.Statement != "get_object" {
		return nil, base.NewConnectorError(c.Name(), "Query", fmt.Sprintf("unsupported statement: %s", query.Statement), nil)
	}

	containerName := c.containerParam(query.Parameters)
	blobName, _ := query.Parameters["key"].(string)
	if blobName == "" {
		return nil, base.NewConnectorError(c.Name(), "Query", "key is required", nil)
	}

	start := time.Now()
	blobClient := c.client.ServiceClient().NewContainerClient(containerName).NewBlobClient(blobName)
	downloadResponse, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", fmt.Sprintf("get_object failed: %s", blobName), err)
	}
	defer downloadResponse.Body.Close()

	body, err := io.ReadAll(downloadResponse.Body)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "failed to read blob content", err)
	}

	return &base.QueryResult{
		Rows:      []map[string]interface{}{{"key": blobName, "body": string(body)}},
		RowCount:  1,
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// Execute writes a blob. Statement must be "put_object"; Parameters must
// carry "key" and "body".
func (c *AzureBlobConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	if c.client == nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "client not connected", nil)
	}
	if cmd.Statement != "put_object" {
		return nil, base.NewConnectorError(c.Name(), "Execute", fmt.Sprintf("unsupported statement: %s", cmd.Statement), nil)
	}

	containerName := c.containerParam(cmd.Parameters)
	blobName, _ := cmd.Parameters["key"].(string)
	body, _ := cmd.Parameters["body"].(string)
	if blobName == "" {
		return nil, base.NewConnectorError(c.Name(), "Execute", "key is required", nil)
	}

	start := time.Now()
	contentType := "application/x-yaml"
	_, err := c.client.UploadBuffer(ctx, containerName, blobName, []byte(body), &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", fmt.Sprintf("put_object failed: %s", blobName), err)
	}

	return &base.CommandResult{
		Success:      true,
		RowsAffected: 1,
		Duration:     time.Since(start),
		Message:      fmt.Sprintf("blob uploaded: %s", blobName),
		Connector:    c.Name(),
	}, nil
}

// Name returns the connector name.
func (c *AzureBlobConnector) Name() string {
	if c.config == nil {
		return "azureblob"
	}
	return c.config.Name
}

// Type returns the connector type.
func (c *AzureBlobConnector) Type() string { return "azureblob" }

// Version returns the connector version.
func (c *AzureBlobConnector) Version() string { return "1.0.0" }

// Capabilities returns the list of supported capabilities.
func (c *AzureBlobConnector) Capabilities() []string { return []string{"query", "execute"} }

func (c *AzureBlobConnector) containerParam(params map[string]interface{}) string {
	if bucket, _ := params["bucket"].(string); bucket != "" {
		return bucket
	}
	return c.defaultContainer
}

// Verify AzureBlobConnector implements base.Connector
var _ base.Connector = (*AzureBlobConnector)(nil)
