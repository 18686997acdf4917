// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0

/*
Package azureblob backs the policy document store for deployments that
keep policy sets as blobs in Azure Blob Storage.

# Authentication

Choose one:

  - account_key: storage account access key
  - connection_string: full Azure storage connection string
  - use_managed_identity: Azure AD auth for VMs/containers

# Configuration

  - account_name: Azure storage account name
  - bucket: the container holding policy documents (mapped to Azure's container concept)

# Operations

The connector supports exactly two operations, matching what the policy
document store issues, with "bucket" addressing the Azure container and
"key" the blob name:

  - Query with Statement "get_object" and Parameters {bucket, key}
  - Execute with Statement "put_object" and Parameters {bucket, key, body}

# Usage Example

	conn := azureblob.NewAzureBlobConnector()
	err := conn.Connect(ctx, &base.ConnectorConfig{
		Name: "policystore",
		Credentials: map[string]string{
			"account_key": "your-account-key",
		},
		Options: map[string]interface{}{
			"account_name": "mystorageaccount",
			"bucket":       "governance-policy-sets",
		},
	})

	result, err := conn.Query(ctx, &base.Query{
		Statement:  "get_object",
		Parameters: map[string]interface{}{"key": "data-access-v3.yaml"},
	})

# Thread Safety

AzureBlobConnector is safe for concurrent use by multiple goroutines.
*/
package azureblob
