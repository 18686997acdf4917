// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0

/*
Package gcs backs the policy document store for deployments that keep
policy sets as objects in Google Cloud Storage.

# Authentication

  - Service Account: JSON key file or inline JSON credentials
  - Application Default Credentials (ADC): automatic discovery on GCE/GKE/Cloud Run

# Configuration

Optional credentials:

  - credentials_file: path to service account JSON key file
  - credentials_json: inline service account JSON credentials

Optional configuration:

  - bucket: the bucket holding policy documents

# Operations

The connector supports exactly two operations, matching what the policy
document store issues:

  - Query with Statement "get_object" and Parameters {bucket, key}
  - Execute with Statement "put_object" and Parameters {bucket, key, body}

# Usage Example

	conn := gcs.NewGCSConnector()
	err := conn.Connect(ctx, &base.ConnectorConfig{
		Name: "policystore",
		Credentials: map[string]string{
			"credentials_file": "/path/to/service-account.json",
		},
		Options: map[string]interface{}{
			"bucket": "governance-policy-sets",
		},
	})

	result, err := conn.Query(ctx, &base.Query{
		Statement:  "get_object",
		Parameters: map[string]interface{}{"key": "data-access-v3.yaml"},
	})

# Thread Safety

GCSConnector is safe for concurrent use by multiple goroutines.
*/
package gcs
