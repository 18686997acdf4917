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

package policy

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

// DocumentStore fetches policy set documents from wherever they are
// authored. A Postgres-backed implementation serves hot reads; object
// storage (s3, azureblob, gcs) backends serve versioned policy documents
// checked in alongside the rest of a tenant's compliance artifacts.
type DocumentStore interface {
	LoadDocument(ctx context.Context, policySetID string) ([]byte, error)
	SaveDocument(ctx context.Context, policySetID string, document []byte) error
}

// NoOpDocumentStore discards writes and never finds a document. Useful in
// tests and for engines that only ever receive policy sets via LoadPolicySet.
type NoOpDocumentStore struct{}

var _ DocumentStore = (*NoOpDocumentStore)(nil)

func (NoOpDocumentStore) LoadDocument(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("policy: no-op document store holds no documents")
}

func (NoOpDocumentStore) SaveDocument(context.Context, string, []byte) error { return nil }

// ConnectorDocumentStore adapts any base.Connector (Postgres, S3, Azure
// Blob, GCS) into a DocumentStore. Object-storage connectors are queried
// with the get_object/put_object operations their connector implements;
// the Postgres connector is queried with a statement against a
// policy_documents table.
type ConnectorDocumentStore struct {
	connector base.Connector
	bucket    string
	prefix    string
}

var _ DocumentStore = (*ConnectorDocumentStore)(nil)

// NewConnectorDocumentStore wraps a connected base.Connector. bucket/prefix
// are only meaningful for object-storage connectors; Postgres connectors
// ignore them.
func NewConnectorDocumentStore(connector base.Connector, bucket, prefix string) *ConnectorDocumentStore {
	return &ConnectorDocumentStore{connector: connector, bucket: bucket, prefix: prefix}
}

func (s *ConnectorDocumentStore) key(policySetID string) string {
	return s.prefix + policySetID + ".yaml"
}

func (s *ConnectorDocumentStore) LoadDocument(ctx context.Context, policySetID string) ([]byte, error) {
	switch s.connector.Type() {
	case "postgres":
		result, err := s.connector.Query(ctx, &base.Query{
			Statement:  "SELECT document FROM policy_documents WHERE policy_set_id = $1 ORDER BY version DESC LIMIT 1",
			Parameters: map[string]interface{}{"1": policySetID},
			Limit:      1,
		})
		if err != nil {
			return nil, base.NewConnectorError(s.connector.Name(), "LoadDocument", "query failed", err)
		}
		if result.RowCount == 0 {
			return nil, fmt.Errorf("policy: no document found for policy set %s", policySetID)
		}
		doc, _ := result.Rows[0]["document"].(string)
		return []byte(doc), nil
	default:
		result, err := s.connector.Query(ctx, &base.Query{
			Statement: "get_object",
			Parameters: map[string]interface{}{
				"bucket": s.bucket,
				"key":    s.key(policySetID),
			},
		})
		if err != nil {
			return nil, base.NewConnectorError(s.connector.Name(), "LoadDocument", "get_object failed", err)
		}
		if result.RowCount == 0 {
			return nil, fmt.Errorf("policy: no document found for policy set %s", policySetID)
		}
		body, _ := result.Rows[0]["body"].(string)
		return []byte(body), nil
	}
}

func (s *ConnectorDocumentStore) SaveDocument(ctx context.Context, policySetID string, document []byte) error {
	switch s.connector.Type() {
	case "postgres":
		_, err := s.connector.Execute(ctx, &base.Command{
			Action:    "INSERT",
			Statement: "INSERT INTO policy_documents (policy_set_id, document) VALUES ($1, $2)",
			Parameters: map[string]interface{}{
				"1": policySetID,
				"2": string(document),
			},
		})
		if err != nil {
			return base.NewConnectorError(s.connector.Name(), "SaveDocument", "insert failed", err)
		}
		return nil
	default:
		_, err := s.connector.Execute(ctx, &base.Command{
			Action:    "PUT",
			Statement: "put_object",
			Parameters: map[string]interface{}{
				"bucket": s.bucket,
				"key":    s.key(policySetID),
				"body":   string(document),
			},
		})
		if err != nil {
			return base.NewConnectorError(s.connector.Name(), "SaveDocument", "put_object failed", err)
		}
		return nil
	}
}

// ParseDocument decodes a YAML policy set document into a Set.
func ParseDocument(document []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(document, &set); err != nil {
		return nil, &CompileError{Reason: fmt.Sprintf("invalid policy document: %v", err)}
	}
	return &set, nil
}

// LoadAndCompile fetches a policy set document from the store, parses it,
// and registers it with the engine in one step.
func (e *Engine) LoadAndCompile(ctx context.Context, store DocumentStore, policySetID string) (*Set, error) {
	document, err := store.LoadDocument(ctx, policySetID)
	if err != nil {
		return nil, err
	}
	set, err := ParseDocument(document)
	if err != nil {
		return nil, err
	}
	if set.PolicySetID == "" {
		set.PolicySetID = policySetID
	}
	if err := e.LoadPolicySet(set); err != nil {
		return nil, err
	}
	return set, nil
}
