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

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gocql/gocql"
	_ "github.com/lib/pq"
)

// Repository persists and queries durable audit entries. Implementations
// must tenant-scope every query; WriteBatch never updates or deletes an
// existing entry.
type Repository interface {
	WriteBatch(ctx context.Context, entries []*Entry) error
	Search(ctx context.Context, filter SearchFilter) ([]*Entry, error)
	Healthy(ctx context.Context) bool
}

// NoOpRepository discards everything written to it. Used when no audit
// database is configured; keeps the orchestrator running degraded rather
// than failing workflow operations because audit storage is unavailable.
type NoOpRepository struct{}

var _ Repository = (*NoOpRepository)(nil)

func (NoOpRepository) WriteBatch(context.Context, []*Entry) error       { return nil }
func (NoOpRepository) Search(context.Context, SearchFilter) ([]*Entry, error) { return nil, nil }
func (NoOpRepository) Healthy(context.Context) bool                     { return true }

// PostgresRepository is the default durable audit backend.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository opens db and ensures the audit_entries table and
// its indexes exist.
func NewPostgresRepository(databaseURL string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit: open postgres: %w", err)
	}
	if err := createAuditTables(db); err != nil {
		return nil, fmt.Errorf("audit: create tables: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func createAuditTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_entries (
			entry_id     VARCHAR(255) PRIMARY KEY,
			tenant_id    VARCHAR(255) NOT NULL,
			workflow_id  VARCHAR(255) NOT NULL,
			event_id     VARCHAR(255) NOT NULL,
			event_type   VARCHAR(64)  NOT NULL,
			occurred_at  TIMESTAMPTZ  NOT NULL,
			actor        VARCHAR(255),
			actor_type   VARCHAR(32)  NOT NULL,
			description  TEXT,
			details      JSONB,
			evidence     JSONB,
			created_at   TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_tenant ON audit_entries(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_workflow ON audit_entries(workflow_id);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_occurred_at ON audit_entries(occurred_at);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_event_type ON audit_entries(event_type);
	`)
	return err
}

func (r *PostgresRepository) WriteBatch(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Backend: BackendPostgres, Count: len(entries), Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_entries (
			entry_id, tenant_id, workflow_id, event_id, event_type,
			occurred_at, actor, actor_type, description, details, evidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (entry_id) DO NOTHING
	`)
	if err != nil {
		return &WriteError{Backend: BackendPostgres, Count: len(entries), Cause: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		detailsJSON, _ := json.Marshal(e.Details)
		evidenceJSON, _ := json.Marshal(e.Evidence)
		if _, err := stmt.ExecContext(ctx, e.EntryID, e.TenantID, e.WorkflowID, e.EventID,
			string(e.EventType), e.Timestamp, e.Actor, string(e.ActorType), e.Description,
			detailsJSON, evidenceJSON); err != nil {
			return &WriteError{Backend: BackendPostgres, Count: len(entries), Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Backend: BackendPostgres, Count: len(entries), Cause: err}
	}
	return nil
}

func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	query := `
		SELECT entry_id, tenant_id, workflow_id, event_id, event_type,
			   occurred_at, actor, actor_type, description, details, evidence
		FROM audit_entries
		WHERE tenant_id = $1
	`
	args := []interface{}{filter.TenantID}
	argIdx := 2

	if filter.WorkflowID != "" {
		query += fmt.Sprintf(" AND workflow_id = $%d", argIdx)
		args = append(args, filter.WorkflowID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, string(filter.EventType))
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIdx)
		args = append(args, filter.Since)
		argIdx++
	}
	if !filter.Until.IsZero() {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIdx)
		args = append(args, filter.Until)
		argIdx++
	}
	query += " ORDER BY occurred_at ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		var detailsJSON, evidenceJSON []byte
		if err := rows.Scan(&e.EntryID, &e.TenantID, &e.WorkflowID, &e.EventID, &e.EventType,
			&e.Timestamp, &e.Actor, &e.ActorType, &e.Description, &detailsJSON, &evidenceJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(detailsJSON, &e.Details)
		_ = json.Unmarshal(evidenceJSON, &e.Evidence)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Healthy(ctx context.Context) bool {
	return r.db.PingContext(ctx) == nil
}

// CassandraRepository is the Enterprise-tier high-volume audit backend,
// for tenants whose audit volume outgrows Postgres's practical retention
// window. Selected via audit.Backend, gated by the license tier.
type CassandraRepository struct {
	session *gocql.Session
	keyspace string
}

var _ Repository = (*CassandraRepository)(nil)

// NewCassandraRepository connects to the given hosts/keyspace.
func NewCassandraRepository(hosts []string, keyspace string) (*CassandraRepository, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("audit: connect cassandra: %w", err)
	}
	return &CassandraRepository{session: session, keyspace: keyspace}, nil
}

func (r *CassandraRepository) WriteBatch(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, e := range entries {
		detailsJSON, _ := json.Marshal(e.Details)
		evidenceJSON, _ := json.Marshal(e.Evidence)
		batch.Query(
			`INSERT INTO audit_entries (entry_id, tenant_id, workflow_id, event_id, event_type,
				occurred_at, actor, actor_type, description, details, evidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.EntryID, e.TenantID, e.WorkflowID, e.EventID, string(e.EventType),
			e.Timestamp, e.Actor, string(e.ActorType), e.Description, string(detailsJSON), string(evidenceJSON),
		)
	}
	if err := r.session.ExecuteBatch(batch); err != nil {
		return &WriteError{Backend: BackendCassandra, Count: len(entries), Cause: err}
	}
	return nil
}

func (r *CassandraRepository) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	query := `SELECT entry_id, tenant_id, workflow_id, event_id, event_type,
		occurred_at, actor, actor_type, description, details, evidence
		FROM audit_entries WHERE tenant_id = ?`
	args := []interface{}{filter.TenantID}
	if filter.WorkflowID != "" {
		query += " AND workflow_id = ?"
		args = append(args, filter.WorkflowID)
	}
	iter := r.session.Query(query, args...).WithContext(ctx).Iter()

	var out []*Entry
	var detailsJSON, evidenceJSON string
	e := &Entry{}
	for iter.Scan(&e.EntryID, &e.TenantID, &e.WorkflowID, &e.EventID, &e.EventType,
		&e.Timestamp, &e.Actor, &e.ActorType, &e.Description, &detailsJSON, &evidenceJSON) {
		_ = json.Unmarshal([]byte(detailsJSON), &e.Details)
		_ = json.Unmarshal([]byte(evidenceJSON), &e.Evidence)
		out = append(out, e)
		e = &Entry{}
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CassandraRepository) Healthy(context.Context) bool {
	return !r.session.Closed()
}
