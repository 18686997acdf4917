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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_WriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := &PostgresRepository{db: db}
	entries := []*Entry{
		{EntryID: "e1", TenantID: "t1", WorkflowID: "wf1", EventID: "e1", EventType: "WORKFLOW_CREATED", Timestamp: time.Now(), ActorType: "SYSTEM"},
	}

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO audit_entries")
	mock.ExpectExec("INSERT INTO audit_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = repo.WriteBatch(context.Background(), entries)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_WriteBatch_EmptyIsNoOp(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := &PostgresRepository{db: db}
	require.NoError(t, repo.WriteBatch(context.Background(), nil))
}

func TestPostgresRepository_WriteBatch_BeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := &PostgresRepository{db: db}
	mock.ExpectBegin().WillReturnError(assert.AnError)

	err = repo.WriteBatch(context.Background(), []*Entry{{EntryID: "e1"}})
	require.Error(t, err)
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, BackendPostgres, writeErr.Backend)
}

func TestPostgresRepository_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := &PostgresRepository{db: db}
	rows := sqlmock.NewRows([]string{
		"entry_id", "tenant_id", "workflow_id", "event_id", "event_type",
		"occurred_at", "actor", "actor_type", "description", "details", "evidence",
	}).AddRow("e1", "t1", "wf1", "e1", "WORKFLOW_CREATED", time.Now(), "", "SYSTEM", "created", []byte("{}"), []byte("{}"))

	mock.ExpectQuery("SELECT (.+) FROM audit_entries WHERE tenant_id").WillReturnRows(rows)

	entries, err := repo.Search(context.Background(), SearchFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wf1", entries[0].WorkflowID)
}

func TestPostgresRepository_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := &PostgresRepository{db: db}
	mock.ExpectPing()
	assert.True(t, repo.Healthy(context.Background()))
}

func TestNoOpRepository_DiscardsWrites(t *testing.T) {
	var repo NoOpRepository
	require.NoError(t, repo.WriteBatch(context.Background(), []*Entry{{EntryID: "e1"}}))
	entries, err := repo.Search(context.Background(), SearchFilter{})
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.True(t, repo.Healthy(context.Background()))
}
