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

package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRLSContext_NilDBIsNoOp(t *testing.T) {
	require.NoError(t, SetRLSContext(context.Background(), nil, "tenant-a"))
}

func TestSetRLSContext_EmptyTenantIDErrors(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.Error(t, SetRLSContext(context.Background(), db, ""))
}

func TestSetRLSContext_CallsSetOrgID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("SELECT set_org_id").WithArgs("tenant-a").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, SetRLSContext(context.Background(), db, "tenant-a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRLSContext_NilDBIsNoOp(t *testing.T) {
	ResetRLSContext(context.Background(), nil)
}

func TestResetRLSContext_CallsResetOrgID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("SELECT reset_org_id").WillReturnResult(sqlmock.NewResult(0, 0))

	ResetRLSContext(context.Background(), db)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRLS_SetsAndResetsAroundFn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("SELECT set_org_id").WithArgs("tenant-a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT reset_org_id").WillReturnResult(sqlmock.NewResult(0, 0))

	var ran bool
	err = WithRLS(context.Background(), db, "tenant-a", func(*sql.DB) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRLS_ResetsEvenWhenFnFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("SELECT set_org_id").WithArgs("tenant-a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT reset_org_id").WillReturnResult(sqlmock.NewResult(0, 0))

	boom := assert.AnError
	err = WithRLS(context.Background(), db, "tenant-a", func(*sql.DB) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
