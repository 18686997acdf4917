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
	"fmt"
	"time"

	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Context is the explicit tenant-scoping parameter threaded through
// admission checks, in place of ambient thread-local state: every
// operation that touches tenant-owned data takes one of these rather than
// discovering its tenant from a goroutine-local.
type Context struct {
	TenantID string
	Tier     Tier
}

// Require returns a TenantRequiredError if no tenant id is set.
func (c Context) Require(operation string) error {
	if c.TenantID == "" {
		return &TenantRequiredError{Operation: operation}
	}
	return nil
}

type contextKey string

const tenantContextKey contextKey = "tenant_context"

// WithContext attaches tc to ctx so downstream callers (event publishers,
// audit writers) that only receive a context.Context can recover which
// tenant the in-flight operation belongs to.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}

// FromContext recovers the Context attached by WithContext, returning the
// zero Context (tenant id "", tier "") if none was attached.
func FromContext(ctx context.Context) Context {
	tc, _ := ctx.Value(tenantContextKey).(Context)
	return tc
}

var log = logger.New("tenant")

// SetRLSContext sets the app.current_org_id session variable for
// row-level-security enforcement. Must be called before any tenant-scoped
// query and paired with ResetRLSContext.
func SetRLSContext(ctx context.Context, db *sql.DB, tenantID string) error {
	if db == nil {
		return nil
	}
	if tenantID == "" {
		return fmt.Errorf("tenant: RLS: tenant id cannot be empty")
	}

	rlsCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := db.ExecContext(rlsCtx, "SELECT set_org_id($1)", tenantID); err != nil {
		return fmt.Errorf("tenant: RLS: failed to set session variable: %w", err)
	}
	log.Debug("", "", "[TENANT] RLS context set", map[string]interface{}{"tenant_id": tenantID})
	return nil
}

// ResetRLSContext clears the RLS session variable, preventing leakage
// across pooled connections.
func ResetRLSContext(ctx context.Context, db *sql.DB) {
	if db == nil {
		return
	}
	rlsCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if _, err := db.ExecContext(rlsCtx, "SELECT reset_org_id()"); err != nil {
		log.Warn("", "", "[TENANT] failed to reset RLS context (non-fatal)", map[string]interface{}{"error": err.Error()})
	}
}

// WithRLS runs fn with db's RLS session variable scoped to tenantID,
// always resetting it afterward even if fn fails.
func WithRLS(ctx context.Context, db *sql.DB, tenantID string, fn func(*sql.DB) error) error {
	if err := SetRLSContext(ctx, db, tenantID); err != nil {
		return err
	}
	defer ResetRLSContext(ctx, db)
	return fn(db)
}
