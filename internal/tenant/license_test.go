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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext_FromContext_RoundTrips(t *testing.T) {
	tc := Context{TenantID: "tenant-a", Tier: TierEnterprise}
	ctx := WithContext(context.Background(), tc)
	assert.Equal(t, tc, FromContext(ctx))
}

func TestFromContext_EmptyWhenNotSet(t *testing.T) {
	assert.Equal(t, Context{}, FromContext(context.Background()))
}

func TestContext_RequireFailsWithoutTenantID(t *testing.T) {
	ctx := Context{}
	err := ctx.Require("submit_request")
	var required *TenantRequiredError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, "TENANT_REQUIRED", required.Code())
}

func TestContext_RequireSucceedsWithTenantID(t *testing.T) {
	ctx := Context{TenantID: "tenant-a"}
	assert.NoError(t, ctx.Require("submit_request"))
}

func TestGate_RequireFeature_CommunityTierRejectsEnterpriseFeature(t *testing.T) {
	gate := NewGate(StaticLicenseChecker{Tier: TierCommunity})

	err := gate.RequireFeature("tenant-a", "audit.cassandra_backend")
	var notAvailable *FeatureNotAvailableError
	require.ErrorAs(t, err, &notAvailable)
	assert.Equal(t, TierCommunity, notAvailable.Tier)
}

func TestGate_RequireFeature_EnterpriseTierAllowsEnterpriseFeature(t *testing.T) {
	gate := NewGate(StaticLicenseChecker{Tier: TierEnterprise})
	assert.NoError(t, gate.RequireFeature("tenant-a", "audit.cassandra_backend"))
}

func TestGate_RequireFeature_UnknownFeatureIsAlwaysAvailable(t *testing.T) {
	gate := NewGate(StaticLicenseChecker{Tier: TierCommunity})
	assert.NoError(t, gate.RequireFeature("tenant-a", "workflow.submit_request"))
}

func TestGate_RequireModule_EnabledOnEnterpriseTier(t *testing.T) {
	gate := NewGate(StaticLicenseChecker{Tier: TierEnterprise})
	assert.NoError(t, gate.RequireModule("tenant-a", "audit.cassandra_backend", "cassandra", true))
}

func TestGate_RequireModule_NotEnabledEvenOnEnterpriseTier(t *testing.T) {
	gate := NewGate(StaticLicenseChecker{Tier: TierEnterprise})
	err := gate.RequireModule("tenant-a", "audit.cassandra_backend", "cassandra", false)
	var notEnabled *ModuleNotEnabledError
	require.ErrorAs(t, err, &notEnabled)
	assert.Equal(t, "cassandra", notEnabled.Module)
}

func TestGate_RequireModule_TierRejectionTakesPrecedenceOverEnablement(t *testing.T) {
	gate := NewGate(StaticLicenseChecker{Tier: TierCommunity})
	err := gate.RequireModule("tenant-a", "audit.cassandra_backend", "cassandra", true)
	var notAvailable *FeatureNotAvailableError
	require.ErrorAs(t, err, &notAvailable)
}

func TestEnvLicenseChecker_DefaultsToCommunity(t *testing.T) {
	t.Setenv("DEPLOYMENT_MODE", "")
	checker := NewEnvLicenseChecker()
	assert.Equal(t, TierCommunity, checker.TierFor("tenant-a"))
}

func TestEnvLicenseChecker_NonCommunityModeIsEnterprise(t *testing.T) {
	t.Setenv("DEPLOYMENT_MODE", "saas")
	checker := NewEnvLicenseChecker()
	assert.Equal(t, TierEnterprise, checker.TierFor("tenant-a"))
}
