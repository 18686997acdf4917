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
	"os"
	"strings"
)

// Tier is a tenant's licensed feature tier.
type Tier string

const (
	TierCommunity Tier = "COMMUNITY"
	TierEnterprise Tier = "ENTERPRISE"
)

// enterpriseFeatures is the set of module/feature names gated to the
// Enterprise tier: the Cassandra high-volume audit backend, the
// confidence-weighted predictive SLA breach mode, and cross-tenant
// reporting.
var enterpriseFeatures = map[string]bool{
	"audit.cassandra_backend":  true,
	"sla.predictive_breach":    true,
	"reporting.cross_tenant":   true,
}

// LicenseChecker validates which tier a tenant is licensed for.
type LicenseChecker interface {
	TierFor(tenantID string) Tier
}

// EnvLicenseChecker reads a single process-wide deployment mode from the
// DEPLOYMENT_MODE environment variable, applying it to every tenant. A
// Community default is used if unset; Enterprise tiering requires an
// explicit opt-in.
type EnvLicenseChecker struct {
	mode string
}

var _ LicenseChecker = (*EnvLicenseChecker)(nil)

// NewEnvLicenseChecker builds an EnvLicenseChecker from DEPLOYMENT_MODE.
func NewEnvLicenseChecker() *EnvLicenseChecker {
	return &EnvLicenseChecker{mode: strings.ToLower(os.Getenv("DEPLOYMENT_MODE"))}
}

func (c *EnvLicenseChecker) TierFor(string) Tier {
	if c.mode == "" || c.mode == "community" {
		return TierCommunity
	}
	return TierEnterprise
}

// StaticLicenseChecker returns the same tier for every tenant, for tests
// and for deployments that license per-tenant out of band.
type StaticLicenseChecker struct {
	Tier Tier
}

var _ LicenseChecker = StaticLicenseChecker{}

func (c StaticLicenseChecker) TierFor(string) Tier { return c.Tier }

// Gate checks feature admission for a tenant against a LicenseChecker,
// producing the admission-check errors callers use to reject a request
// cleanly: missing tenant, unlicensed feature, or disabled module.
type Gate struct {
	checker LicenseChecker
}

// NewGate builds a Gate. A nil checker defaults to EnvLicenseChecker.
func NewGate(checker LicenseChecker) *Gate {
	if checker == nil {
		checker = NewEnvLicenseChecker()
	}
	return &Gate{checker: checker}
}

// RequireTenant returns a TenantRequiredError if ctx has no tenant id.
func (g *Gate) RequireTenant(ctx Context, operation string) error {
	return ctx.Require(operation)
}

// RequireFeature checks that tenantID's tier includes feature, returning a
// FeatureNotAvailableError if not. Features absent from enterpriseFeatures
// are assumed Community-available.
func (g *Gate) RequireFeature(tenantID, feature string) error {
	if !enterpriseFeatures[feature] {
		return nil
	}
	tier := g.checker.TierFor(tenantID)
	if tier != TierEnterprise {
		return &FeatureNotAvailableError{Feature: feature, Tier: tier}
	}
	return nil
}

// RequireModule is RequireFeature plus an explicit enablement flag, for
// features that are tier-eligible but must also be turned on per tenant
// (e.g. a tenant opted into Enterprise but hasn't configured Cassandra).
func (g *Gate) RequireModule(tenantID, feature, module string, enabled bool) error {
	if err := g.RequireFeature(tenantID, feature); err != nil {
		return err
	}
	if !enabled {
		return &ModuleNotEnabledError{Module: module}
	}
	return nil
}
