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

// Package tenant carries the admission-time tenant context: which org a
// request belongs to, database-level row isolation for that org, and
// tier/feature gating for the modules that are Enterprise-only.
package tenant

import "fmt"

// TenantRequiredError is returned when an operation that must be
// tenant-scoped is attempted without a tenant id.
type TenantRequiredError struct {
	Operation string
}

func (e *TenantRequiredError) Error() string {
	return fmt.Sprintf("tenant: %s requires a tenant id", e.Operation)
}

func (e *TenantRequiredError) Code() string { return "TENANT_REQUIRED" }

// FeatureNotAvailableError is returned when a tenant's tier does not
// include a requested feature.
type FeatureNotAvailableError struct {
	Feature string
	Tier    Tier
}

func (e *FeatureNotAvailableError) Error() string {
	return fmt.Sprintf("tenant: feature %q is not available on the %s tier", e.Feature, e.Tier)
}

func (e *FeatureNotAvailableError) Code() string { return "FEATURE_NOT_AVAILABLE" }

// ModuleNotEnabledError is returned when a named module (e.g. a Cassandra
// audit backend, predictive SLA breach) has not been enabled for a tenant
// even though the tier would permit it.
type ModuleNotEnabledError struct {
	Module string
}

func (e *ModuleNotEnabledError) Error() string {
	return fmt.Sprintf("tenant: module %q is not enabled", e.Module)
}

func (e *ModuleNotEnabledError) Code() string { return "MODULE_NOT_ENABLED" }
