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

// Package resolver looks up the actual person or desk that should own a
// workflow step for a given approver type, against pluggable backends (HR
// hierarchy, IAM directory, role/process ownership registries, static
// configuration) with out-of-office/delegate handling and a circuit
// breaker guarding each backend.
package resolver

import (
	"context"
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Source identifies where a resolved approver's data came from.
type Source string

const (
	SourceHRSystem        Source = "HR_SYSTEM"
	SourceIAMSystem       Source = "IAM_SYSTEM"
	SourceRoleRegistry    Source = "ROLE_REGISTRY"
	SourceProcessRegistry Source = "PROCESS_REGISTRY"
	SourceDataCatalog     Source = "DATA_CATALOG"
	SourceSystemRegistry  Source = "SYSTEM_REGISTRY"
	SourceStaticConfig    Source = "STATIC_CONFIG"
	SourceCustom          Source = "CUSTOM"
)

// Approver is a resolved approver identity plus availability/delegation
// state a caller needs to decide whether to use it directly or fall back.
type Approver struct {
	ApproverID    string
	ApproverName  string
	ApproverEmail string
	ApproverType  workflow.ApproverType
	Source        Source

	IsAvailable bool
	IsOOO       bool
	OOOUntil    *time.Time

	DelegateID   string
	DelegateName string

	Department string
	Title      string
}

// EffectiveApproverID returns the delegate when the primary approver is
// out of office with a delegate on file, otherwise the primary approver.
func (a *Approver) EffectiveApproverID() string {
	if a.IsOOO && a.DelegateID != "" {
		return a.DelegateID
	}
	return a.ApproverID
}

// Result is the outcome of a single resolve call, including whether a
// fallback provider had to be used and how long resolution took.
type Result struct {
	Success          bool
	Approver         *Approver
	FallbackUsed     bool
	FallbackReason   string
	ResolutionTimeMS float64
	Errors           []string
}

// Provider resolves one or more approver types against a concrete backend
// (HR system, IAM directory, a static table, ...).
type Provider interface {
	Resolve(ctx context.Context, wfCtx *workflow.Context, approverType workflow.ApproverType) (*Approver, error)
}
