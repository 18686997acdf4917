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

package resolver

import (
	"context"
	"fmt"

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// StaticProvider resolves approver types from a fixed, in-process table.
// It is the fallback of last resort for approver types that don't warrant
// a directory lookup (GOVERNANCE_DESK, FIREFIGHTER_SUPERVISOR) and is
// commonly chained after a directory-backed primary provider.
type StaticProvider struct {
	byType map[workflow.ApproverType]Approver
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider builds a StaticProvider from a fixed approver-type ->
// approver table.
func NewStaticProvider(byType map[workflow.ApproverType]Approver) *StaticProvider {
	return &StaticProvider{byType: byType}
}

func (p *StaticProvider) Resolve(_ context.Context, _ *workflow.Context, approverType workflow.ApproverType) (*Approver, error) {
	a, ok := p.byType[approverType]
	if !ok {
		return nil, fmt.Errorf("resolver: no static approver configured for %s", approverType)
	}
	a.Source = SourceStaticConfig
	a.ApproverType = approverType
	if !a.IsAvailable && !a.IsOOO {
		a.IsAvailable = true
	}
	return &a, nil
}

// HRSystemProvider resolves LINE_MANAGER (and, where an org models it that
// way, PROCESS_OWNER) approvers against an HR system reachable through a
// MySQL-compatible connector, following the reporting-hierarchy table.
type HRSystemProvider struct {
	connector base.Connector
}

var _ Provider = (*HRSystemProvider)(nil)

// NewHRSystemProvider wraps a connected MySQL (or MySQL-protocol) connector
// over the HR system's employee/manager tables.
func NewHRSystemProvider(connector base.Connector) *HRSystemProvider {
	return &HRSystemProvider{connector: connector}
}

func (p *HRSystemProvider) Resolve(ctx context.Context, wfCtx *workflow.Context, approverType workflow.ApproverType) (*Approver, error) {
	if wfCtx.Request == nil || wfCtx.Request.BeneficiaryID == "" {
		return nil, fmt.Errorf("resolver: HR lookup requires a beneficiary id")
	}

	result, err := p.connector.Query(ctx, &base.Query{
		Statement: "SELECT m.employee_id, m.full_name, m.email, m.department, m.title, m.is_ooo, m.ooo_until, m.delegate_id, d.full_name AS delegate_name " +
			"FROM employees e JOIN employees m ON e.manager_id = m.employee_id " +
			"LEFT JOIN employees d ON m.delegate_id = d.employee_id " +
			"WHERE e.employee_id = ?",
		Parameters: map[string]interface{}{"1": wfCtx.Request.BeneficiaryID},
		Limit:      1,
	})
	if err != nil {
		return nil, base.NewConnectorError(p.connector.Name(), "Resolve", "hr hierarchy lookup failed", err)
	}
	if result.RowCount == 0 {
		return nil, fmt.Errorf("resolver: no manager found for beneficiary %s", wfCtx.Request.BeneficiaryID)
	}

	row := result.Rows[0]
	return rowToApprover(row, approverType, SourceHRSystem), nil
}

// IAMSystemProvider resolves DATA_OWNER/SYSTEM_OWNER/ROLE_OWNER approvers
// against an IAM directory reachable through a MongoDB connector, where
// ownership is tracked per-resource rather than per-person hierarchy.
type IAMSystemProvider struct {
	connector  base.Connector
	collection string
}

var _ Provider = (*IAMSystemProvider)(nil)

// NewIAMSystemProvider wraps a connected MongoDB connector over the IAM
// system's resource-ownership collection.
func NewIAMSystemProvider(connector base.Connector, collection string) *IAMSystemProvider {
	if collection == "" {
		collection = "resource_owners"
	}
	return &IAMSystemProvider{connector: connector, collection: collection}
}

func (p *IAMSystemProvider) Resolve(ctx context.Context, wfCtx *workflow.Context, approverType workflow.ApproverType) (*Approver, error) {
	if wfCtx.Request == nil || len(wfCtx.Request.Items) == 0 {
		return nil, fmt.Errorf("resolver: IAM lookup requires at least one access item")
	}
	systemID := wfCtx.Request.Items[0].SystemID

	result, err := p.connector.Query(ctx, &base.Query{
		Statement: "find:" + p.collection,
		Parameters: map[string]interface{}{
			"system_id":     systemID,
			"approver_type": string(approverType),
		},
		Limit: 1,
	})
	if err != nil {
		return nil, base.NewConnectorError(p.connector.Name(), "Resolve", "iam ownership lookup failed", err)
	}
	if result.RowCount == 0 {
		return nil, fmt.Errorf("resolver: no %s owner found for system %s", approverType, systemID)
	}

	return rowToApprover(result.Rows[0], approverType, SourceIAMSystem), nil
}

func rowToApprover(row map[string]interface{}, approverType workflow.ApproverType, source Source) *Approver {
	a := &Approver{
		ApproverID:    stringField(row, "employee_id", "owner_id", "approver_id"),
		ApproverName:  stringField(row, "full_name", "owner_name", "approver_name"),
		ApproverEmail: stringField(row, "email"),
		ApproverType:  approverType,
		Source:        source,
		Department:    stringField(row, "department"),
		Title:         stringField(row, "title"),
		IsAvailable:   true,
	}
	if oooVal, ok := row["is_ooo"]; ok {
		if b, ok := oooVal.(bool); ok {
			a.IsOOO = b
		}
	}
	a.DelegateID = stringField(row, "delegate_id")
	a.DelegateName = stringField(row, "delegate_name")
	return a
}

func stringField(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
