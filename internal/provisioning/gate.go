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

package provisioning

import (
	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Gate decides which access items of a request are authorized to
// provision. The gate never authorizes an item whose own Status is not
// APPROVED, regardless of strategy; strategies only differ in how they
// treat an APPROVED item when the rest of the request is not (yet) fully
// approved.
type Gate struct {
	strategy     Strategy
	tagBlockList map[string]bool
}

// NewGate builds a Gate using strategy. tagBlockList is only consulted by
// StrategyTagBased and may be nil for other strategies; an item carrying
// any listed tag is held rather than enacted.
func NewGate(strategy Strategy, tagBlockList []string) *Gate {
	block := make(map[string]bool, len(tagBlockList))
	for _, t := range tagBlockList {
		block[t] = true
	}
	return &Gate{strategy: strategy, tagBlockList: block}
}

// Evaluate decides, item by item, whether request's items are authorized
// to provision. Each item's own Status is the precondition every strategy
// gates on; a request-wide notion of "fully approved" (every item
// APPROVED) additionally governs ALL_OR_NOTHING and the high/critical-risk
// carve-out of RISK_BASED_PARTIAL.
func (g *Gate) Evaluate(request *workflow.AccessRequest) *GateResult {
	result := &GateResult{RequestID: request.RequestID, Strategy: g.strategy}

	allApproved := allItemsApproved(request.Items)

	for _, item := range request.Items {
		decision := ItemDecision{Item: item}

		switch status := item.EffectiveStatus(); {
		case status == workflow.ItemRejected:
			decision.Reason = "item rejected"
		case status == workflow.ItemFailed:
			decision.Reason = "item provisioning previously failed"
		case status != workflow.ItemApproved:
			decision.Reason = "item not yet approved"
		case g.strategy == StrategyAllOrNothing:
			if allApproved {
				decision.Authorized = true
				decision.Reason = "every item in the request is approved"
			} else {
				decision.Reason = "not every item is approved yet; ALL_OR_NOTHING withholds provisioning"
			}
		case g.strategy == StrategyPartialAllowed:
			decision.Authorized = true
			decision.Reason = "item approved"
		case g.strategy == StrategyRiskBasedPartial:
			if item.RiskLevel == workflow.RiskLow || item.RiskLevel == workflow.RiskMedium {
				decision.Authorized = true
				decision.Reason = "low/medium-risk item authorized on approval"
			} else if allApproved {
				decision.Authorized = true
				decision.Reason = "every item in the request is approved"
			} else {
				decision.Reason = "high/critical-risk item held until every item is approved"
			}
		case g.strategy == StrategyTagBased:
			if hasBlockedTag(item.Tags, g.tagBlockList) {
				decision.Reason = "item carries a blocked tag"
			} else {
				decision.Authorized = true
				decision.Reason = "item carries no blocked tag"
			}
		}

		result.Decisions = append(result.Decisions, decision)
	}

	result.FullyAuthorized = allAuthorized(result.Decisions)
	return result
}

func allItemsApproved(items []workflow.AccessItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.EffectiveStatus() != workflow.ItemApproved {
			return false
		}
	}
	return true
}

func hasBlockedTag(tags []string, block map[string]bool) bool {
	for _, t := range tags {
		if block[t] {
			return true
		}
	}
	return false
}

func allAuthorized(decisions []ItemDecision) bool {
	for _, d := range decisions {
		if !d.Authorized {
			return false
		}
	}
	return true
}
