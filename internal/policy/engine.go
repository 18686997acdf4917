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

package policy

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
)

// Engine evaluates policy sets against workflow contexts. The default
// risk-tier SLA table mirrors the defaults internal/sla falls back to when
// no SET_SLA action fires.
type Engine struct {
	mu        sync.RWMutex
	sets      map[string]*Set // keyed by policy_set_id
	regexCache map[string]*regexp.Regexp
	defaultSLAByRisk map[workflow.RiskLevel]float64
}

// NewEngine builds an Engine with the standard risk-tier SLA defaults.
func NewEngine() *Engine {
	return &Engine{
		sets:       make(map[string]*Set),
		regexCache: make(map[string]*regexp.Regexp),
		defaultSLAByRisk: map[workflow.RiskLevel]float64{
			workflow.RiskLow:      72,
			workflow.RiskMedium:   48,
			workflow.RiskHigh:     24,
			workflow.RiskCritical: 8,
		},
	}
}

// LoadPolicySet registers (or replaces) a policy set so future Evaluate
// calls can reference it by id.
func (e *Engine) LoadPolicySet(set *Set) error {
	if set.PolicySetID == "" {
		return fmt.Errorf("policy: policy set id is required")
	}
	for i, rule := range set.Rules {
		if rule.RuleID == "" {
			return &CompileError{PolicySetID: set.PolicySetID, Reason: fmt.Sprintf("rule at index %d has no rule_id", i)}
		}
		for _, action := range rule.Actions {
			if action.Type == ActionAddApprover && action.ApproverType == "" && action.StaticApproverID == "" {
				return &CompileError{PolicySetID: set.PolicySetID, Reason: fmt.Sprintf("rule %s: ADD_APPROVER action needs approver_type or static_approver_id", rule.RuleID)}
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sets[set.PolicySetID] = set
	return nil
}

// Evaluate runs the named policy set (or every loaded set, if policySetID
// is empty) against ctx and folds the results into a single Result.
//
// AUTO_REJECT dominates: if any matching rule auto-rejects, evaluation
// stops there and no ADD_APPROVER/AUTO_APPROVE actions are considered.
// AUTO_APPROVE only takes effect when, after AUTO_REJECT is ruled out, no
// ADD_APPROVER directive survives deduplication; an auto-approve rule
// cannot override an explicit approver requirement from another rule.
func (e *Engine) Evaluate(ctx *workflow.Context, policySetID string) (*Result, error) {
	sets, err := e.setsToEvaluate(policySetID)
	if err != nil {
		return nil, err
	}

	result := &Result{PolicySetID: policySetID}
	var autoApproveRequested bool
	bestByType := make(map[workflow.ApproverType]ApproverDirective)
	var typeOrder []workflow.ApproverType
	var slaCandidates []float64

	for _, set := range sets {
		rules := make([]Rule, len(set.Rules))
		copy(rules, set.Rules)
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].Priority != rules[j].Priority {
				return rules[i].Priority < rules[j].Priority
			}
			return rules[i].RuleID < rules[j].RuleID
		})

		for _, rule := range rules {
			if !rule.Enabled {
				continue
			}
			matched, err := e.matchAll(ctx, rule.Conditions)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}

			result.MatchedRuleIDs = append(result.MatchedRuleIDs, rule.RuleID)

			for _, action := range rule.Actions {
				switch action.Type {
				case ActionAutoReject:
					result.AutoReject = true
					if result.RejectReason == "" {
						result.RejectReason = action.Reason
					}
				case ActionAutoApprove:
					autoApproveRequested = true
				case ActionAddApprover:
					directive := ApproverDirective{
						ApproverType:     action.ApproverType,
						StaticApproverID: action.StaticApproverID,
						RuleID:           rule.RuleID,
						Priority:         rule.Priority,
					}
					key := action.ApproverType
					if key == "" {
						key = workflow.ApproverStatic
					}
					existing, ok := bestByType[key]
					if !ok {
						typeOrder = append(typeOrder, key)
					}
					if !ok || directive.Priority < existing.Priority {
						bestByType[key] = directive
					}
				case ActionSetSLA:
					if action.SLAHours > 0 {
						slaCandidates = append(slaCandidates, action.SLAHours)
					}
				}
			}

			if result.AutoReject {
				// AUTO_REJECT dominance: stop evaluating further rules entirely.
				return e.finalize(ctx, result, nil, false, slaCandidates), nil
			}
		}
	}

	for _, key := range typeOrder {
		result.AddedApprovers = append(result.AddedApprovers, bestByType[key])
	}
	sort.SliceStable(result.AddedApprovers, func(i, j int) bool {
		return result.AddedApprovers[i].Priority < result.AddedApprovers[j].Priority
	})

	return e.finalize(ctx, result, result.AddedApprovers, autoApproveRequested, slaCandidates), nil
}

func (e *Engine) finalize(ctx *workflow.Context, result *Result, approvers []ApproverDirective, autoApproveRequested bool, slaCandidates []float64) *Result {
	if result.AutoReject {
		result.AddedApprovers = nil
		result.SLAHours = 0
		return result
	}

	result.AutoApprove = autoApproveRequested && len(approvers) == 0

	minSLA := e.defaultSLAForRequest(ctx)
	for _, s := range slaCandidates {
		if s < minSLA {
			minSLA = s
		}
	}
	result.SLAHours = minSLA
	return result
}

func (e *Engine) defaultSLAForRequest(ctx *workflow.Context) float64 {
	if ctx.Request == nil {
		return e.defaultSLAByRisk[workflow.RiskMedium]
	}
	if sla, ok := e.defaultSLAByRisk[ctx.Request.OverallRisk()]; ok {
		return sla
	}
	return e.defaultSLAByRisk[workflow.RiskMedium]
}

func (e *Engine) setsToEvaluate(policySetID string) ([]*Set, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if policySetID != "" {
		set, ok := e.sets[policySetID]
		if !ok {
			return nil, fmt.Errorf("policy: policy set %q not loaded", policySetID)
		}
		return []*Set{set}, nil
	}

	sets := make([]*Set, 0, len(e.sets))
	for _, s := range e.sets {
		sets = append(sets, s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].PolicySetID < sets[j].PolicySetID })
	return sets, nil
}

func (e *Engine) matchAll(ctx *workflow.Context, conditions []Condition) (bool, error) {
	for _, c := range conditions {
		ok, err := e.matchOne(ctx, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) matchOne(ctx *workflow.Context, c Condition) (bool, error) {
	switch c.Operator {
	case OpAnyOf:
		for _, sub := range c.Conditions {
			ok, err := e.matchOne(ctx, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpAllOf:
		return e.matchAll(ctx, c.Conditions)
	}

	actual, present := resolveField(ctx, c.Field)

	switch c.Operator {
	case OpIsEmpty:
		empty := !present || isEmptyValue(actual)
		want, _ := c.Value.(bool)
		if c.Value == nil {
			want = true
		}
		return empty == want, nil
	case OpEquals:
		return present && valuesEqual(actual, c.Value), nil
	case OpNotEquals:
		return !present || !valuesEqual(actual, c.Value), nil
	case OpIn:
		return present && memberOf(actual, c.Value), nil
	case OpNotIn:
		return !present || !memberOf(actual, c.Value), nil
	case OpContains:
		return present && containsValue(actual, c.Value), nil
	case OpMatchesRegex:
		pattern, _ := c.Value.(string)
		str := fmt.Sprintf("%v", actual)
		re, err := e.compileRegex(pattern)
		if err != nil {
			return false, err
		}
		return present && re.MatchString(str), nil
	case OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		if !present {
			return false, nil
		}
		a, aok := toFloat64(actual)
		b, bok := toFloat64(c.Value)
		if !aok || !bok {
			return false, nil
		}
		return compareNumeric(a, b, c.Operator), nil
	default:
		return false, fmt.Errorf("policy: unknown operator %q", c.Operator)
	}
}

func (e *Engine) compileRegex(pattern string) (*regexp.Regexp, error) {
	e.mu.RLock()
	if re, ok := e.regexCache[pattern]; ok {
		e.mu.RUnlock()
		return re, nil
	}
	e.mu.RUnlock()

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("policy: invalid regex %q: %w", pattern, err)
	}

	e.mu.Lock()
	e.regexCache[pattern] = re
	e.mu.Unlock()
	return re, nil
}

// resolveField looks up a dotted field path against well-known request
// attributes first, falling back to the context's generic attribute bag.
func resolveField(ctx *workflow.Context, field string) (interface{}, bool) {
	switch field {
	case "request.requester_id":
		return ctx.Request.RequesterID, ctx.Request != nil
	case "request.beneficiary_id":
		return ctx.Request.BeneficiaryID, ctx.Request != nil
	case "request.risk_level":
		if ctx.Request == nil {
			return nil, false
		}
		return string(ctx.Request.OverallRisk()), true
	case "request.item_count":
		if ctx.Request == nil {
			return nil, false
		}
		return len(ctx.Request.Items), true
	}

	if strings.HasPrefix(field, "attr.") {
		key := strings.TrimPrefix(field, "attr.")
		return ctx.Attr(key)
	}

	return ctx.Attr(field)
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

func valuesEqual(a, b interface{}) bool {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func memberOf(value, list interface{}) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if valuesEqual(value, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func containsValue(haystack, needle interface{}) bool {
	switch h := haystack.(type) {
	case string:
		n := fmt.Sprintf("%v", needle)
		return strings.Contains(h, n)
	default:
		return memberOf(needle, haystack)
	}
}

func compareNumeric(a, b float64, op Operator) bool {
	switch op {
	case OpLessThan:
		return a < b
	case OpLessEqual:
		return a <= b
	case OpGreaterThan:
		return a > b
	case OpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
