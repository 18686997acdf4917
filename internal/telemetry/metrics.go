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

// Package telemetry centralizes this module's Prometheus metrics and its
// shared/logger adapter, so every package records assembly latency,
// resolver circuit-breaker state, SLA breach counts, and provisioning
// decisions the same way.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics.
var (
	AssemblyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "workflow_orchestrator_assembly_duration_milliseconds",
			Help:    "Time to assemble a workflow from a policy evaluation, in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"policy_set_id"},
	)
	PolicyEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_policy_evaluations_total",
			Help: "Total number of policy set evaluations",
		},
		[]string{"outcome"}, // auto_approve, auto_reject, approvers_added
	)
	ResolverCircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workflow_orchestrator_resolver_circuit_state",
			Help: "Resolver provider circuit-breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"provider"},
	)
	ResolverFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_resolver_fallbacks_total",
			Help: "Total number of times approver resolution fell back to a secondary provider",
		},
		[]string{"approver_type"},
	)
	SLABreachesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_sla_breaches_total",
			Help: "Total number of SLA breaches detected",
		},
		[]string{"approver_type"},
	)
	SLAWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_sla_warnings_total",
			Help: "Total number of SLA warning thresholds crossed",
		},
		[]string{"approver_type"},
	)
	ProvisioningDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_provisioning_decisions_total",
			Help: "Total number of provisioning gate decisions",
		},
		[]string{"strategy", "outcome"},
	)
	ReEvaluationActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_reevaluation_actions_total",
			Help: "Total number of re-evaluation actions applied to live workflows",
		},
		[]string{"action_type"},
	)
	AuditWriteFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_orchestrator_audit_write_failures_total",
			Help: "Total number of audit batch write failures",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(AssemblyDuration)
	prometheus.MustRegister(PolicyEvaluationsTotal)
	prometheus.MustRegister(ResolverCircuitState)
	prometheus.MustRegister(ResolverFallbacksTotal)
	prometheus.MustRegister(SLABreachesTotal)
	prometheus.MustRegister(SLAWarningsTotal)
	prometheus.MustRegister(ProvisioningDecisionsTotal)
	prometheus.MustRegister(ReEvaluationActionsTotal)
	prometheus.MustRegister(AuditWriteFailuresTotal)
}
