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

// Package sla tracks step and workflow deadlines, raises reminders and
// escalations, and predicts breaches before they happen.
//
// Thresholds are fixed percentages of the step's own SLA window (75%
// warning, 90% critical, 100% breach) rather than a ratio of the SLA
// value itself, so a tight 2-hour SLA and a loose 72-hour SLA warn at the
// same relative point in their respective windows.
package sla

import (
	"context"
	"sort"
	"time"

	"github.com/governex-labs/workflow-orchestrator/internal/workflow"
	"github.com/governex-labs/workflow-orchestrator/shared/logger"
)

// Status is the SLA health of a step or workflow.
type Status string

const (
	StatusOnTrack   Status = "ON_TRACK"
	StatusWarning   Status = "WARNING"
	StatusCritical  Status = "CRITICAL"
	StatusBreached  Status = "BREACHED"
	StatusEscalated Status = "ESCALATED"
	StatusCompleted Status = "COMPLETED"
)

const (
	warningThresholdPct  = 0.75
	criticalThresholdPct = 0.90
)

// Check is a point-in-time SLA evaluation for one step.
type Check struct {
	StepID         string
	Status         Status
	ElapsedHours   float64
	SLAHours       float64
	RemainingHours float64
	PercentUsed    float64
	Recommendation string
}

// EscalationTrigger records why an escalation was raised.
type EscalationTrigger string

const (
	TriggerSLABreach    EscalationTrigger = "SLA_BREACH"
	TriggerManualRequest EscalationTrigger = "MANUAL_REQUEST"
	TriggerNoResponse   EscalationTrigger = "NO_RESPONSE"
)

// Escalation is a single escalation event raised against a step.
type Escalation struct {
	StepID            string
	WorkflowID         string
	FromApproverType   workflow.ApproverType
	ToApproverType     workflow.ApproverType
	Trigger            EscalationTrigger
	OriginalSLAHours   float64
	ElapsedHours       float64
	CreatedAt          time.Time
	Executed           bool
	Reason             string
}

// Config tunes default SLA assignment, reminder cadence, and the
// business-hours elapsed-time calculation.
type Config struct {
	SLAByRisk              map[workflow.RiskLevel]float64
	SendReminders          bool
	ReminderIntervalsHours []float64
	UseBusinessHours       bool
	BusinessStartHour      int
	BusinessEndHour        int
	ExcludeWeekends        bool
}

// DefaultConfig returns the standard risk-tier SLA defaults and reminder
// schedule.
func DefaultConfig() Config {
	return Config{
		SLAByRisk: map[workflow.RiskLevel]float64{
			workflow.RiskLow:      72,
			workflow.RiskMedium:   48,
			workflow.RiskHigh:     24,
			workflow.RiskCritical: 8,
		},
		SendReminders:          true,
		ReminderIntervalsHours: []float64{12, 6, 2},
		BusinessStartHour:      9,
		BusinessEndHour:        17,
		ExcludeWeekends:        true,
	}
}

// escalationChain maps each approver type to where it escalates to.
// Types absent from the table (STATIC, CISO, GOVERNANCE_DESK,
// FIREFIGHTER_SUPERVISOR) escalate to GOVERNANCE_DESK as the catch-all.
var escalationChain = map[workflow.ApproverType]workflow.ApproverType{
	workflow.ApproverLineManager:       workflow.ApproverSecurityOfficer,
	workflow.ApproverRoleOwner:         workflow.ApproverSecurityOfficer,
	workflow.ApproverProcessOwner:      workflow.ApproverSecurityOfficer,
	workflow.ApproverSecurityOfficer:   workflow.ApproverComplianceOfficer,
	workflow.ApproverComplianceOfficer: workflow.ApproverCISO,
	workflow.ApproverDataOwner:         workflow.ApproverComplianceOfficer,
	workflow.ApproverSystemOwner:       workflow.ApproverSecurityOfficer,
}

// Manager evaluates SLA state for steps and workflows and produces the
// escalation decisions the executor acts on.
type Manager struct {
	cfg Config
	log *logger.Logger
	now func() time.Time
}

// NewManager builds a Manager with cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, log: logger.New("sla-manager"), now: time.Now}
}

// WithClock overrides the manager's time source, for deterministic tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// SLAForRisk returns the configured default SLA hours for a risk level,
// falling back to the HIGH tier if the level is unrecognized.
func (m *Manager) SLAForRisk(risk workflow.RiskLevel) float64 {
	if hours, ok := m.cfg.SLAByRisk[risk]; ok {
		return hours
	}
	return m.cfg.SLAByRisk[workflow.RiskHigh]
}

// CheckStep evaluates a single step's SLA state as of now.
func (m *Manager) CheckStep(step *workflow.Step) Check {
	if step.ActivatedAt == nil || step.SLAHours <= 0 {
		return Check{StepID: step.StepID, Status: StatusOnTrack, SLAHours: step.SLAHours}
	}

	elapsed := m.elapsedHours(*step.ActivatedAt, m.now())
	remaining := step.SLAHours - elapsed
	if remaining < 0 {
		remaining = 0
	}
	percent := 100.0
	if step.SLAHours > 0 {
		percent = elapsed / step.SLAHours * 100
	}

	check := Check{
		StepID:         step.StepID,
		ElapsedHours:   elapsed,
		SLAHours:       step.SLAHours,
		RemainingHours: remaining,
		PercentUsed:    percent,
	}

	switch {
	case percent >= 100:
		check.Status = StatusBreached
		check.Recommendation = "SLA breached, escalate immediately"
	case percent >= criticalThresholdPct*100:
		check.Status = StatusCritical
		check.Recommendation = "Critical: approaching SLA deadline, consider escalation"
	case percent >= warningThresholdPct*100:
		check.Status = StatusWarning
		check.Recommendation = "Warning: send reminder to approver"
	default:
		check.Status = StatusOnTrack
	}

	return check
}

// WorkflowSummary aggregates step-level SLA checks for a whole workflow.
type WorkflowSummary struct {
	WorkflowID     string
	OverallStatus  Status
	StepChecks     []Check
	BreachedCount  int
	CriticalCount  int
	WarningCount   int
	NeedsAttention bool
}

// CheckWorkflow evaluates every active step of wf and rolls the
// results up into a single status: BREACHED if any step breached,
// CRITICAL if none breached but any is critical, WARNING similarly, else
// ON_TRACK.
func (m *Manager) CheckWorkflow(wf *workflow.Workflow) WorkflowSummary {
	summary := WorkflowSummary{WorkflowID: wf.WorkflowID, OverallStatus: StatusOnTrack}

	for _, step := range wf.Steps {
		if step.Status != workflow.StepActive {
			continue
		}
		check := m.CheckStep(step)
		summary.StepChecks = append(summary.StepChecks, check)
		switch check.Status {
		case StatusBreached:
			summary.BreachedCount++
		case StatusCritical:
			summary.CriticalCount++
		case StatusWarning:
			summary.WarningCount++
		}
	}

	switch {
	case summary.BreachedCount > 0:
		summary.OverallStatus = StatusBreached
	case summary.CriticalCount > 0:
		summary.OverallStatus = StatusCritical
	case summary.WarningCount > 0:
		summary.OverallStatus = StatusWarning
	}
	summary.NeedsAttention = summary.OverallStatus == StatusBreached || summary.OverallStatus == StatusCritical
	return summary
}

// CreateEscalation builds an Escalation record for step, resolving the
// target approver type from the standard escalation chain.
func (m *Manager) CreateEscalation(wf *workflow.Workflow, step *workflow.Step, trigger EscalationTrigger, reason string) *Escalation {
	target, ok := escalationChain[step.ApproverType]
	if !ok {
		target = workflow.ApproverGovernanceDesk
	}

	check := m.CheckStep(step)
	return &Escalation{
		StepID:           step.StepID,
		WorkflowID:       wf.WorkflowID,
		FromApproverType: step.ApproverType,
		ToApproverType:   target,
		Trigger:          trigger,
		OriginalSLAHours: step.SLAHours,
		ElapsedHours:     check.ElapsedHours,
		CreatedAt:        m.now(),
		Reason:           reason,
	}
}

// Executor is the subset of the workflow.Executor the SLA manager needs to
// actually move an escalated step to its new owner.
type Executor interface {
	Escalate(ctx context.Context, wf *workflow.Workflow, stepID, toApproverID, reason string) error
}

// ExecuteEscalation applies esc through executor, handing the step to
// resolvedApproverID (the target approver the caller has already resolved,
// typically with internal/resolver.Resolver.Resolve for esc.ToApproverType),
// and marks the escalation executed.
func (m *Manager) ExecuteEscalation(ctx context.Context, executor Executor, wf *workflow.Workflow, esc *Escalation, resolvedApproverID string) error {
	if err := executor.Escalate(ctx, wf, esc.StepID, resolvedApproverID, string(esc.Trigger)); err != nil {
		return err
	}
	esc.Executed = true
	m.log.Warn(wf.TenantID, wf.WorkflowID, "[SLA] step escalated", map[string]interface{}{
		"step_id": esc.StepID, "from": string(esc.FromApproverType), "to": string(esc.ToApproverType),
	})
	return nil
}

// ReminderSchedule returns the future reminder times for step, counting
// back from its due time by the configured reminder intervals, omitting
// any that have already passed.
func (m *Manager) ReminderSchedule(step *workflow.Step) []time.Time {
	if !m.cfg.SendReminders || step.DueAt == nil {
		return nil
	}

	now := m.now()
	var reminders []time.Time
	for _, hoursBefore := range m.cfg.ReminderIntervalsHours {
		t := step.DueAt.Add(-time.Duration(hoursBefore * float64(time.Hour)))
		if t.After(now) {
			reminders = append(reminders, t)
		}
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].Before(reminders[j]) })
	return reminders
}

// BreachPrediction estimates whether a step will breach its SLA before an
// approver acts.
type BreachPrediction struct {
	StepID          string
	WillLikelyBreach bool
	Confidence      float64
	PredictedHours  float64
}

// PredictBreach estimates the step's likely completion time from the
// approver's historical average response time when available (confidence
// 0.7), falling back to a heuristic based on elapsed-vs-SLA ratio
// (confidence 0.3) when no history exists.
func (m *Manager) PredictBreach(step *workflow.Step, historicalAvgResponseHours float64) BreachPrediction {
	check := m.CheckStep(step)

	if historicalAvgResponseHours > 0 {
		willBreach := historicalAvgResponseHours > check.RemainingHours
		return BreachPrediction{
			StepID:           step.StepID,
			WillLikelyBreach: willBreach,
			Confidence:       0.7,
			PredictedHours:   historicalAvgResponseHours,
		}
	}

	// No history: heuristic off how much of the SLA window is already spent.
	willBreach := check.PercentUsed >= criticalThresholdPct*100
	return BreachPrediction{
		StepID:           step.StepID,
		WillLikelyBreach: willBreach,
		Confidence:       0.3,
		PredictedHours:   check.ElapsedHours * 1.5,
	}
}

// elapsedHours computes hours between start and end, honoring the
// business-hours mode when configured.
func (m *Manager) elapsedHours(start, end time.Time) float64 {
	if !m.cfg.UseBusinessHours {
		return end.Sub(start).Hours()
	}
	return m.businessHoursElapsed(start, end)
}

func (m *Manager) businessHoursElapsed(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}

	var total float64
	current := start
	for current.Before(end) {
		if m.cfg.ExcludeWeekends && (current.Weekday() == time.Saturday || current.Weekday() == time.Sunday) {
			current = nextDayAt(current, m.cfg.BusinessStartHour)
			continue
		}

		if current.Hour() >= m.cfg.BusinessStartHour && current.Hour() < m.cfg.BusinessEndHour {
			nextHour := time.Date(current.Year(), current.Month(), current.Day(), current.Hour()+1, 0, 0, 0, current.Location())
			countUntil := end
			if nextHour.Before(countUntil) {
				countUntil = nextHour
			}
			endOfDay := time.Date(current.Year(), current.Month(), current.Day(), m.cfg.BusinessEndHour, 0, 0, 0, current.Location())
			if endOfDay.Before(countUntil) {
				countUntil = endOfDay
			}
			total += countUntil.Sub(current).Hours()
			current = countUntil
		} else if current.Hour() < m.cfg.BusinessStartHour {
			current = time.Date(current.Year(), current.Month(), current.Day(), m.cfg.BusinessStartHour, 0, 0, 0, current.Location())
		} else {
			current = nextDayAt(current, m.cfg.BusinessStartHour)
		}
	}
	return total
}

func nextDayAt(t time.Time, hour int) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hour, 0, 0, 0, next.Location())
}

// Report summarizes SLA health across a set of workflows, for dashboards
// and scheduled digest notifications.
type Report struct {
	GeneratedAt    time.Time
	TotalWorkflows int
	Breached       int
	Critical       int
	Warning        int
	OnTrack        int
	NeedsAttention []string
}

// GenerateReport rolls CheckWorkflow up across every workflow passed in.
func (m *Manager) GenerateReport(workflows []*workflow.Workflow) Report {
	report := Report{GeneratedAt: m.now(), TotalWorkflows: len(workflows)}
	for _, wf := range workflows {
		summary := m.CheckWorkflow(wf)
		switch summary.OverallStatus {
		case StatusBreached:
			report.Breached++
		case StatusCritical:
			report.Critical++
		case StatusWarning:
			report.Warning++
		default:
			report.OnTrack++
		}
		if summary.NeedsAttention {
			report.NeedsAttention = append(report.NeedsAttention, wf.WorkflowID)
		}
	}
	return report
}
