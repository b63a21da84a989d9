package engine

import (
	"fmt"
	"time"

	"auditline/internal/deadline"
	"auditline/internal/domain"
)

// transitions lists every status change a patch may request.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusDraft:     {domain.StatusActive, domain.StatusCancelled},
	domain.StatusActive:    {domain.StatusAddressed, domain.StatusDeclined, domain.StatusCancelled, domain.StatusStopped},
	domain.StatusAddressed: {domain.StatusCompleted, domain.StatusClosed, domain.StatusStopped},
	domain.StatusDeclined:  {domain.StatusClosed, domain.StatusStopped},
}

// Allowed reports whether a monitoring in status from may move to status to.
func Allowed(from, to domain.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Targets returns the statuses reachable from s in one step.
func Targets(s domain.Status) []domain.Status {
	return append([]domain.Status(nil), transitions[s]...)
}

func (e Engine) accelerator(m *domain.Monitoring) int {
	if e.Config == nil || !e.Config.Service.SandboxMode {
		return 0
	}
	return deadline.ParseAccelerator(m.MonitoringDetails)
}

func (e Engine) periodDays(days, fallback int) time.Duration {
	if days <= 0 {
		days = fallback
	}
	return time.Duration(days) * deadline.Day
}

// transition moves m to status to, enforcing the preconditions of the target
// status and stamping the periods it opens.
func (e Engine) transition(m *domain.Monitoring, to domain.Status, now time.Time) error {
	from := m.Status
	if !Allowed(from, to) {
		return invalid("status", fmt.Sprintf("Status update from %q to %q is not allowed.", from, to))
	}
	periods := e.periods()
	switch to {
	case domain.StatusActive:
		if m.Decision == nil {
			return required("decision")
		}
		acc := e.accelerator(m)
		m.MonitoringPeriod = &domain.Period{
			StartDate: now,
			EndDate:   e.Deadlines.BusinessDate(now, e.periodDays(periods.MonitoringTime, 15), acc, true),
		}
		end := e.Deadlines.BusinessDate(now, e.periodDays(periods.MonitoringEndPeriod, 30), acc, true)
		m.EndDate = &end
		m.Decision.DatePublished = &now
	case domain.StatusAddressed, domain.StatusDeclined:
		if m.Conclusion == nil {
			return required("conclusion")
		}
		days := periods.EliminationPeriodNoViolations
		fallback := 3
		if to == domain.StatusAddressed {
			if !m.Conclusion.ViolationOccurred || len(m.Conclusion.ViolationType) == 0 {
				return forbidden("data", "Can't set addressed status to monitoring without violations.")
			}
			days, fallback = periods.EliminationPeriod, 10
		} else if m.Conclusion.ViolationOccurred {
			return forbidden("data", "Can't set declined status to monitoring with violations.")
		}
		m.EliminationPeriod = &domain.Period{
			StartDate: now,
			EndDate:   e.Deadlines.NormalizedBusinessDate(now, e.periodDays(days, fallback), e.accelerator(m), true),
		}
		m.Conclusion.DatePublished = &now
	case domain.StatusCompleted:
		if err := eliminationEnded(m, to, now); err != nil {
			return err
		}
		if m.EliminationReport == nil {
			return required("eliminationReport")
		}
		if m.EliminationResolution == nil {
			return required("eliminationResolution")
		}
	case domain.StatusClosed:
		if err := eliminationEnded(m, to, now); err != nil {
			return err
		}
	case domain.StatusStopped, domain.StatusCancelled:
		if m.Cancellation == nil || m.Cancellation.Description == "" {
			return required("cancellation")
		}
	}
	m.Status = to
	return nil
}

func eliminationEnded(m *domain.Monitoring, to domain.Status, now time.Time) error {
	if m.EliminationPeriod == nil || now.Before(m.EliminationPeriod.EndDate) {
		return forbidden("data", fmt.Sprintf("Can't change status to %s before elimination period ends.", to))
	}
	return nil
}
