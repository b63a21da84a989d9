package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"auditline/internal/domain"
	"auditline/internal/engine/auth"
	"auditline/internal/events"
)

func notEditable(name string, s domain.Status) *Error {
	return invalid(name, fmt.Sprintf("Can't update in current %s monitoring status.", s))
}

// PatchMonitoring applies a partial update and, when requested, a status
// transition. Field edits are applied before the transition so one patch may
// carry both the data a transition needs and the transition itself.
func (e Engine) PatchMonitoring(ctx context.Context, id string, patch MonitoringPatch, p auth.Principal) (domain.Monitoring, error) {
	const op = "patch_monitoring"
	if err := e.Auth.Authorize(p, auth.ResourceMonitoring, auth.ActionPatch); err != nil {
		return domain.Monitoring{}, e.reject(op, err)
	}
	m, err := e.mutate(ctx, op, id, p, func(m *domain.Monitoring, now time.Time) (change, error) {
		terminal := m.Status.Terminal()
		if terminal && patch.Status != nil && *patch.Status != m.Status {
			return change{}, notEditable("status", m.Status)
		}
		if patch.RiskIndicators != nil {
			return change{}, invalid("riskIndicators", "Rogue field")
		}
		fields, err := e.applyFields(m, patch, now)
		if err != nil {
			return change{}, err
		}
		// Terminal monitorings only accept patches that change nothing.
		if terminal && len(fields) > 0 {
			return change{}, notEditable(fields[0], m.Status)
		}
		if patch.Status != nil && *patch.Status != m.Status {
			if err := e.transition(m, *patch.Status, now); err != nil {
				return change{}, err
			}
		}
		return change{Event: events.MonitoringUpdated, Payload: events.EventPayload{"fields": fields}}, nil
	})
	if err != nil {
		return domain.Monitoring{}, err
	}
	if patch.EliminationResolution != nil {
		e.Metrics.IncrementElimination("resolution")
	}
	return m, nil
}

// applyFields merges the non-status parts of patch into m and returns the
// names of the fields that changed.
func (e Engine) applyFields(m *domain.Monitoring, patch MonitoringPatch, now time.Time) ([]string, error) {
	var fields []string
	draftOnly := func(name string, changed bool) error {
		if !changed {
			return nil
		}
		if m.Status != domain.StatusDraft {
			return notEditable(name, m.Status)
		}
		fields = append(fields, name)
		return nil
	}

	if patch.Reasons != nil {
		if err := draftOnly("reasons", !slices.Equal(patch.Reasons, m.Reasons)); err != nil {
			return nil, err
		}
		m.Reasons = patch.Reasons
	}
	if patch.ProcuringStages != nil {
		if err := draftOnly("procuringStages", !slices.Equal(patch.ProcuringStages, m.ProcuringStages)); err != nil {
			return nil, err
		}
		m.ProcuringStages = patch.ProcuringStages
	}
	if patch.MonitoringDetails != nil {
		if err := draftOnly("monitoringDetails", *patch.MonitoringDetails != m.MonitoringDetails); err != nil {
			return nil, err
		}
		m.MonitoringDetails = *patch.MonitoringDetails
	}
	if patch.Decision != nil {
		changed, err := e.applyDecision(m, *patch.Decision, now)
		if err != nil {
			return nil, err
		}
		if changed {
			fields = append(fields, "decision")
		}
	}
	if patch.Conclusion != nil {
		changed, err := e.applyConclusion(m, *patch.Conclusion, now)
		if err != nil {
			return nil, err
		}
		if changed {
			fields = append(fields, "conclusion")
		}
	}
	if patch.Cancellation != nil {
		if err := check("cancellation", *patch.Cancellation); err != nil {
			return nil, err
		}
		if m.Cancellation == nil || m.Cancellation.Description != patch.Cancellation.Description {
			m.Cancellation = &domain.Cancellation{Description: patch.Cancellation.Description, DatePublished: &now}
			fields = append(fields, "cancellation")
		}
	}
	if patch.EliminationResolution != nil {
		if err := e.applyResolution(m, *patch.EliminationResolution, now); err != nil {
			return nil, err
		}
		fields = append(fields, "eliminationResolution")
	}
	return fields, nil
}

func (e Engine) decision(in DecisionInput, now time.Time) (domain.Decision, error) {
	if err := check("decision", in); err != nil {
		return domain.Decision{}, err
	}
	docs, err := e.documents(in.Documents, domain.AuthorMonitoringOwner, now)
	if err != nil {
		return domain.Decision{}, err
	}
	return domain.Decision{Description: in.Description, Date: in.Date, Documents: docs}, nil
}

// applyDecision sets the decision while in draft. Afterwards the decision is
// fixed and only an identical one is accepted.
func (e Engine) applyDecision(m *domain.Monitoring, in DecisionInput, now time.Time) (bool, error) {
	if m.Status != domain.StatusDraft {
		if m.Decision != nil && sameDecision(*m.Decision, in) {
			return false, nil
		}
		return false, notEditable("decision", m.Status)
	}
	d, err := e.decision(in, now)
	if err != nil {
		return false, err
	}
	m.Decision = &d
	return true, nil
}

func sameDecision(d domain.Decision, in DecisionInput) bool {
	if d.Description != in.Description || len(in.Documents) > 0 {
		return false
	}
	if in.Date == nil {
		return true
	}
	return d.Date != nil && d.Date.Equal(*in.Date)
}

// applyConclusion replaces the conclusion while active.
func (e Engine) applyConclusion(m *domain.Monitoring, in ConclusionInput, now time.Time) (bool, error) {
	if err := check("conclusion", in); err != nil {
		return false, err
	}
	occurred := *in.ViolationOccurred
	switch {
	case occurred && len(in.ViolationType) == 0:
		return false, invalid("conclusion", map[string][]string{"violationType": {fieldRequired}})
	case !occurred && len(in.ViolationType) > 0:
		return false, invalid("conclusion", map[string][]string{"violationType": {"Must be empty when no violation occurred."}})
	}
	if m.Conclusion != nil && len(in.Documents) == 0 &&
		m.Conclusion.Description == in.Description &&
		m.Conclusion.ViolationOccurred == occurred &&
		slices.Equal(m.Conclusion.ViolationType, in.ViolationType) {
		return false, nil
	}
	if m.Status != domain.StatusActive {
		return false, notEditable("conclusion", m.Status)
	}
	docs, err := e.documents(in.Documents, domain.AuthorMonitoringOwner, now)
	if err != nil {
		return false, err
	}
	m.Conclusion = &domain.Conclusion{
		Description:       in.Description,
		ViolationOccurred: occurred,
		ViolationType:     in.ViolationType,
		Documents:         docs,
	}
	return true, nil
}
