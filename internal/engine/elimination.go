package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auditline/internal/domain"
	"auditline/internal/engine/auth"
	"auditline/internal/events"
	"auditline/internal/repo"
)

// checkTenderOwner verifies that the caller presented the token issued by
// GenerateCredentials and is the broker it was issued to.
func checkTenderOwner(m *domain.Monitoring, p auth.Principal, token string) error {
	if !auth.TokenMatches(token, m.TenderOwnerTokenHash) {
		return forbiddenURL("permission", "Forbidden")
	}
	if m.TenderOwner != "" && m.TenderOwner != p.ActorID {
		return forbiddenURL("permission", "Forbidden")
	}
	return nil
}

// PutEliminationReport records the single elimination report of an
// addressed monitoring.
func (e Engine) PutEliminationReport(ctx context.Context, id string, in EliminationReportInput, p auth.Principal, token string) (domain.EliminationReport, error) {
	const op = "put_elimination_report"
	if err := e.Auth.Authorize(p, auth.ResourceEliminationReport, auth.ActionPut); err != nil {
		return domain.EliminationReport{}, e.reject(op, err)
	}
	m, err := e.mutate(ctx, op, id, p, func(m *domain.Monitoring, now time.Time) (change, error) {
		if err := checkTenderOwner(m, p, token); err != nil {
			return change{}, err
		}
		if m.Status != domain.StatusAddressed {
			return change{}, notEditable("eliminationReport", m.Status)
		}
		if m.EliminationReport != nil {
			return change{}, forbidden("data", "Can't post another elimination report.")
		}
		if err := check("", in); err != nil {
			return change{}, err
		}
		docs, err := e.documents(in.Documents, domain.AuthorTenderOwner, now)
		if err != nil {
			return change{}, err
		}
		m.EliminationReport = &domain.EliminationReport{
			Description:   in.Description,
			Author:        domain.AuthorTenderOwner,
			Documents:     docs,
			DateCreated:   now,
			DatePublished: now,
			DateModified:  now,
		}
		return change{Event: events.EliminationReportPut, Payload: events.EventPayload{"documents": len(docs)}}, nil
	})
	if err != nil {
		return domain.EliminationReport{}, err
	}
	e.Metrics.IncrementElimination("report")
	return *m.EliminationReport, nil
}

// PatchEliminationReport always fails: a report is immutable once put.
func (e Engine) PatchEliminationReport(ctx context.Context, id string, p auth.Principal) error {
	err := e.Auth.Authorize(p, auth.ResourceEliminationReport, auth.ActionPatch)
	if err == nil {
		err = auth.MethodNotAllowedError{Resource: auth.ResourceEliminationReport, Action: auth.ActionPatch}
	}
	return e.reject("patch_elimination_report", err)
}

func (e Engine) GetEliminationReport(ctx context.Context, id string, p auth.Principal) (domain.EliminationReport, error) {
	const op = "get_elimination_report"
	if err := e.Auth.Authorize(p, auth.ResourceEliminationReport, auth.ActionView); err != nil {
		return domain.EliminationReport{}, e.reject(op, err)
	}
	m, err := e.load(ctx, op, id)
	if err != nil {
		return domain.EliminationReport{}, err
	}
	if m.EliminationReport == nil {
		return domain.EliminationReport{}, e.reject(op, forbiddenURL("eliminationReport", "Elimination report not found."))
	}
	return *m.EliminationReport, nil
}

// PostEliminationDocument appends a document to the report until a
// resolution is made.
func (e Engine) PostEliminationDocument(ctx context.Context, id string, in DocumentInput, p auth.Principal, token string) (domain.Document, error) {
	const op = "post_elimination_document"
	if err := e.Auth.Authorize(p, auth.ResourceEliminationDocument, auth.ActionCreate); err != nil {
		return domain.Document{}, e.reject(op, err)
	}
	var doc domain.Document
	_, err := e.mutate(ctx, op, id, p, func(m *domain.Monitoring, now time.Time) (change, error) {
		if err := checkTenderOwner(m, p, token); err != nil {
			return change{}, err
		}
		if m.EliminationReport == nil {
			return change{}, forbidden("data", "Can't add document without elimination report.")
		}
		if m.EliminationResolution != nil {
			return change{}, forbidden("data", "Can't add document after elimination resolution.")
		}
		if m.Status != domain.StatusAddressed {
			return change{}, forbidden("data", fmt.Sprintf("Can't add document in current %s monitoring status.", m.Status))
		}
		if err := check("", in); err != nil {
			return change{}, err
		}
		docs, err := e.documents([]DocumentInput{in}, domain.AuthorTenderOwner, now)
		if err != nil {
			return change{}, err
		}
		doc = docs[0]
		m.EliminationReport.Documents = append(m.EliminationReport.Documents, doc)
		m.EliminationReport.DateModified = now
		return change{Event: events.EliminationDocumentAdded, Payload: events.EventPayload{"document_id": doc.ID}}, nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	e.Metrics.IncrementElimination("document")
	return doc, nil
}

// UpdateEliminationDocument always fails: report documents are append-only.
func (e Engine) UpdateEliminationDocument(ctx context.Context, id, docID string, p auth.Principal) error {
	const op = "update_elimination_document"
	if _, err := e.load(ctx, op, id); err != nil {
		return err
	}
	return e.reject(op, forbiddenURL("document_id", "Can't update elimination report documents."))
}

func (e Engine) GetEliminationResolution(ctx context.Context, id string, p auth.Principal) (domain.EliminationResolution, error) {
	const op = "get_elimination_resolution"
	if err := e.Auth.Authorize(p, auth.ResourceResolution, auth.ActionView); err != nil {
		return domain.EliminationResolution{}, e.reject(op, err)
	}
	m, err := e.load(ctx, op, id)
	if err != nil {
		return domain.EliminationResolution{}, err
	}
	if m.EliminationResolution == nil {
		return domain.EliminationResolution{}, e.reject(op, forbiddenURL("eliminationResolution", "Elimination resolution not found."))
	}
	return *m.EliminationResolution, nil
}

// PatchEliminationResolution creates or updates the resolution of an
// addressed monitoring that has a report.
func (e Engine) PatchEliminationResolution(ctx context.Context, id string, in ResolutionInput, p auth.Principal) (domain.EliminationResolution, error) {
	const op = "patch_elimination_resolution"
	if err := e.Auth.Authorize(p, auth.ResourceResolution, auth.ActionPatch); err != nil {
		return domain.EliminationResolution{}, e.reject(op, err)
	}
	m, err := e.mutate(ctx, op, id, p, func(m *domain.Monitoring, now time.Time) (change, error) {
		if err := e.applyResolution(m, in, now); err != nil {
			return change{}, err
		}
		return change{Event: events.EliminationResolutionSet, Payload: events.EventPayload{"result": in.Result}}, nil
	})
	if err != nil {
		return domain.EliminationResolution{}, err
	}
	e.Metrics.IncrementElimination("resolution")
	return *m.EliminationResolution, nil
}

func (e Engine) applyResolution(m *domain.Monitoring, in ResolutionInput, now time.Time) error {
	const name = "eliminationResolution"
	if m.Status != domain.StatusAddressed {
		return notEditable(name, m.Status)
	}
	if m.EliminationReport == nil {
		return invalid(name, "Can't update resolution without elimination report.")
	}
	if err := check(name, in); err != nil {
		return err
	}
	var expected []string
	if m.Conclusion != nil {
		expected = m.Conclusion.ViolationType
	}
	if !sameKeys(in.ResultByType, expected) {
		return invalid(name, map[string][]string{"resultByType": {"resultByType should contain exactly the violation types of the conclusion."}})
	}
	if in.RelatedParty != "" {
		if _, ok := m.Party(in.RelatedParty); !ok {
			return invalid(name, map[string][]string{"relatedParty": {"relatedParty should be one of parties."}})
		}
	}
	docs, err := e.documents(in.Documents, domain.AuthorMonitoringOwner, now)
	if err != nil {
		return err
	}
	created := now
	if m.EliminationResolution != nil {
		created = m.EliminationResolution.DateCreated
	}
	m.EliminationResolution = &domain.EliminationResolution{
		Result:       in.Result,
		ResultByType: in.ResultByType,
		Description:  in.Description,
		Documents:    docs,
		RelatedParty: in.RelatedParty,
		DateCreated:  created,
	}
	return nil
}

func sameKeys(got map[string]string, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, k := range want {
		if _, ok := got[k]; !ok {
			return false
		}
	}
	return true
}

// load reads a monitoring outside of a transaction.
func (e Engine) load(ctx context.Context, op, id string) (domain.Monitoring, error) {
	m, _, err := e.Repo.GetMonitoring(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Monitoring{}, e.reject(op, notFound(id))
		}
		return domain.Monitoring{}, e.reject(op, err)
	}
	return m, nil
}
