package engine

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"auditline/internal/config"
	"auditline/internal/deadline"
	"auditline/internal/docservice"
	"auditline/internal/domain"
	"auditline/internal/engine/auth"
	"auditline/internal/events"
	"auditline/internal/metrics"
	"auditline/internal/repo"
	"auditline/internal/tenders"
)

// CredentialsExtractor fetches tender-owner credentials from the tenders API.
type CredentialsExtractor interface {
	ExtractCredentials(ctx context.Context, tenderID string) (tenders.Credentials, error)
}

type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Config    *config.Config
	Auth      *auth.Service
	Deadlines deadline.Calculator
	Docs      *docservice.Signer
	Tenders   CredentialsExtractor
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Location  *time.Location
	Now       func() time.Time
}

// Options carries the collaborators New cannot derive from config.
type Options struct {
	Calendar deadline.WorkingCalendar
	Docs     *docservice.Signer
	Tenders  CredentialsExtractor
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, opts Options) (Engine, error) {
	if cfg == nil {
		return Engine{}, errors.New("config not loaded")
	}
	loc, err := cfg.Location()
	if err != nil {
		return Engine{}, err
	}
	svc, err := auth.NewService()
	if err != nil {
		return Engine{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Engine{
		DB:        db,
		Repo:      repo.Repo{DB: db},
		Events:    events.Writer{DB: db},
		Config:    cfg,
		Auth:      svc,
		Deadlines: deadline.Calculator{Calendar: opts.Calendar},
		Docs:      opts.Docs,
		Tenders:   opts.Tenders,
		Metrics:   opts.Metrics,
		Logger:    logger,
		Location:  loc,
		Now:       time.Now,
	}, nil
}

func (e Engine) now() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if e.Location != nil {
		return now().In(e.Location)
	}
	return now()
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Engine) periods() config.Periods {
	if e.Config == nil {
		return config.Periods{}
	}
	return e.Config.Periods
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// reject records a failed operation and returns err unchanged.
func (e Engine) reject(op string, err error) error {
	kind := KindOf(err)
	e.Metrics.IncrementRejection(op, string(kind))
	if kind == KindInternal {
		e.logger().Error("operation failed", "op", op, "err", err)
	} else {
		e.logger().Debug("operation rejected", "op", op, "kind", kind, "err", err)
	}
	return err
}

// change describes an accepted mutation for the event log.
type change struct {
	Event   string
	Payload events.EventPayload
}

// mutate loads a monitoring, applies fn and persists the result together
// with its event when fn changed anything. An unchanged monitoring is
// returned as loaded, dateModified included.
func (e Engine) mutate(ctx context.Context, op, id string, p auth.Principal, fn func(m *domain.Monitoring, now time.Time) (change, error)) (domain.Monitoring, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Monitoring{}, err
	}
	defer tx.Rollback()

	m, rev, err := e.Repo.GetMonitoringTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Monitoring{}, e.reject(op, notFound(id))
		}
		return domain.Monitoring{}, e.reject(op, err)
	}
	before, err := fingerprint(m)
	if err != nil {
		return domain.Monitoring{}, err
	}
	from := m.Status
	now := e.now()
	ch, err := fn(&m, now)
	if err != nil {
		return domain.Monitoring{}, e.reject(op, err)
	}
	after, err := fingerprint(m)
	if err != nil {
		return domain.Monitoring{}, err
	}
	if bytes.Equal(before, after) {
		return m, nil
	}
	m.DateModified = now
	if _, err := e.Repo.UpdateMonitoring(ctx, tx, m, rev); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return domain.Monitoring{}, e.reject(op, AsError(err))
		}
		return domain.Monitoring{}, e.reject(op, fmt.Errorf("update monitoring %s: %w", id, err))
	}
	payload := ch.Payload
	if payload == nil {
		payload = events.EventPayload{}
	}
	evt := ch.Event
	if m.Status != from {
		evt = events.MonitoringStatusChanged
		payload["from"] = from
		payload["to"] = m.Status
	}
	if err := e.Events.Append(ctx, tx, evt, "monitoring", m.ID, p.ActorID, payload); err != nil {
		return domain.Monitoring{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Monitoring{}, err
	}
	if m.Status != from {
		e.Metrics.IncrementTransition(string(from), string(m.Status))
		e.logger().Info("monitoring status changed", "monitoring_id", m.ID, "from", from, "to", m.Status, "actor", p.ActorID)
	} else {
		e.logger().Info("monitoring updated", "monitoring_id", m.ID, "op", op, "actor", p.ActorID)
	}
	return m, nil
}

// fingerprint covers the serialised document and the private owner columns.
func fingerprint(m domain.Monitoring) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal monitoring: %w", err)
	}
	data = append(data, 0)
	data = append(data, m.TenderOwner...)
	data = append(data, 0)
	data = append(data, m.TenderOwnerTokenHash...)
	return data, nil
}

// CreateMonitoring opens a draft monitoring for a tender.
func (e Engine) CreateMonitoring(ctx context.Context, in CreateMonitoringInput, p auth.Principal) (domain.Monitoring, error) {
	const op = "create_monitoring"
	if err := e.Auth.Authorize(p, auth.ResourceMonitoring, auth.ActionCreate); err != nil {
		return domain.Monitoring{}, e.reject(op, err)
	}
	if err := check("", in); err != nil {
		return domain.Monitoring{}, e.reject(op, err)
	}
	now := e.now()
	m := domain.Monitoring{
		ID:                newID(),
		TenderID:          in.TenderID,
		Status:            domain.StatusDraft,
		Reasons:           in.Reasons,
		ProcuringStages:   in.ProcuringStages,
		RiskIndicators:    in.RiskIndicators,
		MonitoringDetails: in.MonitoringDetails,
		DateCreated:       now,
		DateModified:      now,
	}
	if in.Decision != nil {
		d, err := e.decision(*in.Decision, now)
		if err != nil {
			return domain.Monitoring{}, e.reject(op, err)
		}
		m.Decision = &d
	}
	for _, pi := range in.Parties {
		m.Parties = append(m.Parties, domain.Party{ID: newID(), Name: pi.Name, Roles: pi.Roles})
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Monitoring{}, err
	}
	defer tx.Rollback()
	if _, err := e.Repo.InsertMonitoring(ctx, tx, m); err != nil {
		return domain.Monitoring{}, e.reject(op, fmt.Errorf("insert monitoring: %w", err))
	}
	if err := e.Events.Append(ctx, tx, events.MonitoringCreated, "monitoring", m.ID, p.ActorID, events.EventPayload{"tender_id": m.TenderID}); err != nil {
		return domain.Monitoring{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Monitoring{}, err
	}
	e.logger().Info("monitoring created", "monitoring_id", m.ID, "tender_id", m.TenderID, "actor", p.ActorID)
	return m, nil
}

func (e Engine) GetMonitoring(ctx context.Context, id string, p auth.Principal) (domain.Monitoring, error) {
	const op = "get_monitoring"
	if err := e.Auth.Authorize(p, auth.ResourceMonitoring, auth.ActionView); err != nil {
		return domain.Monitoring{}, e.reject(op, err)
	}
	m, _, err := e.Repo.GetMonitoring(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Monitoring{}, e.reject(op, notFound(id))
		}
		return domain.Monitoring{}, e.reject(op, err)
	}
	return m, nil
}

// ListMonitorings returns monitorings ordered by dateModified, newest last.
func (e Engine) ListMonitorings(ctx context.Context, f repo.MonitoringFilters, p auth.Principal) ([]domain.Monitoring, error) {
	const op = "list_monitorings"
	if err := e.Auth.Authorize(p, auth.ResourceMonitoring, auth.ActionView); err != nil {
		return nil, e.reject(op, err)
	}
	items, err := e.Repo.ListMonitorings(ctx, f)
	if err != nil {
		return nil, e.reject(op, err)
	}
	return items, nil
}

// AddParty appends a party that resolutions may reference.
func (e Engine) AddParty(ctx context.Context, id string, in PartyInput, p auth.Principal) (domain.Party, error) {
	const op = "add_party"
	if err := e.Auth.Authorize(p, auth.ResourceParty, auth.ActionCreate); err != nil {
		return domain.Party{}, e.reject(op, err)
	}
	var party domain.Party
	_, err := e.mutate(ctx, op, id, p, func(m *domain.Monitoring, now time.Time) (change, error) {
		if m.Status.Terminal() {
			return change{}, invalid("parties", fmt.Sprintf("Can't update in current %s monitoring status.", m.Status))
		}
		if err := check("", in); err != nil {
			return change{}, err
		}
		party = domain.Party{ID: newID(), Name: in.Name, Roles: in.Roles}
		m.Parties = append(m.Parties, party)
		return change{Event: events.PartyAdded, Payload: events.EventPayload{"party_id": party.ID}}, nil
	})
	if err != nil {
		return domain.Party{}, err
	}
	return party, nil
}

// documents verifies uploaded document URLs and stamps server-side fields.
func (e Engine) documents(in []DocumentInput, author string, now time.Time) ([]domain.Document, error) {
	if len(in) == 0 {
		return nil, nil
	}
	if e.Docs == nil {
		return nil, errors.New("document service not configured")
	}
	docs := make([]domain.Document, 0, len(in))
	for _, d := range in {
		fileID, err := e.Docs.VerifyURL(d.URL, d.Hash)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Location: "body", Name: "url", Description: "Can add document only from document service.", Err: err}
		}
		docs = append(docs, domain.Document{
			ID:            newID(),
			Title:         d.Title,
			URL:           e.Docs.GenerateURL(fileID),
			Hash:          d.Hash,
			Format:        d.Format,
			Author:        author,
			DatePublished: now,
			DateModified:  now,
		})
	}
	return docs, nil
}
