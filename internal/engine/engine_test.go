package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditline/internal/calendar"
	"auditline/internal/config"
	"auditline/internal/db"
	"auditline/internal/deadline"
	"auditline/internal/docservice"
	"auditline/internal/domain"
	"auditline/internal/engine"
	"auditline/internal/engine/auth"
	"auditline/internal/logging"
	"auditline/internal/migrate"
	"auditline/internal/tenders"
)

var (
	eet    = time.FixedZone("EET", 2*60*60)
	sas    = auth.Principal{ActorID: "sas-1", Role: domain.RoleSAS, Source: "test"}
	broker = auth.Principal{ActorID: "broker-1", Role: domain.RoleBroker, Source: "test"}
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type fakeTenders struct {
	token string
	err   error
}

func (f *fakeTenders) ExtractCredentials(_ context.Context, _ string) (tenders.Credentials, error) {
	if f.err != nil {
		return tenders.Credentials{}, f.err
	}
	return tenders.Credentials{TenderToken: auth.HashToken(f.token), Owner: "broker-1"}, nil
}

type testEnv struct {
	Engine  engine.Engine
	Ctx     context.Context
	Clock   *clock
	Docs    *docservice.Signer
	Tenders *fakeTenders
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))

	cfg := config.Default()
	for _, opt := range opts {
		opt(cfg)
	}
	cal, err := calendar.New(cfg.Calendar.Version, cfg.Calendar.Days, cfg.Calendar.Short)
	require.NoError(t, err)
	docs, err := docservice.New("http://localhost", make([]byte, 32))
	require.NoError(t, err)
	ft := &fakeTenders{token: "tender_token"}

	eng, err := engine.New(conn, cfg, engine.Options{
		Calendar: cal,
		Docs:     docs,
		Tenders:  ft,
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)
	c := &clock{t: time.Date(2018, 1, 1, 11, 0, 0, 0, eet)}
	eng.Now = c.Now
	return testEnv{Engine: eng, Ctx: context.Background(), Clock: c, Docs: docs, Tenders: ft}
}

func requireKind(t *testing.T, err error, kind engine.Kind, name string) *engine.Error {
	t.Helper()
	require.Error(t, err)
	ee := engine.AsError(err)
	require.Equal(t, kind, ee.Kind, "error: %v", err)
	if name != "" {
		assert.Equal(t, name, ee.Name)
	}
	return ee
}

func ptr[T any](v T) *T { return &v }

func (env testEnv) document(t *testing.T, title string) engine.DocumentInput {
	t.Helper()
	hash := "md5:" + strings.Repeat("0", 32)
	url, err := env.Docs.UploadURL(strings.Repeat("a", 32), hash)
	require.NoError(t, err)
	return engine.DocumentInput{Title: title, URL: url, Hash: hash, Format: "application/msword"}
}

func (env testEnv) create(t *testing.T) domain.Monitoring {
	t.Helper()
	m, err := env.Engine.CreateMonitoring(env.Ctx, engine.CreateMonitoringInput{
		TenderID:        strings.Repeat("f", 32),
		Reasons:         []string{"indicator"},
		ProcuringStages: []string{"planning"},
		Parties:         []engine.PartyInput{{Name: "State Audit Service", Roles: []string{"sas"}}},
	}, sas)
	require.NoError(t, err)
	return m
}

func (env testEnv) active(t *testing.T) domain.Monitoring {
	t.Helper()
	m := env.create(t)
	m, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:   ptr(domain.StatusActive),
		Decision: &engine.DecisionInput{Description: "text", Date: ptr(env.Clock.t.AddDate(0, 0, 2))},
	}, sas)
	require.NoError(t, err)
	return m
}

func (env testEnv) addressed(t *testing.T) (domain.Monitoring, string) {
	t.Helper()
	m := env.active(t)
	_, token, err := env.Engine.GenerateCredentials(env.Ctx, m.ID, broker, "tender_token")
	require.NoError(t, err)
	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status: ptr(domain.StatusAddressed),
		Conclusion: &engine.ConclusionInput{
			Description:       "Some text",
			ViolationOccurred: ptr(true),
			ViolationType:     []string{"corruptionProcurementMethodType", "corruptionAwarded"},
		},
	}, sas)
	require.NoError(t, err)
	return m, token
}

func (env testEnv) withReport(t *testing.T) (domain.Monitoring, string) {
	t.Helper()
	m, token := env.addressed(t)
	_, err := env.Engine.PutEliminationReport(env.Ctx, m.ID, engine.EliminationReportInput{
		Description: "It's a minimal required elimination report",
		Documents:   []engine.DocumentInput{env.document(t, "lorem.doc")},
	}, broker, token)
	require.NoError(t, err)
	return m, token
}

func resolution() engine.ResolutionInput {
	return engine.ResolutionInput{
		Result: "partly",
		ResultByType: map[string]string{
			"corruptionProcurementMethodType": "eliminated",
			"corruptionAwarded":               "not_eliminated",
		},
		Description: "Do you have spare crutches?",
	}
}

func TestCreateMonitoring(t *testing.T) {
	env := newTestEnv(t)
	m := env.create(t)
	assert.Len(t, m.ID, 32)
	assert.Equal(t, domain.StatusDraft, m.Status)
	assert.True(t, m.DateCreated.Equal(env.Clock.t))
	require.Len(t, m.Parties, 1)

	_, err := env.Engine.CreateMonitoring(env.Ctx, engine.CreateMonitoringInput{TenderID: "f"}, sas)
	requireKind(t, err, engine.KindValidation, "tender_id")

	_, err = env.Engine.CreateMonitoring(env.Ctx, engine.CreateMonitoringInput{}, broker)
	requireKind(t, err, engine.KindForbidden, "")

	got, err := env.Engine.GetMonitoring(env.Ctx, m.ID, auth.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, m.TenderID, got.TenderID)

	_, err = env.Engine.GetMonitoring(env.Ctx, "missing", auth.Anonymous)
	requireKind(t, err, engine.KindNotFound, "monitoring_id")
}

func TestPatchNothingKeepsDateModified(t *testing.T) {
	env := newTestEnv(t)
	m := env.create(t)
	env.Clock.t = env.Clock.t.Add(time.Hour)

	got, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{ProcuringStages: []string{"planning"}}, sas)
	require.NoError(t, err)
	assert.True(t, got.DateModified.Equal(m.DateModified))

	got, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{ProcuringStages: []string{"awarding"}}, sas)
	require.NoError(t, err)
	assert.True(t, got.DateModified.Equal(env.Clock.t))
	assert.Equal(t, []string{"awarding"}, got.ProcuringStages)
}

func TestPatchForbiddenForOtherRoles(t *testing.T) {
	env := newTestEnv(t)
	m := env.create(t)
	for _, p := range []auth.Principal{auth.Anonymous, broker, {ActorID: "r", Role: domain.RoleReviewer}} {
		_, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusActive)}, p)
		requireKind(t, err, engine.KindForbidden, "")
	}
}

func TestPatchToActive(t *testing.T) {
	env := newTestEnv(t)
	m := env.create(t)

	_, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusActive)}, sas)
	ee := requireKind(t, err, engine.KindValidation, "decision")
	assert.Equal(t, "This field is required.", ee.Description)

	m = env.active(t)
	now := env.Clock.t
	assert.Equal(t, domain.StatusActive, m.Status)
	require.NotNil(t, m.MonitoringPeriod)
	assert.True(t, m.MonitoringPeriod.StartDate.Equal(now))
	assert.True(t, m.MonitoringPeriod.EndDate.After(now))
	require.NotNil(t, m.EndDate)
	assert.True(t, m.EndDate.After(m.MonitoringPeriod.EndDate))
	require.NotNil(t, m.Decision.DatePublished)
	assert.True(t, m.Decision.DatePublished.Equal(now))
	assert.True(t, m.DateModified.Equal(now))

	// 2018-01-01 is a holiday: fifteen working days from the next morning.
	assert.True(t, time.Date(2018, 1, 24, 0, 0, 0, 0, eet).Equal(m.MonitoringPeriod.EndDate), "got %s", m.MonitoringPeriod.EndDate)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Decision: &engine.DecisionInput{Description: "another text"},
	}, sas)
	requireKind(t, err, engine.KindValidation, "decision")

	again, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusActive)}, sas)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, again.Status)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{ProcuringStages: []string{"awarding"}}, sas)
	requireKind(t, err, engine.KindValidation, "procuringStages")
}

func TestPatchDisallowedTransition(t *testing.T) {
	env := newTestEnv(t)
	m := env.create(t)
	_, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusClosed)}, sas)
	ee := requireKind(t, err, engine.KindValidation, "status")
	assert.Equal(t, `Status update from "draft" to "closed" is not allowed.`, ee.Description)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{RiskIndicators: []string{"x"}}, sas)
	requireKind(t, err, engine.KindValidation, "riskIndicators")
}

func TestConclusionRules(t *testing.T) {
	env := newTestEnv(t)
	m := env.active(t)

	_, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusAddressed)}, sas)
	requireKind(t, err, engine.KindValidation, "conclusion")

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(true)},
	}, sas)
	ee := requireKind(t, err, engine.KindValidation, "conclusion")
	assert.Equal(t, map[string][]string{"violationType": {"This field is required."}}, ee.Description)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(true), ViolationType: []string{"bogus"}},
	}, sas)
	requireKind(t, err, engine.KindValidation, "conclusion")

	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(false)},
	}, sas)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, m.Status)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusAddressed)}, sas)
	requireKind(t, err, engine.KindForbidden, "data")

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:     ptr(domain.StatusDeclined),
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(true), ViolationType: []string{"corruptionAwarded"}},
	}, sas)
	requireKind(t, err, engine.KindForbidden, "data")

	// the rejected patch left the earlier conclusion in place
	got, err := env.Engine.GetMonitoring(env.Ctx, m.ID, auth.Anonymous)
	require.NoError(t, err)
	assert.False(t, got.Conclusion.ViolationOccurred)
}

func TestDeclinedToClosed(t *testing.T) {
	env := newTestEnv(t)
	m := env.active(t)
	m, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:     ptr(domain.StatusDeclined),
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(false)},
	}, sas)
	require.NoError(t, err)
	require.NotNil(t, m.EliminationPeriod)
	assert.True(t, time.Date(2018, 1, 5, 0, 0, 0, 0, eet).Equal(m.EliminationPeriod.EndDate), "got %s", m.EliminationPeriod.EndDate)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusClosed)}, sas)
	ee := requireKind(t, err, engine.KindForbidden, "data")
	assert.Equal(t, "Can't change status to closed before elimination period ends.", ee.Description)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Cancellation: &engine.CancellationInput{Description: "Whisper words of wisdom - let it be."},
	}, sas)
	require.NoError(t, err)

	env.Clock.t = time.Date(2018, 1, 20, 12, 0, 0, 0, time.FixedZone("", 3*60*60))
	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusClosed)}, sas)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, m.Status)

	env.Clock.t = env.Clock.t.Add(time.Hour)
	same, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:       ptr(domain.StatusClosed),
		Cancellation: &engine.CancellationInput{Description: "Whisper words of wisdom - let it be."},
	}, sas)
	require.NoError(t, err)
	assert.True(t, same.DateModified.Equal(m.DateModified))

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Cancellation: &engine.CancellationInput{Description: "late"},
	}, sas)
	ee = requireKind(t, err, engine.KindValidation, "cancellation")
	assert.Equal(t, "Can't update in current closed monitoring status.", ee.Description)

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusStopped)}, sas)
	requireKind(t, err, engine.KindValidation, "status")
}

func TestAddressedToClosed(t *testing.T) {
	env := newTestEnv(t)
	m, _ := env.addressed(t)
	require.NotNil(t, m.EliminationPeriod)
	end := time.Date(2018, 1, 17, 0, 0, 0, 0, eet)
	assert.True(t, end.Equal(m.EliminationPeriod.EndDate), "got %s", m.EliminationPeriod.EndDate)

	env.Clock.t = end.Add(-time.Minute)
	_, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusClosed)}, sas)
	ee := requireKind(t, err, engine.KindForbidden, "data")
	assert.Equal(t, "Can't change status to closed before elimination period ends.", ee.Description)

	env.Clock.t = end
	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusClosed)}, sas)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, m.Status)
	assert.True(t, m.DateModified.Equal(end))
}

func TestSandboxAccelerator(t *testing.T) {
	const accelerator = 1440
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Service.SandboxMode = true })
	m, err := env.Engine.CreateMonitoring(env.Ctx, engine.CreateMonitoringInput{
		TenderID:          strings.Repeat("f", 32),
		Reasons:           []string{"indicator"},
		ProcuringStages:   []string{"planning"},
		MonitoringDetails: "accelerator=1440",
	}, sas)
	require.NoError(t, err)

	start := env.Clock.t
	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:   ptr(domain.StatusActive),
		Decision: &engine.DecisionInput{Description: "text"},
	}, sas)
	require.NoError(t, err)
	require.NotNil(t, m.MonitoringPeriod)
	require.NotNil(t, m.EndDate)
	assert.True(t, start.Add(15*deadline.Day/accelerator).Equal(m.MonitoringPeriod.EndDate), "got %s", m.MonitoringPeriod.EndDate)
	assert.True(t, start.Add(30*deadline.Day/accelerator).Equal(*m.EndDate), "got %s", *m.EndDate)

	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:     ptr(domain.StatusDeclined),
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(false)},
	}, sas)
	require.NoError(t, err)
	require.NotNil(t, m.EliminationPeriod)
	want := deadline.NormalizedDate(start.Add(3*deadline.Day/accelerator), true)
	assert.True(t, want.Equal(m.EliminationPeriod.EndDate), "got %s", m.EliminationPeriod.EndDate)

	// without sandbox mode the details are ignored
	plain := newTestEnv(t)
	m, err = plain.Engine.CreateMonitoring(plain.Ctx, engine.CreateMonitoringInput{
		TenderID:          strings.Repeat("f", 32),
		Reasons:           []string{"indicator"},
		ProcuringStages:   []string{"planning"},
		MonitoringDetails: "accelerator=1440",
	}, sas)
	require.NoError(t, err)
	m, err = plain.Engine.PatchMonitoring(plain.Ctx, m.ID, engine.MonitoringPatch{
		Status:   ptr(domain.StatusActive),
		Decision: &engine.DecisionInput{Description: "text"},
	}, sas)
	require.NoError(t, err)
	assert.True(t, time.Date(2018, 1, 24, 0, 0, 0, 0, eet).Equal(m.MonitoringPeriod.EndDate), "got %s", m.MonitoringPeriod.EndDate)
}

func TestStopAndCancelRequireCancellation(t *testing.T) {
	env := newTestEnv(t)
	draft := env.create(t)
	_, err := env.Engine.PatchMonitoring(env.Ctx, draft.ID, engine.MonitoringPatch{Status: ptr(domain.StatusCancelled)}, sas)
	ee := requireKind(t, err, engine.KindValidation, "cancellation")
	assert.Equal(t, "This field is required.", ee.Description)

	_, err = env.Engine.PatchMonitoring(env.Ctx, draft.ID, engine.MonitoringPatch{Status: ptr(domain.StatusStopped)}, sas)
	requireKind(t, err, engine.KindValidation, "status")

	m, _ := env.addressed(t)
	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusStopped)}, sas)
	requireKind(t, err, engine.KindValidation, "cancellation")

	m, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:       ptr(domain.StatusStopped),
		Cancellation: &engine.CancellationInput{Description: "Whisper words of wisdom - let it be."},
	}, sas)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStopped, m.Status)
	require.NotNil(t, m.Cancellation)
	assert.True(t, m.Cancellation.DatePublished.Equal(env.Clock.t))
}

func TestGenerateCredentials(t *testing.T) {
	env := newTestEnv(t)
	m := env.active(t)

	_, _, err := env.Engine.GenerateCredentials(env.Ctx, m.ID, broker, "wrong")
	requireKind(t, err, engine.KindForbidden, "")

	_, _, err = env.Engine.GenerateCredentials(env.Ctx, m.ID, sas, "tender_token")
	requireKind(t, err, engine.KindForbidden, "")

	_, token, err := env.Engine.GenerateCredentials(env.Ctx, m.ID, broker, "tender_token")
	require.NoError(t, err)
	assert.Len(t, token, 32)

	stored, _, err := env.Engine.Repo.GetMonitoring(env.Ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "broker-1", stored.TenderOwner)
	assert.True(t, auth.TokenMatches(token, stored.TenderOwnerTokenHash))

	env.Tenders.err = errors.New("connection refused")
	_, _, err = env.Engine.GenerateCredentials(env.Ctx, m.ID, broker, "tender_token")
	requireKind(t, err, engine.KindUpstream, "")
	env.Tenders.err = tenders.ErrNotFound
	_, _, err = env.Engine.GenerateCredentials(env.Ctx, m.ID, broker, "tender_token")
	requireKind(t, err, engine.KindValidation, "tender_id")
}

func TestEliminationReport(t *testing.T) {
	env := newTestEnv(t)
	m := env.active(t)
	_, token, err := env.Engine.GenerateCredentials(env.Ctx, m.ID, broker, "tender_token")
	require.NoError(t, err)
	in := engine.EliminationReportInput{
		Description: "It's a minimal required elimination report",
		Documents:   []engine.DocumentInput{env.document(t, "lorem.doc")},
	}

	_, err = env.Engine.PutEliminationReport(env.Ctx, m.ID, in, broker, token)
	ee := requireKind(t, err, engine.KindValidation, "eliminationReport")
	assert.Equal(t, "Can't update in current active monitoring status.", ee.Description)

	_, err = env.Engine.GetEliminationReport(env.Ctx, m.ID, auth.Anonymous)
	requireKind(t, err, engine.KindForbidden, "")

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		Status:     ptr(domain.StatusAddressed),
		Conclusion: &engine.ConclusionInput{ViolationOccurred: ptr(true), ViolationType: []string{"corruptionProcurementMethodType", "corruptionAwarded"}},
	}, sas)
	require.NoError(t, err)

	_, err = env.Engine.PutEliminationReport(env.Ctx, m.ID, in, sas, token)
	requireKind(t, err, engine.KindForbidden, "")
	_, err = env.Engine.PutEliminationReport(env.Ctx, m.ID, in, broker, "wrong")
	requireKind(t, err, engine.KindForbidden, "")
	_, err = env.Engine.PutEliminationReport(env.Ctx, m.ID, in, auth.Principal{ActorID: "broker-2", Role: domain.RoleBroker}, token)
	requireKind(t, err, engine.KindForbidden, "")

	bad := in
	bad.Documents = []engine.DocumentInput{{Title: "x", URL: "http://example.com/get/1", Hash: "md5:" + strings.Repeat("0", 32), Format: "text/plain"}}
	_, err = env.Engine.PutEliminationReport(env.Ctx, m.ID, bad, broker, token)
	ee = requireKind(t, err, engine.KindValidation, "url")
	assert.Equal(t, "Can add document only from document service.", ee.Description)

	report, err := env.Engine.PutEliminationReport(env.Ctx, m.ID, in, broker, token)
	require.NoError(t, err)
	assert.Equal(t, in.Description, report.Description)
	assert.True(t, report.DateCreated.Equal(env.Clock.t))
	assert.True(t, report.DatePublished.Equal(report.DateCreated))
	require.Len(t, report.Documents, 1)
	assert.Equal(t, domain.AuthorTenderOwner, report.Documents[0].Author)
	assert.True(t, strings.HasPrefix(report.Documents[0].URL, "http://localhost/get/"))

	_, err = env.Engine.PutEliminationReport(env.Ctx, m.ID, in, broker, token)
	ee = requireKind(t, err, engine.KindForbidden, "data")
	assert.Equal(t, "Can't post another elimination report.", ee.Description)

	for _, p := range []auth.Principal{broker, sas, auth.Anonymous} {
		err = env.Engine.PatchEliminationReport(env.Ctx, m.ID, p)
		requireKind(t, err, engine.KindMethodNotAllowed, "")
	}

	got, err := env.Engine.GetEliminationReport(env.Ctx, m.ID, auth.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, report.Description, got.Description)
}

func TestEliminationDocuments(t *testing.T) {
	env := newTestEnv(t)
	m, token := env.withReport(t)

	_, err := env.Engine.PostEliminationDocument(env.Ctx, m.ID, env.document(t, "sas.doc"), sas, token)
	requireKind(t, err, engine.KindForbidden, "")
	_, err = env.Engine.PostEliminationDocument(env.Ctx, m.ID, env.document(t, "anon.doc"), broker, "")
	requireKind(t, err, engine.KindForbidden, "")

	postTime := time.Date(2018, 1, 2, 1, 15, 0, 0, eet)
	env.Clock.t = postTime
	doc, err := env.Engine.PostEliminationDocument(env.Ctx, m.ID, env.document(t, "second.doc"), broker, token)
	require.NoError(t, err)
	assert.Equal(t, "second.doc", doc.Title)

	got, err := env.Engine.GetMonitoring(env.Ctx, m.ID, auth.Anonymous)
	require.NoError(t, err)
	require.Len(t, got.EliminationReport.Documents, 2)
	assert.Equal(t, "second.doc", got.EliminationReport.Documents[1].Title)
	assert.True(t, got.DateModified.Equal(postTime))
	assert.True(t, got.EliminationReport.DateModified.Equal(postTime))

	err = env.Engine.UpdateEliminationDocument(env.Ctx, m.ID, doc.ID, broker)
	requireKind(t, err, engine.KindForbidden, "")

	_, err = env.Engine.PatchEliminationResolution(env.Ctx, m.ID, resolution(), sas)
	require.NoError(t, err)
	_, err = env.Engine.PostEliminationDocument(env.Ctx, m.ID, env.document(t, "late.doc"), broker, token)
	ee := requireKind(t, err, engine.KindForbidden, "data")
	assert.Equal(t, "Can't add document after elimination resolution.", ee.Description)
}

func TestEliminationResolution(t *testing.T) {
	env := newTestEnv(t)
	m, _ := env.addressed(t)

	_, err := env.Engine.PatchEliminationResolution(env.Ctx, m.ID, resolution(), sas)
	requireKind(t, err, engine.KindValidation, "eliminationResolution")

	m, _ = env.withReport(t)
	_, err = env.Engine.GetEliminationResolution(env.Ctx, m.ID, auth.Anonymous)
	requireKind(t, err, engine.KindForbidden, "")

	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{
		EliminationResolution: &engine.ResolutionInput{Result: "partly"},
	}, sas)
	ee := requireKind(t, err, engine.KindValidation, "eliminationResolution")
	assert.Equal(t, map[string][]string{"resultByType": {"This field is required."}}, ee.Description)

	wrongKeys := resolution()
	wrongKeys.ResultByType = map[string]string{"corruptionChanges": "eliminated"}
	_, err = env.Engine.PatchEliminationResolution(env.Ctx, m.ID, wrongKeys, sas)
	requireKind(t, err, engine.KindValidation, "eliminationResolution")

	wrongValue := resolution()
	wrongValue.ResultByType["corruptionAwarded"] = "Nope"
	_, err = env.Engine.PatchEliminationResolution(env.Ctx, m.ID, wrongValue, sas)
	requireKind(t, err, engine.KindValidation, "eliminationResolution")

	badParty := resolution()
	badParty.RelatedParty = "Party with the devil"
	_, err = env.Engine.PatchEliminationResolution(env.Ctx, m.ID, badParty, sas)
	ee = requireKind(t, err, engine.KindValidation, "eliminationResolution")
	assert.Equal(t, map[string][]string{"relatedParty": {"relatedParty should be one of parties."}}, ee.Description)

	_, err = env.Engine.PatchEliminationResolution(env.Ctx, m.ID, resolution(), broker)
	requireKind(t, err, engine.KindForbidden, "")

	good := resolution()
	good.RelatedParty = m.Parties[0].ID
	good.Documents = []engine.DocumentInput{env.document(t, "sign.p7s")}
	created := env.Clock.t
	res, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{EliminationResolution: &good}, sas)
	require.NoError(t, err)
	require.NotNil(t, res.EliminationResolution)
	assert.Equal(t, good.ResultByType, res.EliminationResolution.ResultByType)
	assert.Equal(t, m.Parties[0].ID, res.EliminationResolution.RelatedParty)
	assert.Equal(t, domain.AuthorMonitoringOwner, res.EliminationResolution.Documents[0].Author)

	env.Clock.t = created.Add(time.Hour)
	updated := resolution()
	updated.Result = "completely"
	r, err := env.Engine.PatchEliminationResolution(env.Ctx, m.ID, updated, sas)
	require.NoError(t, err)
	assert.Equal(t, "completely", r.Result)
	assert.True(t, r.DateCreated.Equal(created))

	got, err := env.Engine.GetEliminationResolution(env.Ctx, m.ID, auth.Anonymous)
	require.NoError(t, err)
	assert.Equal(t, "completely", got.Result)
}

func TestCompletion(t *testing.T) {
	env := newTestEnv(t)
	m, _ := env.addressed(t)
	assert.True(t, time.Date(2018, 1, 17, 0, 0, 0, 0, eet).Equal(m.EliminationPeriod.EndDate), "got %s", m.EliminationPeriod.EndDate)

	_, err := env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusCompleted)}, sas)
	ee := requireKind(t, err, engine.KindForbidden, "data")
	assert.Equal(t, "Can't change status to completed before elimination period ends.", ee.Description)

	env.Clock.t = time.Date(2018, 1, 20, 12, 0, 0, 0, time.FixedZone("", 3*60*60))
	_, err = env.Engine.PatchMonitoring(env.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusCompleted)}, sas)
	requireKind(t, err, engine.KindValidation, "eliminationReport")

	env2 := newTestEnv(t)
	m, token := env2.withReport(t)
	env2.Clock.t = env.Clock.t
	_, err = env2.Engine.PatchMonitoring(env2.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusCompleted)}, sas)
	requireKind(t, err, engine.KindValidation, "eliminationResolution")

	_, err = env2.Engine.PatchEliminationResolution(env2.Ctx, m.ID, resolution(), sas)
	require.NoError(t, err)
	done, err := env2.Engine.PatchMonitoring(env2.Ctx, m.ID, engine.MonitoringPatch{Status: ptr(domain.StatusCompleted)}, sas)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)

	_, err = env2.Engine.PatchEliminationResolution(env2.Ctx, m.ID, engine.ResolutionInput{Result: "completely"}, sas)
	requireKind(t, err, engine.KindValidation, "eliminationResolution")
	err = env2.Engine.PatchEliminationReport(env2.Ctx, m.ID, broker)
	requireKind(t, err, engine.KindMethodNotAllowed, "")
	_, err = env2.Engine.PostEliminationDocument(env2.Ctx, m.ID, env2.document(t, "late.doc"), broker, token)
	requireKind(t, err, engine.KindForbidden, "")
}

func TestTransitionTable(t *testing.T) {
	all := []domain.Status{
		domain.StatusDraft, domain.StatusActive, domain.StatusAddressed, domain.StatusDeclined,
		domain.StatusCompleted, domain.StatusClosed, domain.StatusStopped, domain.StatusCancelled,
	}
	allowed := map[[2]domain.Status]bool{
		{domain.StatusDraft, domain.StatusActive}:        true,
		{domain.StatusDraft, domain.StatusCancelled}:     true,
		{domain.StatusActive, domain.StatusAddressed}:    true,
		{domain.StatusActive, domain.StatusDeclined}:     true,
		{domain.StatusActive, domain.StatusCancelled}:    true,
		{domain.StatusActive, domain.StatusStopped}:      true,
		{domain.StatusAddressed, domain.StatusCompleted}: true,
		{domain.StatusAddressed, domain.StatusClosed}:    true,
		{domain.StatusAddressed, domain.StatusStopped}:   true,
		{domain.StatusDeclined, domain.StatusClosed}:     true,
		{domain.StatusDeclined, domain.StatusStopped}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]domain.Status{from, to}], engine.Allowed(from, to), "%s -> %s", from, to)
		}
		if from.Terminal() {
			assert.Empty(t, engine.Targets(from), from)
		}
	}
}

func TestMutationsAreLogged(t *testing.T) {
	env := newTestEnv(t)
	m := env.active(t)
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, "", "monitoring", m.ID)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	types := []string{evts[0].Type, evts[1].Type}
	assert.ElementsMatch(t, []string{"monitoring.created", "monitoring.status.changed"}, types)
}

func TestAddParty(t *testing.T) {
	env := newTestEnv(t)
	m := env.active(t)

	_, err := env.Engine.AddParty(env.Ctx, m.ID, engine.PartyInput{Name: "Buyer"}, broker)
	requireKind(t, err, engine.KindForbidden, "")

	_, err = env.Engine.AddParty(env.Ctx, m.ID, engine.PartyInput{}, sas)
	requireKind(t, err, engine.KindValidation, "name")

	_, err = env.Engine.AddParty(env.Ctx, m.ID, engine.PartyInput{Name: "Buyer", Roles: []string{"auditor"}}, sas)
	requireKind(t, err, engine.KindValidation, "roles")

	party, err := env.Engine.AddParty(env.Ctx, m.ID, engine.PartyInput{Name: "Buyer", Roles: []string{"buyer"}}, sas)
	require.NoError(t, err)
	assert.Len(t, party.ID, 32)

	got, err := env.Engine.GetMonitoring(env.Ctx, m.ID, auth.Anonymous)
	require.NoError(t, err)
	require.Len(t, got.Parties, 2)
	assert.Equal(t, party, got.Parties[1])

	_, err = env.Engine.AddParty(env.Ctx, "missing", engine.PartyInput{Name: "Buyer"}, sas)
	requireKind(t, err, engine.KindNotFound, "monitoring_id")
}
