package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"auditline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("revision conflict")
)

// Fixed-width UTC layout so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTS renders t the way monitoring timestamps are stored.
func FormatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r Repo) exec(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.DB
}

func scanMonitoring(row *sql.Row) (domain.Monitoring, int64, error) {
	var (
		m                domain.Monitoring
		rev              int64
		data             string
		owner, tokenHash sql.NullString
	)
	err := row.Scan(&rev, &data, &owner, &tokenHash)
	if err == sql.ErrNoRows {
		return m, 0, ErrNotFound
	}
	if err != nil {
		return m, 0, err
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return m, 0, fmt.Errorf("decode monitoring: %w", err)
	}
	m.TenderOwner = owner.String
	m.TenderOwnerTokenHash = tokenHash.String
	return m, rev, nil
}

const selectMonitoring = `SELECT revision,data_json,tender_owner,tender_owner_token_hash FROM monitorings WHERE id=?`

// GetMonitoring loads a monitoring with its current revision.
func (r Repo) GetMonitoring(ctx context.Context, id string) (domain.Monitoring, int64, error) {
	return scanMonitoring(r.DB.QueryRowContext(ctx, selectMonitoring, id))
}

// GetMonitoringTx loads a monitoring inside tx.
func (r Repo) GetMonitoringTx(ctx context.Context, tx *sql.Tx, id string) (domain.Monitoring, int64, error) {
	var q queryer = r.DB
	if tx != nil {
		q = tx
	}
	return scanMonitoring(q.QueryRowContext(ctx, selectMonitoring, id))
}

// InsertMonitoring stores a new monitoring at revision 1.
func (r Repo) InsertMonitoring(ctx context.Context, tx *sql.Tx, m domain.Monitoring) (int64, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("encode monitoring: %w", err)
	}
	_, err = r.exec(tx).ExecContext(ctx, `INSERT INTO monitorings(id,tender_id,status,revision,data_json,tender_owner,tender_owner_token_hash,date_created,date_modified) VALUES (?,?,?,1,?,?,?,?,?)`,
		m.ID, m.TenderID, string(m.Status), string(data), nullable(m.TenderOwner), nullable(m.TenderOwnerTokenHash),
		FormatTS(m.DateCreated), FormatTS(m.DateModified))
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// UpdateMonitoring saves m if the stored revision still equals expected.
func (r Repo) UpdateMonitoring(ctx context.Context, tx *sql.Tx, m domain.Monitoring, expected int64) (int64, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("encode monitoring: %w", err)
	}
	res, err := r.exec(tx).ExecContext(ctx, `UPDATE monitorings SET status=?,revision=revision+1,data_json=?,tender_owner=?,tender_owner_token_hash=?,date_modified=? WHERE id=? AND revision=?`,
		string(m.Status), string(data), nullable(m.TenderOwner), nullable(m.TenderOwnerTokenHash), FormatTS(m.DateModified), m.ID, expected)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if _, _, err := r.GetMonitoringTx(ctx, tx, m.ID); err != nil {
			return 0, err
		}
		return 0, ErrConflict
	}
	return expected + 1, nil
}

// MonitoringFilters narrows ListMonitorings.
type MonitoringFilters struct {
	Status   string
	TenderID string
	Limit    int
	// Cursor is the (date_modified, id) pair of the last item of the previous page.
	CursorTS string
	CursorID string
}

// ListMonitorings returns monitorings ordered by modification time.
func (r Repo) ListMonitorings(ctx context.Context, f MonitoringFilters) ([]domain.Monitoring, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.TenderID != "" {
		clauses = append(clauses, "tender_id=?")
		args = append(args, f.TenderID)
	}
	if f.CursorTS != "" && f.CursorID != "" {
		clauses = append(clauses, "(date_modified > ? OR (date_modified = ? AND id > ?))")
		args = append(args, f.CursorTS, f.CursorTS, f.CursorID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT data_json FROM monitorings WHERE %s ORDER BY date_modified ASC, id ASC LIMIT ?`, strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Monitoring
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var m domain.Monitoring
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("decode monitoring: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// LatestEvents returns newest events first, optionally narrowed by type and entity.
func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`, strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
