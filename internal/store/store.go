// Package store handles SQLite persistence of segmentation runs and sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/verte-zerg/sessioncut/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			inventory INTEGER NOT NULL,
			input_path TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL DEFAULT '',
			sessions INTEGER NOT NULL DEFAULT 0,
			quarantined INTEGER NOT NULL DEFAULT 0,
			set_back INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			inventory INTEGER NOT NULL,
			num INTEGER NOT NULL,
			date TEXT NOT NULL,
			date_session_num INTEGER NOT NULL,
			weekday_name TEXT NOT NULL,
			is_workday INTEGER NOT NULL,
			status TEXT NOT NULL,
			president TEXT NOT NULL,
			line_count INTEGER NOT NULL,
			forced_cut INTEGER NOT NULL,
			first_line_id TEXT NOT NULL,
			last_line_id TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_evidence (
			session_id TEXT NOT NULL,
			pos INTEGER NOT NULL,
			label TEXT NOT NULL,
			phrase TEXT NOT NULL,
			matched TEXT NOT NULL,
			line_id TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (session_id, pos)
		);`,
		`CREATE TABLE IF NOT EXISTS session_lines (
			session_id TEXT NOT NULL,
			pos INTEGER NOT NULL,
			line_id TEXT NOT NULL,
			text TEXT NOT NULL,
			page_id TEXT NOT NULL,
			scan_id TEXT NOT NULL,
			PRIMARY KEY (session_id, pos)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_inventory_num ON sessions(inventory, num);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun records the start of a segmentation run and returns its id.
func (s *Store) BeginRun(ctx context.Context, inventory int, inputPath string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, inventory, input_path, started_at) VALUES (?, ?, ?, ?)`,
		id, inventory, inputPath, startedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun stores the end time and counts of a run.
func (s *Store) FinishRun(ctx context.Context, summary model.RunSummary) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, sessions = ?, quarantined = ?, set_back = ? WHERE id = ?`,
		summary.EndedAt.Format(time.RFC3339Nano), summary.Sessions, summary.Quarantined, summary.SetBack, summary.RunID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", summary.RunID, ErrNotFound)
	}
	return nil
}

// InsertSession stores a session with its evidence and lines, replacing a
// previous version with the same id.
func (s *Store) InsertSession(ctx context.Context, runID string, session model.Session) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	md := session.Metadata
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, run_id, inventory, num, date, date_session_num, weekday_name, is_workday, status, president, line_count, forced_cut, first_line_id, last_line_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			inventory = excluded.inventory,
			num = excluded.num,
			date = excluded.date,
			date_session_num = excluded.date_session_num,
			weekday_name = excluded.weekday_name,
			is_workday = excluded.is_workday,
			status = excluded.status,
			president = excluded.president,
			line_count = excluded.line_count,
			forced_cut = excluded.forced_cut,
			first_line_id = excluded.first_line_id,
			last_line_id = excluded.last_line_id`,
		md.ID, runID, md.Inventory, md.Num, md.Date, md.DateSessionNum, md.WeekdayName,
		boolInt(md.IsWorkday), string(md.Status), md.President, md.LineCount, boolInt(md.ForcedCut),
		md.FirstLineID, md.LastLineID,
	)
	if err != nil {
		return err
	}
	for _, table := range []string{"session_evidence", "session_lines"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, md.ID); err != nil {
			return err
		}
	}

	for i, ev := range md.Evidence {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_evidence (session_id, pos, label, phrase, matched, line_id, start_offset, end_offset, score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			md.ID, i, ev.Label, ev.Phrase, ev.Matched, ev.LineID, ev.Offset, ev.End, ev.Score)
		if err != nil {
			return err
		}
	}

	if len(session.Lines) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_lines (session_id, pos, line_id, text, page_id, scan_id) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, line := range session.Lines {
			if _, err = stmt.ExecContext(ctx, md.ID, i, line.ID, line.Text, line.PageID, line.ScanID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

const sessionColumns = `id, inventory, num, date, date_session_num, weekday_name, is_workday, status, president, line_count, forced_cut, first_line_id, last_line_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (model.SessionMetadata, error) {
	var md model.SessionMetadata
	var status string
	var workday, forced int
	err := row.Scan(&md.ID, &md.Inventory, &md.Num, &md.Date, &md.DateSessionNum, &md.WeekdayName,
		&workday, &status, &md.President, &md.LineCount, &forced, &md.FirstLineID, &md.LastLineID)
	if err != nil {
		return model.SessionMetadata{}, err
	}
	md.Status = model.DateShiftStatus(status)
	md.IsWorkday = workday != 0
	md.ForcedCut = forced != 0
	return md, nil
}

// ListSessions returns session metadata without evidence, ordered by
// inventory and number.
func (s *Store) ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.SessionMetadata, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Inventory != 0 {
		clauses = append(clauses, "inventory = ?")
		args = append(args, filter.Inventory)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.Since)
	}
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY inventory ASC, num ASC`,
		sessionColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionMetadata
	for rows.Next() {
		md, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, md)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession loads a session with its evidence and lines.
func (s *Store) GetSession(ctx context.Context, id string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	md, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Session{}, err
	}
	md.Evidence, err = s.listEvidence(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	lines, err := s.listLines(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{Metadata: md, Lines: lines}, nil
}

func (s *Store) listEvidence(ctx context.Context, id string) ([]model.Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, phrase, matched, line_id, start_offset, end_offset, score
		 FROM session_evidence WHERE session_id = ? ORDER BY pos ASC`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var result []model.Evidence
	for rows.Next() {
		var ev model.Evidence
		if err := rows.Scan(&ev.Label, &ev.Phrase, &ev.Matched, &ev.LineID, &ev.Offset, &ev.End, &ev.Score); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) listLines(ctx context.Context, id string) ([]model.Line, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line_id, text, page_id, scan_id FROM session_lines WHERE session_id = ? ORDER BY pos ASC`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var result []model.Line
	for rows.Next() {
		var line model.Line
		if err := rows.Scan(&line.ID, &line.Text, &line.PageID, &line.ScanID); err != nil {
			return nil, err
		}
		result = append(result, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inventory, input_path, started_at, ended_at, sessions, quarantined, set_back
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunSummary
	for rows.Next() {
		var run model.RunSummary
		var startedAt, endedAt string
		if err := rows.Scan(&run.RunID, &run.Inventory, &run.InputPath, &startedAt, &endedAt, &run.Sessions, &run.Quarantined, &run.SetBack); err != nil {
			return nil, err
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		if endedAt != "" {
			run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt)
			if err != nil {
				return nil, err
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
