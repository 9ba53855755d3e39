package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS build_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME,
	error       TEXT,
	row_counts  TEXT
);

CREATE TABLE IF NOT EXISTS wide_cells (
	level       TEXT NOT NULL,
	region_key  TEXT NOT NULL,
	column_name TEXT NOT NULL,
	col_pos     INTEGER NOT NULL,
	value       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (level, region_key, column_name)
);

CREATE INDEX IF NOT EXISTS idx_build_runs_started ON build_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_wide_cells_level ON wide_cells(level);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.BuildRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &model.BuildRun{ID: id, Status: model.RunStatusRunning, StartedAt: now}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, rowCounts map[string]int) error {
	counts, err := json.Marshal(rowCounts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal row counts")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE build_runs SET status = ?, finished_at = ?, row_counts = ? WHERE id = ?`,
		string(model.RunStatusComplete), time.Now().UTC(), string(counts), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE build_runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		string(model.RunStatusFailed), time.Now().UTC(), cause.Error(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.BuildRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, error, row_counts
		 FROM build_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.BuildRun
	for rows.Next() {
		var (
			run        model.BuildRun
			status     string
			finishedAt sql.NullTime
			errMsg     sql.NullString
			counts     sql.NullString
		)
		if err := rows.Scan(&run.ID, &status, &run.StartedAt, &finishedAt, &errMsg, &counts); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		run.Status = model.RunStatus(status)
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		run.Error = errMsg.String
		if counts.Valid && counts.String != "" {
			if err := json.Unmarshal([]byte(counts.String), &run.RowCounts); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal row counts")
			}
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) SaveWideTable(ctx context.Context, level model.Level, t *dataset.WideTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wide_cells WHERE level = ?`, string(level)); err != nil {
		return eris.Wrap(err, "sqlite: clear wide table")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO wide_cells (level, region_key, column_name, col_pos, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare cell insert")
	}
	defer stmt.Close()

	for _, key := range t.Keys() {
		for pos, col := range t.Columns() {
			if col == dataset.KeyColumn {
				continue
			}
			value, _ := t.Cell(key, col)
			if _, err := stmt.ExecContext(ctx, string(level), key, col, pos, value); err != nil {
				return eris.Wrapf(err, "sqlite: insert cell %s/%s", key, col)
			}
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save")
}

func (s *SQLiteStore) LoadWideTable(ctx context.Context, level model.Level) (*dataset.WideTable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region_key, column_name, value FROM wide_cells WHERE level = ? ORDER BY col_pos, region_key`,
		string(level))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load wide table")
	}
	defer rows.Close()

	t := dataset.NewWideTable()
	n := 0
	for rows.Next() {
		var key, col, value string
		if err := rows.Scan(&key, &col, &value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cell")
		}
		t.Set(key, dataset.KeyColumn, "")
		t.Set(key, col, value)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate cells")
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return t, nil
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}
