package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/kiezlabs/kiezscout/internal/dataset"
	"github.com/kiezlabs/kiezscout/internal/db"
	"github.com/kiezlabs/kiezscout/internal/model"
)

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS build_runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	error       TEXT,
	row_counts  JSONB
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.BuildRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO build_runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.BuildRun{ID: id, Status: model.RunStatusRunning, StartedAt: now}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, rowCounts map[string]int) error {
	counts, err := json.Marshal(rowCounts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal row counts")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE build_runs SET status = $1, finished_at = $2, row_counts = $3 WHERE id = $4`,
		string(model.RunStatusComplete), time.Now().UTC(), counts, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE build_runs SET status = $1, finished_at = $2, error = $3 WHERE id = $4`,
		string(model.RunStatusFailed), time.Now().UTC(), cause.Error(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.BuildRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, started_at, finished_at, error, row_counts
		 FROM build_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.BuildRun
	for rows.Next() {
		var (
			run        model.BuildRun
			status     string
			finishedAt *time.Time
			errMsg     *string
			counts     []byte
		)
		if err := rows.Scan(&run.ID, &status, &run.StartedAt, &finishedAt, &errMsg, &counts); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		run.Status = model.RunStatus(status)
		run.FinishedAt = finishedAt
		if errMsg != nil {
			run.Error = *errMsg
		}
		if len(counts) > 0 {
			if err := json.Unmarshal(counts, &run.RowCounts); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal row counts")
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate runs")
	}
	return runs, nil
}

func (s *PostgresStore) SaveWideTable(ctx context.Context, level model.Level, t *dataset.WideTable) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM wide_cells WHERE level = $1`, string(level)); err != nil {
		return eris.Wrap(err, "postgres: clear wide table")
	}

	var cells [][]any
	for _, key := range t.Keys() {
		for pos, col := range t.Columns() {
			if col == dataset.KeyColumn {
				continue
			}
			value, _ := t.Cell(key, col)
			cells = append(cells, []any{string(level), key, col, pos, value})
		}
	}

	_, err := db.CopyFrom(ctx, s.pool, "wide_cells",
		[]string{"level", "region_key", "column_name", "col_pos", "value"}, cells)
	return err
}

func (s *PostgresStore) LoadWideTable(ctx context.Context, level model.Level) (*dataset.WideTable, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT region_key, column_name, value FROM wide_cells WHERE level = $1 ORDER BY col_pos, region_key`,
		string(level))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load wide table")
	}
	defer rows.Close()

	t := dataset.NewWideTable()
	n := 0
	for rows.Next() {
		var key, col, value string
		if err := rows.Scan(&key, &col, &value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cell")
		}
		t.Set(key, dataset.KeyColumn, "")
		t.Set(key, col, value)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate cells")
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return t, nil
}
