// Package persistence stores per-task counters and fitted model parameters
// across restarts — a day's accumulated pool-pump run-time, each task's
// last-known priority for warm-up, and the PV/thermal model coefficient
// tables. Grounded on scheduler/mpc_persistence.go's INSERT ... ON CONFLICT
// upserts (task state inside a BeginTx/commit transaction), applied to the
// small opaque rows spec.md §6 describes instead of hour-by-hour MPC
// decisions; no rows are deleted.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// TaskState is the row persisted per task: how long it has run today, and
// its priority as of the last tick, so a restart can warm up without
// re-deriving state from scratch.
type TaskState struct {
	TaskID       string
	DailyRuntime time.Duration
	LastPriority int
	UpdatedAt    time.Time
}

// ModelParams is an opaque coefficient blob for a fitted thermal or PV
// model — persisted as JSON so the schema doesn't need to track every
// model's shape.
type ModelParams struct {
	Name      string
	ParamsJSON []byte
	UpdatedAt time.Time
}

// Store is the persistence contract the scheduler depends on; Postgres is
// the only concrete implementation, kept from the teacher's own choice of
// database, but callers depend on this interface so tests can fake it.
type Store interface {
	SaveTaskState(ctx context.Context, s TaskState) error
	LoadTaskState(ctx context.Context, taskID string) (TaskState, bool, error)
	SaveModelParams(ctx context.Context, m ModelParams) error
	LoadModelParams(ctx context.Context, name string) (ModelParams, bool, error)
	Close() error
}

// PostgresStore is the production Store, grounded on
// scheduler/mpc_persistence.go's transaction-scoped upsert pattern.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to connString and verifies the schema exists, creating it
// if necessary — the teacher's own code assumes a pre-migrated schema, but
// this module's two tables are small enough to create on first use.
func Open(ctx context.Context, connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: ping: %w", err)
	}
	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS task_state (
			task_id       TEXT PRIMARY KEY,
			daily_runtime BIGINT NOT NULL,
			last_priority INTEGER NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS model_params (
			name        TEXT PRIMARY KEY,
			params_json JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("persistence: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// SaveTaskState upserts one task's counters, the same
// DELETE/INSERT-within-a-transaction shape mpc_persistence.go uses for
// decisions, collapsed here to a single-row ON CONFLICT upsert since there
// is no time-range batch to replace.
func (s *PostgresStore) SaveTaskState(ctx context.Context, st TaskState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistence: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_state (task_id, daily_runtime, last_priority, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_id) DO UPDATE SET
			daily_runtime = EXCLUDED.daily_runtime,
			last_priority = EXCLUDED.last_priority,
			updated_at = EXCLUDED.updated_at
	`, st.TaskID, int64(st.DailyRuntime), st.LastPriority, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("persistence: upsert task_state: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) LoadTaskState(ctx context.Context, taskID string) (TaskState, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT task_id, daily_runtime, last_priority, updated_at
		FROM task_state WHERE task_id = $1
	`, taskID)

	var st TaskState
	var runtimeNanos int64
	if err := row.Scan(&st.TaskID, &runtimeNanos, &st.LastPriority, &st.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return TaskState{}, false, nil
		}
		return TaskState{}, false, fmt.Errorf("persistence: load task_state: %w", err)
	}
	st.DailyRuntime = time.Duration(runtimeNanos)
	return st, true, nil
}

func (s *PostgresStore) SaveModelParams(ctx context.Context, m ModelParams) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_params (name, params_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			params_json = EXCLUDED.params_json,
			updated_at = EXCLUDED.updated_at
	`, m.Name, m.ParamsJSON, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("persistence: upsert model_params: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadModelParams(ctx context.Context, name string) (ModelParams, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, params_json, updated_at FROM model_params WHERE name = $1
	`, name)

	var m ModelParams
	if err := row.Scan(&m.Name, &m.ParamsJSON, &m.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ModelParams{}, false, nil
		}
		return ModelParams{}, false, fmt.Errorf("persistence: load model_params: %w", err)
	}
	return m, true, nil
}
