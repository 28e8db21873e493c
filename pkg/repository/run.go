package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/maildigest/pkg/domain"
)

const defaultRunsLimit = 20

// RunRepository stores pipeline run results
type RunRepository struct {
	db *sqlx.DB
}

type runRow struct {
	ID         string    `db:"id"`
	Trigger    string    `db:"trigger_source"`
	Success    bool      `db:"success"`
	Message    string    `db:"message"`
	Error      string    `db:"error"`
	Stats      string    `db:"stats"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts run result, replacing the one with the same id
func (r *RunRepository) SaveRun(ctx context.Context, res domain.RunResult) error {
	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	row := runRow{
		ID: res.ID, Trigger: res.Trigger, Success: res.Success, Message: res.Message, Error: res.Error,
		Stats: string(stats), StartedAt: res.StartedAt.UTC(), FinishedAt: res.FinishedAt.UTC(),
	}
	query := `
		INSERT OR REPLACE INTO runs (id, trigger_source, success, message, error, stats, started_at, finished_at)
		VALUES (:id, :trigger_source, :success, :message, :error, :stats, :started_at, :finished_at)
	`
	if err := withLockRetry(ctx, func() error {
		_, err := r.db.NamedExecContext(ctx, query, row)
		return err
	}); err != nil {
		return fmt.Errorf("save run %s: %w", res.ID, err)
	}
	return nil
}

// ListRuns returns recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.RunResult, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM runs ORDER BY started_at DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	res := make([]domain.RunResult, 0, len(rows))
	for _, row := range rows {
		rr, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		res = append(res, rr)
	}
	return res, nil
}

// LastRun returns the most recent run, nil if there are none
func (r *RunRepository) LastRun(ctx context.Context) (*domain.RunResult, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM runs ORDER BY started_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last run: %w", err)
	}
	rr, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rr, nil
}

func (row runRow) toDomain() (domain.RunResult, error) {
	res := domain.RunResult{
		ID: row.ID, Trigger: row.Trigger, Success: row.Success, Message: row.Message, Error: row.Error,
		StartedAt: row.StartedAt, FinishedAt: row.FinishedAt,
	}
	if err := json.Unmarshal([]byte(row.Stats), &res.Stats); err != nil {
		return domain.RunResult{}, fmt.Errorf("unmarshal stats of run %s: %w", row.ID, err)
	}
	return res, nil
}
