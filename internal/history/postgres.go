package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id          UUID PRIMARY KEY,
	bucket      TEXT NOT NULL,
	object_key  TEXT NOT NULL,
	owner       TEXT NOT NULL,
	kind        TEXT NOT NULL,
	code        TEXT,
	status_code INT NOT NULL,
	message     TEXT NOT NULL,
	destination TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS validation_runs_owner_created_idx
	ON validation_runs (owner, created_at DESC);
`

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Postgres stores runs in the validation_runs table.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens and pings a pool.
func Connect(ctx context.Context, cfg PoolConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the runs table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create validation_runs: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Record(ctx context.Context, run Run) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO validation_runs
			(id, bucket, object_key, owner, kind, code, status_code, message, destination, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Bucket, run.Key, run.Owner, run.Kind, toPgText(run.Code),
		run.StatusCode, run.Message, toPgText(run.Destination), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, f Filter) ([]Run, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, bucket, object_key, owner, kind, code, status_code, message, destination, created_at
		FROM validation_runs
		WHERE ($1 = '' OR owner = $1) AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		f.Owner, f.Kind, f.limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows pgx.Rows) (Run, error) {
	var (
		run        Run
		code, dest pgtype.Text
		statusCode int32
	)
	err := rows.Scan(&run.ID, &run.Bucket, &run.Key, &run.Owner, &run.Kind, &code,
		&statusCode, &run.Message, &dest, &run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Code = code.String
	run.Destination = dest.String
	run.StatusCode = int(statusCode)
	return run, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
