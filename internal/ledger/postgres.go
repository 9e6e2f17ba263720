package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by the ledger.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS processed_archive (
	unique_key   TEXT PRIMARY KEY,
	href         TEXT NOT NULL,
	report_time  TIMESTAMP NOT NULL,
	records      INTEGER NOT NULL DEFAULT 0,
	issues       INTEGER NOT NULL DEFAULT 0,
	failures     INTEGER NOT NULL DEFAULT 0,
	bytes        BIGINT NOT NULL DEFAULT 0,
	run_id       UUID,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS processed_archive_processed_at_idx
	ON processed_archive (processed_at DESC);
`

// PoolConfig holds the pgxpool settings used by Connect.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
}

// Connect opens and pings a connection pool.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Postgres is a Ledger stored in the processed_archive table.
type Postgres struct {
	db DBTX
}

// NewPostgres returns a ledger on db. Call Migrate once before use.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the ledger table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate processed_archive: %w", err)
	}
	return nil
}

func (p *Postgres) Seen(ctx context.Context, key string) (bool, error) {
	var one int
	err := p.db.QueryRow(ctx, `SELECT 1 FROM processed_archive WHERE unique_key = $1`, key).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger seen %s: %w", key, err)
	}
	return true, nil
}

func (p *Postgres) Mark(ctx context.Context, e Entry) error {
	processed := pgtype.Timestamptz{Time: e.ProcessedAt, Valid: !e.ProcessedAt.IsZero()}
	_, err := p.db.Exec(ctx, `
		INSERT INTO processed_archive
			(unique_key, href, report_time, records, issues, failures, bytes, run_id, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
		ON CONFLICT (unique_key) DO UPDATE SET
			href = EXCLUDED.href,
			report_time = EXCLUDED.report_time,
			records = EXCLUDED.records,
			issues = EXCLUDED.issues,
			failures = EXCLUDED.failures,
			bytes = EXCLUDED.bytes,
			run_id = EXCLUDED.run_id,
			processed_at = EXCLUDED.processed_at`,
		e.Key, e.Href, pgtype.Timestamp{Time: e.ReportTime, Valid: true},
		e.Records, e.Issues, e.Failures, e.Bytes, toPgUUID(e.RunID), processed,
	)
	if err != nil {
		return fmt.Errorf("ledger mark %s: %w", e.Key, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.Query(ctx, `
		SELECT unique_key, href, report_time, records, issues, failures, bytes, run_id, processed_at
		FROM processed_archive
		ORDER BY processed_at DESC, report_time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			reportAt  pgtype.Timestamp
			runID     pgtype.UUID
			processed pgtype.Timestamptz
		)
		if err := rows.Scan(&e.Key, &e.Href, &reportAt, &e.Records, &e.Issues, &e.Failures, &e.Bytes, &runID, &processed); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		e.ReportTime = reportAt.Time
		e.RunID = fromPgUUID(runID)
		e.ProcessedAt = processed.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func fromPgUUID(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}
