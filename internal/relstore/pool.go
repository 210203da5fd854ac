// Package relstore adapts the relational store holding authors,
// categories, books, and pages, with upsert/delete flows that keep
// orphaned author and category rows cleaned up.
package relstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns          = 25
	minConns          = 5
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
	statementTimeout  = 2 * time.Minute
)

// Store is the relational store adapter.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes and validates a tuned connection pool against dsn.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("relstore: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf("SET statement_timeout = '%ds'", int(statementTimeout.Seconds())))
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("relstore: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("relstore: ping failed: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	if logger != nil {
		stats := pool.Stat()
		logger.Info("relstore pool connected",
			slog.Int("max_conns", int(stats.MaxConns())),
			slog.Int("total_conns", int(stats.TotalConns())),
		)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS authors (
			id   BIGINT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id   BIGINT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			book_id           BIGINT PRIMARY KEY,
			book_name         TEXT NOT NULL,
			author_id         BIGINT NOT NULL REFERENCES authors(id),
			category_id       BIGINT NOT NULL REFERENCES categories(id),
			editor            TEXT,
			edition           TEXT,
			publisher         TEXT,
			num_volumes       TEXT,
			num_pages         TEXT,
			shamela_pub_date  TEXT,
			author_full       TEXT,
			parts             JSONB NOT NULL DEFAULT '[]',
			table_of_contents JSONB NOT NULL DEFAULT '[]',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			book_id      BIGINT NOT NULL REFERENCES books(book_id) ON DELETE CASCADE,
			page_id      BIGINT NOT NULL,
			part_title   TEXT NOT NULL,
			page_num     TEXT NOT NULL,
			display_elem TEXT NOT NULL,
			PRIMARY KEY (book_id, page_id)
		)`,
		`CREATE INDEX IF NOT EXISTS pages_book_page_num_idx ON pages (book_id, page_num)`,
		`CREATE INDEX IF NOT EXISTS pages_book_part_title_idx ON pages (book_id, part_title)`,
		`CREATE INDEX IF NOT EXISTS books_author_id_idx ON books (author_id)`,
		`CREATE INDEX IF NOT EXISTS books_category_id_idx ON books (category_id)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("relstore: ensure schema: %w", err)
		}
	}
	return nil
}
