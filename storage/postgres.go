package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 10 * time.Second

const schema = `CREATE TABLE IF NOT EXISTS client_storage (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (namespace, key)
);`

// Postgres keeps one row per (namespace, key). With a TTL, reads refresh
// updated_at and Prune drops namespaces idle for longer than the TTL.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// OpenPostgres builds a pgx pool from dsn, pings it and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn string, ttl time.Duration) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 50
	config.MinConns = 2
	config.MaxConnIdleTime = 20 * time.Second

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure client_storage: %w", err)
	}

	return &Postgres{pool: pool, ttl: ttl}, nil
}

func (p *Postgres) Scope(namespace string) Storage {
	return &postgresScope{pool: p.pool, ns: namespace, touch: p.ttl > 0}
}

// Prune deletes every namespace not read or written within the TTL and
// reports how many rows went. It does nothing without a TTL.
func (p *Postgres) Prune(ctx context.Context) (int64, error) {
	if p.ttl <= 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stmt := `DELETE FROM client_storage WHERE namespace IN (
		SELECT namespace FROM client_storage
		GROUP BY namespace
		HAVING MAX(updated_at) < NOW() - $1::float8 * INTERVAL '1 second'
	);`
	tag, err := p.pool.Exec(ctx, stmt, p.ttl.Seconds())
	if err != nil {
		return 0, fmt.Errorf("prune client_storage: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type postgresScope struct {
	pool  *pgxpool.Pool
	ns    string
	touch bool
}

func (s *postgresScope) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stmt := "SELECT value FROM client_storage WHERE namespace = $1 AND key = $2;"
	if s.touch {
		stmt = "UPDATE client_storage SET updated_at = NOW() WHERE namespace = $1 AND key = $2 RETURNING value;"
	}
	var value string
	err := s.pool.QueryRow(ctx, stmt, s.ns, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (s *postgresScope) Set(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stmt := `INSERT INTO client_storage (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();`

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for k, v := range entries {
			batch.Queue(stmt, s.ns, k, v)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("upsert client_storage: %w", err)
	}
	return nil
}

func (s *postgresScope) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stmt := "DELETE FROM client_storage WHERE namespace = $1 AND key = ANY($2);"
	if _, err := s.pool.Exec(ctx, stmt, s.ns, keys); err != nil {
		return fmt.Errorf("delete client_storage: %w", err)
	}
	return nil
}

func (s *postgresScope) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// Updating the existing row makes RETURNING yield the value that survived.
	stmt := `INSERT INTO client_storage (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value = client_storage.value, updated_at = NOW()
		RETURNING value;`

	var stored string
	if err := s.pool.QueryRow(ctx, stmt, s.ns, key, value).Scan(&stored); err != nil {
		return "", fmt.Errorf("insert %s: %w", key, err)
	}
	return stored, nil
}
