package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"vahire/internal/config"
	"vahire/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const (
	uniqueViolation = "23505"
	defaultPort     = "5432"
	pingTimeout     = 5 * time.Second
)

var (
	// ErrNilPool is returned by every statement issued on a Pool that was never connected or is already closed.
	ErrNilPool = errors.New("postgres: pool is not connected")
	// ErrIncompleteConfig reports a database config missing a setting a connection cannot be opened without.
	ErrIncompleteConfig = errors.New("postgres: incomplete database config")
)

// pgxQuerier is the statement surface pgxpool.Pool and pgx.Tx share.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier adapts a pgxQuerier to database.Querier. pgx rows already satisfy database.Rows and database.Row.
type querier struct {
	q pgxQuerier
}

func (q querier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := q.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q querier) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return q.q.Query(ctx, query, args...)
}

func (q querier) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return q.q.QueryRow(ctx, query, args...)
}

// Pool is the pgx connection pool behind database.DB. SQLDB exposes the same pool through database/sql for the
// migration runner.
type Pool struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

// PoolConfig turns the database settings into a pgx pool config. The password is URL-escaped so any
// character is safe in it.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	host := strings.TrimSpace(cfg.DBHost)
	name := strings.TrimSpace(cfg.DBName)
	var missing []string
	if host == "" {
		missing = append(missing, "DB_HOST")
	}
	if name == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteConfig, strings.Join(missing, ", "))
	}

	port := strings.TrimSpace(cfg.DBPort)
	if port == "" {
		port = defaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	if user := strings.TrimSpace(cfg.DBUser); user != "" {
		u.User = url.UserPassword(user, cfg.DBPassword)
	}
	if mode := strings.TrimSpace(cfg.DBSSLMode); mode != "" {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}

	pcfg, err := pgxpool.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.PoolMaxConns > 0 {
		pcfg.MaxConns = cfg.PoolMaxConns
	}
	if cfg.PoolMinConns > 0 {
		pcfg.MinConns = min(cfg.PoolMinConns, pcfg.MaxConns)
	}
	if cfg.PoolMaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.PoolMaxConnLifetime
	}
	if cfg.PoolMaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.PoolMaxConnIdleTime
	}
	if cfg.PoolHealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.PoolHealthCheckPeriod
	}
	return pcfg, nil
}

// Connect opens the pool and pings it once. Without a deadline on ctx the ping gives up after pingTimeout.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (database.DB, error) {
	pcfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: ping %s: %w", pcfg.ConnConfig.Host, err)
	}
	return &Pool{pool: p, sqlDB: stdlib.OpenDBFromPool(p)}, nil
}

func (p *Pool) live() (*pgxpool.Pool, error) {
	if p == nil || p.pool == nil {
		return nil, ErrNilPool
	}
	return p.pool, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	pool, err := p.live()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close releases the database/sql handle before the pool it wraps. Closing twice is a no-op.
func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.sqlDB != nil {
		err = p.sqlDB.Close()
		p.sqlDB = nil
	}
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return err
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	pool, err := p.live()
	if err != nil {
		return 0, err
	}
	return querier{q: pool}.Exec(ctx, query, args...)
}

func (p *Pool) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	pool, err := p.live()
	if err != nil {
		return nil, err
	}
	return querier{q: pool}.Query(ctx, query, args...)
}

func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	pool, err := p.live()
	if err != nil {
		return errRow{err: err}
	}
	return querier{q: pool}.QueryRow(ctx, query, args...)
}

func (p *Pool) Begin(ctx context.Context) (database.Tx, error) {
	pool, err := p.live()
	if err != nil {
		return nil, err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{querier: querier{q: tx}, tx: tx}, nil
}

func (p *Pool) SQLDB() *sql.DB {
	if p == nil {
		return nil
	}
	return p.sqlDB
}

type pgxTx struct {
	querier
	tx pgx.Tx
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// errRow defers a connection error to Scan, where callers of QueryRow look for it.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// UniqueViolation reports whether err is a unique-constraint violation and returns the constraint name.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// NoRows reports whether err means the query matched nothing.
func NoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
