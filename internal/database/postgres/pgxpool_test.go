package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vahire/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		DBHost:              " db.internal ",
		DBName:              "vahire",
		DBUser:              "app",
		DBPassword:          "p@ss word/#1",
		DBSSLMode:           "require",
		ConnectTimeout:      3 * time.Second,
		PoolMaxConns:        8,
		PoolMinConns:        2,
		PoolMaxConnIdleTime: time.Minute,
	}

	pcfg, err := PoolConfig(cfg)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cc := pcfg.ConnConfig
	if cc.Host != "db.internal" || cc.Port != 5432 || cc.Database != "vahire" || cc.User != "app" {
		t.Fatalf("conn = %s:%d/%s as %s", cc.Host, cc.Port, cc.Database, cc.User)
	}
	if cc.Password != cfg.DBPassword {
		t.Fatalf("password = %q", cc.Password)
	}
	if cc.ConnectTimeout != 3*time.Second || pcfg.MaxConns != 8 || pcfg.MinConns != 2 || pcfg.MaxConnIdleTime != time.Minute {
		t.Fatalf("pool = %+v", pcfg)
	}
	if cc.TLSConfig == nil {
		t.Fatalf("sslmode=require must configure TLS")
	}
}

func TestPoolConfig_MinConnsCappedByMax(t *testing.T) {
	pcfg, err := PoolConfig(config.DatabaseConfig{DBHost: "localhost", DBName: "vahire", PoolMaxConns: 3, PoolMinConns: 10, DBSSLMode: "disable"})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if pcfg.MinConns != 3 {
		t.Fatalf("min conns = %d", pcfg.MinConns)
	}
}

func TestPoolConfig_Incomplete(t *testing.T) {
	_, err := PoolConfig(config.DatabaseConfig{DBPort: "5432"})
	if !errors.Is(err, ErrIncompleteConfig) {
		t.Fatalf("expected ErrIncompleteConfig, got %v", err)
	}
}

func TestPool_NotConnected(t *testing.T) {
	ctx := context.Background()
	var nilPool *Pool
	for _, p := range []*Pool{nilPool, {}} {
		if err := p.Ping(ctx); !errors.Is(err, ErrNilPool) {
			t.Fatalf("ping: %v", err)
		}
		if _, err := p.Exec(ctx, "SELECT 1"); !errors.Is(err, ErrNilPool) {
			t.Fatalf("exec: %v", err)
		}
		if _, err := p.Query(ctx, "SELECT 1"); !errors.Is(err, ErrNilPool) {
			t.Fatalf("query: %v", err)
		}
		var n int
		if err := p.QueryRow(ctx, "SELECT 1").Scan(&n); !errors.Is(err, ErrNilPool) {
			t.Fatalf("query row: %v", err)
		}
		if _, err := p.Begin(ctx); !errors.Is(err, ErrNilPool) {
			t.Fatalf("begin: %v", err)
		}
		if err := p.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "contracts_proposal_id_key"})
	name, ok := UniqueViolation(err)
	if !ok || name != "contracts_proposal_id_key" {
		t.Fatalf("got %q %v", name, ok)
	}
	if _, ok := UniqueViolation(&pgconn.PgError{Code: "23503"}); ok {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if !NoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)) || NoRows(errors.New("boom")) {
		t.Fatalf("NoRows mismatch")
	}
}
