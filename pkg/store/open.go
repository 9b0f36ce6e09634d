package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Open returns a Store for dsn:
//
//	memory://                      in-process
//	sqlite://path/to/file.db       SQLite file (sqlite://:memory: for in-memory)
//	postgres://user:pw@host/db     PostgreSQL
//
// SQL stores are initialized before they are returned.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || strings.HasPrefix(dsn, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return openSQL(ctx, "sqlite", strings.TrimPrefix(dsn, "sqlite://"), DialectSQLite)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openSQL(ctx, "postgres", dsn, DialectPostgres)
	default:
		return nil, fmt.Errorf("store: unsupported dsn scheme in %q", dsn)
	}
}

func openSQL(ctx context.Context, driver, source string, dialect Dialect) (Store, error) {
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// one connection so :memory: databases are shared across calls
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: connect %s: %w", driver, err)
	}
	s := NewSQLStore(db, dialect)
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
