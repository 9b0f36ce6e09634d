package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and column types.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// created_at is stored as fixed-width UTC text so it sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore persists records with database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps db. Call Init before first use on a fresh database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Init creates the assessments table and its system index.
func (s *SQLStore) Init(ctx context.Context) error {
	payloadType := "TEXT"
	if s.dialect == DialectPostgres {
		payloadType = "JSONB"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			system_name TEXT NOT NULL,
			composite_score INTEGER NOT NULL,
			audit_status TEXT NOT NULL,
			level_classification TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			payload ` + payloadType + ` NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_system ON assessments (system_name, created_at)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, r *Record) error {
	query := s.rebind(`INSERT INTO assessments (
		id, system_name, composite_score, audit_status, level_classification, content_hash, payload, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.SystemName, r.CompositeScore, r.AuditStatus, r.LevelClassification, r.ContentHash,
		string(r.Payload), r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("store: insert assessment: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, system_name, composite_score, audit_status, level_classification, content_hash, payload, created_at FROM assessments`

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *SQLStore) ListBySystem(ctx context.Context, system string, limit int) ([]*Record, error) {
	query := s.rebind(selectColumns + ` WHERE system_name = ? ORDER BY created_at DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, system, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("store: list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r         Record
		payload   string
		createdAt string
	)
	if err := row.Scan(&r.ID, &r.SystemName, &r.CompositeScore, &r.AuditStatus,
		&r.LevelClassification, &r.ContentHash, &payload, &createdAt); err != nil {
		return nil, err
	}
	r.Payload = []byte(payload)
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("store: parse created_at %q: %w", createdAt, err)
	}
	r.CreatedAt = t
	return &r, nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
