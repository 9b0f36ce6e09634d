// Package store keeps the history of assessment results.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("store: record not found")

// DefaultListLimit caps ListBySystem when the caller passes no limit.
const DefaultListLimit = 50

// Record is one stored assessment.
type Record struct {
	ID                  string          `json:"id"`
	SystemName          string          `json:"system_name"`
	CompositeScore      int             `json:"composite_score"`
	AuditStatus         string          `json:"audit_status"`
	LevelClassification string          `json:"level_classification"`
	ContentHash         string          `json:"content_hash"`
	Payload             json.RawMessage `json:"payload"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Store persists assessment records.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// ListBySystem returns the newest records for system first.
	ListBySystem(ctx context.Context, system string, limit int) ([]*Record, error)
	Close() error
}

// LatestFinder is implemented by stores with a faster path to a system's
// most recent record.
type LatestFinder interface {
	Latest(ctx context.Context, system string) (*Record, error)
}

// Latest returns the most recent record for system, or ErrNotFound.
func Latest(ctx context.Context, s Store, system string) (*Record, error) {
	if lf, ok := s.(LatestFinder); ok {
		return lf.Latest(ctx, system)
	}
	recs, err := s.ListBySystem(ctx, system, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// NewRecord wraps result for storage. hash is the result's content hash.
func NewRecord(result *assessment.Result, hash string) (*Record, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &Record{
		ID:                  uuid.NewString(),
		SystemName:          result.SystemName,
		CompositeScore:      result.CompositeScore,
		AuditStatus:         string(result.AuditStatus),
		LevelClassification: result.LevelClassification,
		ContentHash:         hash,
		Payload:             payload,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// Result decodes the stored assessment.
func (r *Record) Result() (*assessment.Result, error) {
	var res assessment.Result
	if err := json.Unmarshal(r.Payload, &res); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return &res, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
