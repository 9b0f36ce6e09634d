package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of the audit event.
type EventType string

const (
	EventAssessment    EventType = "ASSESSMENT"
	EventCertification EventType = "CERTIFICATION"
	EventAccess        EventType = "ACCESS"
	EventSystem        EventType = "SYSTEM"
)

// Event represents a structured audit record.
type Event struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	Type      EventType      `json:"type"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Logger records audit events.
type Logger interface {
	Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error
}

type actorKey struct{}

// WithActor attaches the acting principal to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx, or "system".
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "system"
}

// logger writes one "AUDIT: <json>" line per event.
type logger struct {
	mu     sync.Mutex
	writer io.Writer
	clock  func() time.Time
}

// NewLogger creates a Logger writing to os.Stderr.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stderr)
}

// NewLoggerWithWriter creates a Logger writing to w.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &logger{writer: w, clock: time.Now}
}

func (l *logger) Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error {
	event := Event{
		ID:        uuid.New().String(),
		ActorID:   ActorFrom(ctx),
		Type:      eventType,
		Action:    action,
		Resource:  resource,
		Timestamp: l.clock().UTC(),
		Metadata:  metadata,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.writer.Write(append(append([]byte("AUDIT: "), data...), '\n'))
	return err
}

// Nop discards every event.
type Nop struct{}

// Record implements Logger.
func (Nop) Record(context.Context, EventType, string, string, map[string]any) error { return nil }
