// Package events defines the lifecycle event contract consumed by the
// notification fanout. The core emits at-least-once after a successful
// transition; delivery and retry belong to the fanout, not here.
package events

import (
	"context"
	"sync"
)

// Type identifies a lifecycle event
type Type string

const (
	RequestAccepted  Type = "request.accepted"
	RequestExpired   Type = "request.expired"
	RequestCancelled Type = "request.cancelled"
	SessionStarted   Type = "session.started"
	SessionEnded     Type = "session.ended"
	SessionCancelled Type = "session.cancelled"
)

// Event is the envelope broadcast to connected clients
type Event struct {
	Type      Type           `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Emitter publishes lifecycle events. Implementations must not fail the
// transition that produced the event; emit problems are logged, not returned.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// Nop discards all events. Used when no broker is configured.
type Nop struct{}

// Emit implements Emitter.
func (Nop) Emit(ctx context.Context, ev Event) {}

// Recorder captures emitted events for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Emitter.
func (r *Recorder) Emit(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a snapshot of everything emitted so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events with the given type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
