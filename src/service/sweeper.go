package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"session-service/src/events"
	"session-service/src/fsm"
	"session-service/src/models"
	"session-service/src/store"
)

// SweepSummary reports what one sweep changed (or, for a preview, would
// change). Per-item failures land in Errors; they never abort the sweep.
type SweepSummary struct {
	ExpiredRequests    int      `json:"expiredRequests"`
	EndedSessions      int      `json:"endedSessions"`
	OldWaitingSessions int      `json:"oldWaitingSessions"`
	OrphanedSessions   int      `json:"orphanedSessions"`
	TotalCleaned       int      `json:"totalCleaned"`
	Errors             []string `json:"errors,omitempty"`
}

// Sweeper drives stale requests and sessions to terminal states without
// relying on any client being online. All writes are guarded on the expected
// prior status, so racing with the arbiter (or with a second sweeper) is
// safe: whoever loses the guard simply skips the item.
type Sweeper struct {
	requests store.RequestStore
	sessions store.SessionStore
	emitter  events.Emitter
	now      func() time.Time
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(requests store.RequestStore, sessions store.SessionStore, emitter events.Emitter) *Sweeper {
	return &Sweeper{
		requests: requests,
		sessions: sessions,
		emitter:  emitter,
		now:      time.Now,
	}
}

// RunPeriodic runs Sweep on a fixed interval until stop is closed. Sweep
// failures are logged and the ticker keeps going; the store being down for
// one tick must not kill the sweeper for good.
func (s *Sweeper) RunPeriodic(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Expiry sweeper started", "interval", interval.String())

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(context.Background()); err != nil {
				slog.Error("Sweep failed", "error", err)
			}
		case <-stop:
			slog.Info("Expiry sweeper stopped")
			return
		}
	}
}

// Sweep runs one pass. Only total store unavailability fails the sweep;
// individual item failures are collected in the summary.
func (s *Sweeper) Sweep(ctx context.Context) (SweepSummary, error) {
	return s.run(ctx, false)
}

// Preview reports what Sweep would do right now without mutating anything.
func (s *Sweeper) Preview(ctx context.Context) (SweepSummary, error) {
	return s.run(ctx, true)
}

func (s *Sweeper) run(ctx context.Context, dryRun bool) (SweepSummary, error) {
	var summary SweepSummary
	now := s.now()

	expired, err := s.requests.ExpiredPending(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("sweep failed to list expired requests: %w", err)
	}

	for _, req := range expired {
		if dryRun {
			summary.ExpiredRequests++
			continue
		}
		// Guarded on the request still being pending: if a mechanic accepted
		// at the same instant, the guard fails and that is not an error.
		ok, err := s.requests.Transition(ctx, req.ID, models.RequestPending, models.RequestExpired)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("expire request %s: %v", req.ID, err))
			continue
		}
		if !ok {
			continue
		}
		summary.ExpiredRequests++
		s.emitter.Emit(ctx, events.Event{
			Type:      events.RequestExpired,
			RequestID: req.ID,
			Payload:   map[string]any{"customer_id": req.CustomerID},
		})
	}

	sessions, err := s.sessions.ListNonTerminal(ctx)
	if err != nil {
		return summary, fmt.Errorf("sweep failed to list sessions: %w", err)
	}

	for _, session := range sessions {
		if orphaned, err := s.reconcileOrphan(ctx, &session, now, dryRun); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("reconcile session %s: %v", session.ID, err))
			continue
		} else if orphaned {
			summary.OrphanedSessions++
			continue
		}

		if session.Deadline().After(now) {
			continue
		}

		target := overdueTarget(session.Status)
		if dryRun {
			s.countOverdue(&summary, target)
			continue
		}

		ok, err := s.sessions.Transition(ctx, session.ID, session.Status, target, now)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("terminalize session %s: %v", session.ID, err))
			continue
		}
		if !ok {
			continue
		}
		s.countOverdue(&summary, target)
		s.emitOverdue(ctx, session.ID, session.Status, target)
	}

	summary.TotalCleaned = summary.ExpiredRequests + summary.EndedSessions +
		summary.OldWaitingSessions + summary.OrphanedSessions

	if !dryRun {
		slog.Info("Sweep complete",
			"expired_requests", summary.ExpiredRequests,
			"ended_sessions", summary.EndedSessions,
			"old_waiting_sessions", summary.OldWaitingSessions,
			"orphaned_sessions", summary.OrphanedSessions,
			"errors", len(summary.Errors))
	}

	return summary, nil
}

// overdueTarget picks the terminal status the state machine allows for an
// overdue session: live work completed its duration, waiting work expired,
// pending and accepted work that never started is cancelled.
func overdueTarget(status models.SessionStatus) models.SessionStatus {
	switch status {
	case models.SessionLive:
		return models.SessionCompleted
	case models.SessionWaiting:
		return models.SessionExpired
	default:
		return models.SessionCancelled
	}
}

func (s *Sweeper) countOverdue(summary *SweepSummary, target models.SessionStatus) {
	if target == models.SessionCompleted {
		summary.EndedSessions++
	} else {
		summary.OldWaitingSessions++
	}
}

func (s *Sweeper) emitOverdue(ctx context.Context, sessionID string, from, to models.SessionStatus) {
	ev := events.Event{SessionID: sessionID}
	switch to {
	case models.SessionCompleted:
		ev.Type = events.SessionEnded
		ev.Payload = map[string]any{"reason": "duration_elapsed"}
	case models.SessionExpired:
		ev.Type = events.SessionEnded
		ev.Payload = map[string]any{"reason": "expired", "previous_status": from}
	default:
		ev.Type = events.SessionCancelled
		ev.Payload = map[string]any{"reason": "stale", "previous_status": from}
	}
	s.emitter.Emit(ctx, ev)
}

// reconcileOrphan cancels a request-originated session whose request is no
// longer accepted, once it is old enough that the normal flow cannot explain
// the mismatch. Orphans are a defect, not a normal outcome.
func (s *Sweeper) reconcileOrphan(ctx context.Context, session *models.Session, now time.Time, dryRun bool) (bool, error) {
	if session.RequestID == nil {
		return false, nil
	}
	if now.Sub(session.CreatedAt) < models.OrphanStaleAfter {
		return false, nil
	}

	req, err := s.requests.Get(ctx, *session.RequestID)
	if err != nil {
		return false, err
	}
	if req.Status == models.RequestAccepted {
		return false, nil
	}
	if !fsm.CanSession(session.Status, models.SessionCancelled) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}

	ok, err := s.sessions.Transition(ctx, session.ID, session.Status, models.SessionCancelled, now)
	if err != nil || !ok {
		return false, err
	}

	slog.Warn("Cancelled orphaned session",
		"session_id", session.ID,
		"request_id", *session.RequestID,
		"request_status", req.Status)

	s.emitter.Emit(ctx, events.Event{
		Type:      events.SessionCancelled,
		SessionID: session.ID,
		Payload:   map[string]any{"reason": "orphaned"},
	})
	return true, nil
}
