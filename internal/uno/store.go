// internal/uno/store.go
package uno

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/unohall/server/internal/models"
)

// ErrSessionNotFound is returned for lookups on rooms with no session.
var ErrSessionNotFound = errors.New("uno: session not found for room")

// ResultRecorder persists a finished match's ledger. The zero behavior
// (nil recorder) is to keep results in memory only.
type ResultRecorder interface {
	RecordMatch(ctx context.Context, roomID string, status Status) error
}

// Store is the process-wide session registry keyed by room id. It is the
// only structure shared across sessions and is safe for concurrent use;
// each session itself runs single-threaded.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	logger   *logrus.Logger
	recorder ResultRecorder
}

// NewStore builds an empty registry.
func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// SetResultRecorder wires match-result persistence. Call before Run.
func (st *Store) SetResultRecorder(r ResultRecorder) {
	st.recorder = r
}

// Prepare creates (or replaces) the room's session with a fresh match
// status. No round starts yet; configuration errors are reported
// synchronously and leave no session behind.
func (st *Store) Prepare(roomID string, opts Options) error {
	status, err := NewStatus(opts.Mode, opts.MaxRounds, opts.MaxScore)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if old, ok := st.sessions[roomID]; ok {
		old.destroy()
	}
	st.sessions[roomID] = newSession(roomID, opts, status, st.logger)
	return nil
}

// Destroy removes the room's session, cancelling its loop and releasing any
// suspended decision. Destroying an absent room is a no-op.
func (st *Store) Destroy(roomID string) {
	st.mu.Lock()
	sess, ok := st.sessions[roomID]
	delete(st.sessions, roomID)
	st.mu.Unlock()
	if ok {
		sess.destroy()
	}
}

// GetStatus returns a read-only snapshot of the room's match status.
func (st *Store) GetStatus(roomID string) (Status, error) {
	sess, err := st.get(roomID)
	if err != nil {
		return Status{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.Status.Snapshot(), nil
}

// Run starts the room's match loop with the given participants and returns
// its ordered report stream. When the match completes normally the settled
// ledger is handed to the result recorder.
func (st *Store) Run(ctx context.Context, roomID string, players []*models.Player) (<-chan Report, error) {
	sess, err := st.get(roomID)
	if err != nil {
		return nil, err
	}
	reports, err := sess.Run(ctx, players)
	if err != nil {
		return nil, err
	}
	if st.recorder == nil {
		return reports, nil
	}

	// Relay the stream so persistence happens after the last report is
	// consumed, without the caller seeing a different channel contract.
	out := make(chan Report)
	go func() {
		defer close(out)
		finished := false
		for r := range reports {
			if r.Type == ReportRoundEnded {
				finished = true
			}
			if r.Type == ReportRoundAborted {
				finished = false
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
		if finished && sess.Status.HasFinished() {
			if err := st.recorder.RecordMatch(ctx, roomID, sess.Status.Snapshot()); err != nil {
				st.logger.WithError(err).WithField("room", roomID).Error("failed to record match result")
			}
		}
	}()
	return out, nil
}

// SubmitDecision routes an externally submitted play set to the room's
// current actor.
func (st *Store) SubmitDecision(roomID string, plays []models.Play) error {
	sess, err := st.get(roomID)
	if err != nil {
		return err
	}
	return sess.SubmitDecision(plays)
}

func (st *Store) get(roomID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[roomID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
