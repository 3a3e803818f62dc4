package uno

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unohall/server/internal/models"
)

func testStore() *Store {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewStore(logger)
}

// recordingSink collects match results in memory.
type recordingSink struct {
	mu      sync.Mutex
	results map[string]Status
}

func (r *recordingSink) RecordMatch(_ context.Context, roomID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string]Status)
	}
	r.results[roomID] = status
	return nil
}

func drain(t *testing.T, reports <-chan Report) []Report {
	t.Helper()
	var out []Report
	timeout := time.After(10 * time.Second)
	for {
		select {
		case r, ok := <-reports:
			if !ok {
				return out
			}
			out = append(out, r)
		case <-timeout:
			t.Fatalf("timed out draining reports after %d reports", len(out))
		}
	}
}

func TestStoreLookupErrors(t *testing.T) {
	st := testStore()

	_, err := st.GetStatus("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = st.SubmitDecision("missing", signal(models.SignalPass))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = st.Run(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	st.Destroy("missing") // no-op
}

func TestPrepareRejectsBadConfiguration(t *testing.T) {
	st := testStore()
	err := st.Prepare("room", Options{Mode: "unknown"})
	require.Error(t, err)

	_, err = st.GetStatus("room")
	assert.ErrorIs(t, err, ErrSessionNotFound, "failed prepare leaves no session behind")
}

func TestSubmitBeforeRoundStarts(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeSingleRound}))

	err := st.SubmitDecision("room", signal(models.SignalPass))
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestAutomatedSingleRoundMatch(t *testing.T) {
	st := testStore()
	sink := &recordingSink{}
	st.SetResultRecorder(sink)
	require.NoError(t, st.Prepare("room", Options{Mode: ModeSingleRound, Seed: 11}))

	players := []*models.Player{
		aiPlayer("ai.1"), aiPlayer("ai.2"), aiPlayer("ai.3"), aiPlayer("ai.4"),
	}
	reports, err := st.Run(context.Background(), "room", players)
	require.NoError(t, err)

	all := drain(t, reports)
	require.NotEmpty(t, all)
	assert.Equal(t, ReportReady, all[0].Type)
	assert.Equal(t, ReportInitialHands, all[1].Type)
	require.Len(t, all[1].Hands, 4)
	for _, h := range all[1].Hands {
		assert.Len(t, h.Cards, 7)
	}
	assert.Equal(t, ReportRoundEnded, all[len(all)-1].Type)

	// Every public snapshot honors the table invariants.
	updates := 0
	for _, r := range all {
		if r.Type != ReportStateUpdate {
			continue
		}
		updates++
		snap := r.Snapshot
		assert.GreaterOrEqual(t, snap.Pointer, 0)
		assert.Less(t, snap.Pointer, len(players))
		assert.Contains(t, []int{1, -1}, snap.Direction)
		assert.GreaterOrEqual(t, snap.Penalty, 1)
		require.Len(t, snap.Players, 4)
	}
	assert.Greater(t, updates, 0)

	status, err := st.GetStatus("room")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Rounds)
	assert.True(t, status.HasFinished())

	// The settled ledger reached the recorder.
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		_, ok := sink.results["room"]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestAutomatedFixedRoundsMatch(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeFixedRounds, MaxRounds: 2, Seed: 3}))

	players := []*models.Player{aiPlayer("ai.1"), aiPlayer("ai.2"), aiPlayer("ai.3")}
	reports, err := st.Run(context.Background(), "room", players)
	require.NoError(t, err)

	all := drain(t, reports)
	ended := 0
	for _, r := range all {
		if r.Type == ReportRoundEnded {
			ended++
			require.NotNil(t, r.Status)
		}
	}
	assert.Equal(t, 2, ended)

	status, err := st.GetStatus("room")
	require.NoError(t, err)
	assert.Equal(t, 2, status.Rounds)
	assert.True(t, status.HasFinished())
}

// submitUntilAccepted retries a decision until the engine has opened the
// pending slot; the report stream runs slightly ahead of the suspension.
func submitUntilAccepted(t *testing.T, st *Store, roomID string, plays []models.Play) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		err := st.SubmitDecision(roomID, plays)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrNoDecisionPending) && !errors.Is(err, ErrNotHumanTurn) {
			t.Fatalf("unexpected submit error: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatalf("decision never accepted: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHumanDecisionFlow(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeSingleRound, Seed: 29}))

	human := humanPlayer("u.1")
	players := []*models.Player{human, aiPlayer("ai.1"), aiPlayer("ai.2")}
	reports, err := st.Run(context.Background(), "room", players)
	require.NoError(t, err)

	sawHumanTurn := false
	timeout := time.After(10 * time.Second)
	for {
		var r Report
		var ok bool
		select {
		case r, ok = <-reports:
		case <-timeout:
			t.Fatal("timed out waiting for the match to finish")
		}
		if !ok {
			break
		}
		if r.Type != ReportStateUpdate || r.Snapshot.Pointer != 0 {
			continue
		}
		sawHumanTurn = true

		// The human always yields: acknowledge whatever the table demands.
		var plays []models.Play
		switch r.Snapshot.Action {
		case ActionTakePenalty, ActionReturnPenalty:
			plays = signal(models.SignalPenaltyResolved)
		case ActionCallColor:
			plays = []models.Play{models.PlayColorPicked(models.ColorRed)}
		case ActionSkipped:
			plays = signal(models.SignalSkipped)
		case ActionChallenge:
			plays = signal(models.SignalChallengeFailed)
		default:
			plays = signal(models.SignalPass)
		}
		submitUntilAccepted(t, st, "room", plays)
	}

	assert.True(t, sawHumanTurn, "the human took at least one turn")
	status, err := st.GetStatus("room")
	require.NoError(t, err)
	assert.True(t, status.HasFinished())
}

func TestSubmitIllegalPlayRejectedWithoutAdvancing(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeSingleRound, Seed: 29}))

	human := humanPlayer("u.1")
	players := []*models.Player{human, aiPlayer("ai.1"), aiPlayer("ai.2")}
	reports, err := st.Run(context.Background(), "room", players)
	require.NoError(t, err)
	defer st.Destroy("room")

	// Advance to the human's first normal turn, resolving any earlier
	// obligations (penalties, color calls) along the way.
	timeout := time.After(10 * time.Second)
	for {
		var r Report
		select {
		case r = <-reports:
		case <-timeout:
			t.Fatal("never reached the human's turn")
		}
		if r.Type != ReportStateUpdate || r.Snapshot.Pointer != 0 {
			continue
		}
		if r.Snapshot.Action == ActionContinue {
			break
		}
		switch r.Snapshot.Action {
		case ActionTakePenalty, ActionReturnPenalty:
			submitUntilAccepted(t, st, "room", signal(models.SignalPenaltyResolved))
		case ActionCallColor:
			submitUntilAccepted(t, st, "room", []models.Play{models.PlayColorPicked(models.ColorRed)})
		case ActionSkipped:
			submitUntilAccepted(t, st, "room", signal(models.SignalSkipped))
		}
	}

	// A red wild does not exist in the pile, so the player cannot hold it.
	bogus := []models.Play{models.PlayCard(models.Card{Color: models.ColorRed, Symbol: models.SymbolWild})}
	err = st.SubmitDecision("room", bogus)
	assert.ErrorIs(t, err, ErrIllegalPlay)

	// The same actor can still resolve the turn legally.
	submitUntilAccepted(t, st, "room", signal(models.SignalPass))
}

func TestDestroyReleasesSuspendedDecision(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeSingleRound, Seed: 17}))

	players := []*models.Player{humanPlayer("u.1"), humanPlayer("u.2")}
	reports, err := st.Run(context.Background(), "room", players)
	require.NoError(t, err)

	// Pull reports until the loop suspends on the first human decision.
	timeout := time.After(5 * time.Second)
	for sawUpdate := false; !sawUpdate; {
		select {
		case r := <-reports:
			sawUpdate = r.Type == ReportStateUpdate
		case <-timeout:
			t.Fatal("no state update produced")
		}
	}

	st.Destroy("room")

	// The stream must terminate without further human input.
	closed := make(chan struct{})
	go func() {
		for range reports {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("report stream did not close after destroy")
	}

	_, err = st.GetStatus("room")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRunRejectsTooFewPlayers(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeSingleRound, Seed: 3}))

	_, err := st.Run(context.Background(), "room", nil)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = st.Run(context.Background(), "room", []*models.Player{aiPlayer("ai.1")})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	// The rejected Run leaves the session startable.
	reports, err := st.Run(context.Background(), "room", []*models.Player{
		aiPlayer("ai.1"), aiPlayer("ai.2"),
	})
	require.NoError(t, err)
	drain(t, reports)
}

func TestRunTwiceRejected(t *testing.T) {
	st := testStore()
	require.NoError(t, st.Prepare("room", Options{Mode: ModeFixedRounds, Seed: 5}))

	players := []*models.Player{humanPlayer("u.1"), humanPlayer("u.2")}
	_, err := st.Run(context.Background(), "room", players)
	require.NoError(t, err)
	defer st.Destroy("room")

	_, err = st.Run(context.Background(), "room", players)
	assert.ErrorIs(t, err, ErrSessionRunning)
}
