// internal/uno/session.go
package uno

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unohall/server/internal/models"
)

// MaxTurns is the per-round safety bound. Reaching it means the round is
// not converging; the session aborts it and raises an operational alert
// instead of settling bogus scores.
const MaxTurns = 1000

var (
	// ErrNoActiveRound means a decision was submitted while no round (or no
	// suspended decision) exists for the room.
	ErrNoActiveRound = errors.New("uno: no active round for room")
	// ErrNotHumanTurn means the current actor is automated or the
	// submitting participant is out of turn.
	ErrNotHumanTurn = errors.New("uno: current actor does not accept external decisions")
	// ErrIllegalPlay rejects a submission that violates the table state.
	// The actor keeps the turn and should be re-prompted.
	ErrIllegalPlay = errors.New("uno: illegal play")
	// ErrSessionRunning rejects a second Run on the same session.
	ErrSessionRunning = errors.New("uno: session already running")
	// ErrNotEnoughPlayers rejects a Run with fewer than two participants.
	ErrNotEnoughPlayers = errors.New("uno: at least two participants required")
)

// Options configures a session at prepare time.
type Options struct {
	Mode      Mode
	MaxRounds int
	MaxScore  int

	// WildDrawFourCallsColor switches the draw-four transition to enter
	// CallColor like Wild, instead of the historical Continue behavior.
	WildDrawFourCallsColor bool

	// DecisionTimeout bounds each human decision; on expiry the automated
	// strategy answers in the player's stead. Zero disables the timer.
	DecisionTimeout time.Duration

	// Seed pins the session's random source for reproducible shuffles and
	// automated play. Zero selects a time-based seed.
	Seed int64
}

// Session drives one room's match: a fresh Table per round, the proxy ring,
// and the cross-round Status ledger. Reports flow to the consumer through
// an unbuffered channel so exactly one report is in flight at a time.
type Session struct {
	RoomID string
	Status *Status

	opts   Options
	logger logrus.FieldLogger

	mu      sync.Mutex
	table   *Table
	proxies []*Proxy
	rng     *rand.Rand
	cancel  context.CancelFunc
	running bool
}

func newSession(roomID string, opts Options, status *Status, logger logrus.FieldLogger) *Session {
	return &Session{
		RoomID: roomID,
		Status: status,
		opts:   opts,
		logger: logger.WithField("room", roomID),
	}
}

// Run attaches the participants and starts the match loop. The returned
// channel yields ordered reports and closes when the match finishes, the
// context is cancelled, or the session is destroyed.
func (s *Session) Run(ctx context.Context, players []*models.Player) (<-chan Report, error) {
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSessionRunning
	}
	s.running = true

	seed := s.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))
	strategy := NewStrategy(s.rng)

	s.proxies = make([]*Proxy, len(players))
	for i, player := range players {
		s.proxies[i] = NewProxy(player, strategy, s.opts.DecisionTimeout)
	}
	s.Status.Init(s.proxies)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	reports := make(chan Report)
	go s.run(ctx, reports)
	return reports, nil
}

// run is the match loop: rounds until the status predicate holds.
func (s *Session) run(ctx context.Context, reports chan<- Report) {
	defer close(reports)

	if !s.send(ctx, reports, Report{Type: ReportReady}) {
		return
	}

	for !s.Status.HasFinished() {
		s.logger.WithFields(logrus.Fields{
			"round":  s.Status.Rounds,
			"scores": s.Status.Scores,
		}).Info("round starting")

		if ok := s.runRound(ctx, reports); !ok {
			return
		}

		s.mu.Lock()
		winner := s.proxies[s.table.Pointer]
		s.Status.Settle(winner, s.proxies)
		status := s.Status.Snapshot()
		s.table = nil
		s.mu.Unlock()

		s.logger.WithFields(logrus.Fields{
			"round":  status.Rounds,
			"winner": winner.Player.UID,
			"scores": status.Scores,
		}).Info("round settled")

		if !s.send(ctx, reports, Report{Type: ReportRoundEnded, Status: &status}) {
			return
		}
	}
}

// runRound plays a single round to completion. It reports false when the
// session must stop (cancellation or a runaway round).
func (s *Session) runRound(ctx context.Context, reports chan<- Report) bool {
	s.mu.Lock()
	table := NewTable(len(s.proxies), NewDeck(s.rng))
	table.WildDrawFourCallsColor = s.opts.WildDrawFourCallsColor
	s.table = table

	hands := make([]PlayerHand, len(s.proxies))
	for i, p := range s.proxies {
		p.Reset()
		p.Draw(table.Pick(7))
		hands[i] = PlayerHand{UID: p.Player.UID, SocketID: p.Player.SocketID, Cards: p.Hand()}
	}
	s.mu.Unlock()

	if !s.send(ctx, reports, Report{Type: ReportInitialHands, Hands: hands}) {
		return false
	}

	// Reveal the opening card through the regular transition entry point.
	s.mu.Lock()
	table.Call([]models.Play{models.PlayCard(table.Pick(1)[0])})
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if table.Turns >= MaxTurns {
			s.mu.Unlock()
			s.logger.WithField("turns", table.Turns).Error("round exceeded turn safety bound, aborting")
			s.send(ctx, reports, Report{Type: ReportRoundAborted})
			return false
		}

		var penalties []models.Card
		if table.Action == ActionTakePenalty {
			penalties = table.Pick(table.Penalty)
		}
		cur := s.proxies[table.Pointer]
		action, color, symbol := table.Action, table.Color, table.Symbol
		d2, d4 := table.D2, table.D4
		snapshot := s.snapshotLocked()
		s.mu.Unlock()

		if len(penalties) > 0 {
			if !s.send(ctx, reports, Report{
				Type:  ReportPenaltyDealt,
				Hands: []PlayerHand{{UID: cur.Player.UID, SocketID: cur.Player.SocketID, Cards: penalties}},
			}) {
				return false
			}
		}
		if !s.send(ctx, reports, Report{Type: ReportStateUpdate, Snapshot: &snapshot}) {
			return false
		}

		plays, err := cur.Think(ctx, action, color, symbol, d2, d4, penalties)
		if err != nil {
			s.logger.WithError(err).Info("session loop stopping")
			return false
		}

		// The round ends the moment the acting player's own hand empties;
		// the winning play never re-enters the machine.
		if cur.Remains() == 0 {
			return true
		}

		s.mu.Lock()
		table.Call(plays)
		s.mu.Unlock()
	}
}

// send delivers one report, honoring cancellation. Reports are unbuffered:
// the loop blocks here until the consumer has taken the previous one.
func (s *Session) send(ctx context.Context, reports chan<- Report, r Report) bool {
	select {
	case reports <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// snapshotLocked builds the public table view. Caller holds s.mu.
func (s *Session) snapshotLocked() Snapshot {
	t := s.table
	snap := Snapshot{
		Color:     t.Color,
		Symbol:    t.Symbol,
		D2:        t.D2,
		D4:        t.D4,
		LastPlays: t.LastPlays,
		Pointer:   t.Pointer,
		Penalty:   t.Penalty,
		Action:    t.Action,
		Turns:     t.Turns,
		Direction: t.Direction,
		Players:   make([]PlayerSnapshot, len(s.proxies)),
	}
	for i, p := range s.proxies {
		snap.Players[i] = PlayerSnapshot{
			Name:     p.Player.Name,
			Avatar:   p.Player.Avatar,
			LastPlay: p.LastPlay,
			Remains:  p.Remains(),
			Score:    p.Score(),
		}
	}
	return snap
}

// SubmitDecision resolves the current actor's suspended decision with an
// externally submitted play set. Submissions for automated actors, with no
// pending decision, or that are illegal against the table are rejected
// without mutating state.
func (s *Session) SubmitDecision(plays []models.Play) error {
	s.mu.Lock()
	table := s.table
	if table == nil {
		s.mu.Unlock()
		return ErrNoActiveRound
	}
	cur := s.proxies[table.Pointer]
	if cur.Player.IsAI() {
		s.mu.Unlock()
		return ErrNotHumanTurn
	}
	if err := validatePlays(table, cur, plays); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return cur.Deal(plays)
}

// destroy cancels the match loop and any suspended decision.
func (s *Session) destroy() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// validatePlays checks a submitted play set against the pending action.
func validatePlays(t *Table, cur *Proxy, plays []models.Play) error {
	if len(plays) == 0 {
		return fmt.Errorf("%w: empty play set", ErrIllegalPlay)
	}
	head := plays[0]

	switch t.Action {
	case ActionCallColor:
		if head.Signal != models.SignalColorPicked || head.Color == models.ColorNone {
			return fmt.Errorf("%w: color call expected", ErrIllegalPlay)
		}
		return nil
	case ActionTakePenalty:
		if head.Signal == models.SignalPenaltyResolved || head.Signal == models.SignalReturnPenalty {
			return nil
		}
		return fmt.Errorf("%w: penalty must be resolved or returned", ErrIllegalPlay)
	case ActionChallenge:
		if head.Signal == models.SignalChallengeSucceeded || head.Signal == models.SignalChallengeFailed {
			return nil
		}
		return fmt.Errorf("%w: challenge outcome expected", ErrIllegalPlay)
	case ActionSkipped:
		if head.Signal != models.SignalSkipped {
			return fmt.Errorf("%w: skip acknowledgement expected", ErrIllegalPlay)
		}
		return nil
	}

	// Continue / ReturnPenalty: a pass, a challenge against a pending
	// draw-four, or a legal card from the player's own hand.
	if !head.IsPhysical() {
		switch head.Signal {
		case models.SignalPass:
			return nil
		case models.SignalChallenge:
			if t.D4 {
				return nil
			}
			return fmt.Errorf("%w: no draw-four to challenge", ErrIllegalPlay)
		default:
			return fmt.Errorf("%w: unexpected signal %s", ErrIllegalPlay, head.Signal)
		}
	}

	held := false
	for _, c := range cur.Hand() {
		if c == *head.Card {
			held = true
			break
		}
	}
	if !held {
		return fmt.Errorf("%w: card not in hand", ErrIllegalPlay)
	}
	if !head.Card.Legal(t.Color, t.Symbol, t.D2, t.D4) {
		return fmt.Errorf("%w: card does not match table", ErrIllegalPlay)
	}
	return nil
}
