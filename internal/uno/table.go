// internal/uno/table.go
package uno

import "github.com/unohall/server/internal/models"

// Action is the table's pending-action state: what the player under the
// pointer must respond to next.
type Action string

const (
	// ActionContinue expects a normal response to the active color/symbol.
	ActionContinue Action = "continue"
	// ActionCallColor expects a ColorPicked signal from the acting player.
	ActionCallColor Action = "call_color"
	// ActionReturnPenalty lets the player under penalty chain a stacking
	// card instead of drawing.
	ActionReturnPenalty Action = "return_penalty"
	// ActionTakePenalty means the current player must draw the accumulated
	// penalty count before acting.
	ActionTakePenalty Action = "take_penalty"
	// ActionChallenge means a draw-four has been disputed and the original
	// play's legality must be adjudicated.
	ActionChallenge Action = "challenge"
	// ActionSkipped relays an applied skip for reporting before the machine
	// resumes ActionContinue.
	ActionSkipped Action = "skipped"
)

// Table is the per-round rules state machine. One instance drives exactly
// one round and is discarded with it. It owns the round's deck; Call is the
// single transition entry point for both physical plays and control
// signals.
//
// Table is not safe for concurrent use; the session serializes access.
type Table struct {
	Deck        *Deck
	PlayerCount int

	Color  models.Color
	Symbol models.Symbol
	Action Action
	D2     bool
	D4     bool

	LastPlays []models.Play
	Turns     int
	Pointer   int
	Penalty   int
	Direction int

	// WildDrawFourCallsColor makes a DrawFour enter CallColor like Wild
	// does, instead of the historical Continue transition.
	WildDrawFourCallsColor bool

	d4CallerPtr int
}

// NewTable builds a round state machine for playerCount seats over deck.
func NewTable(playerCount int, deck *Deck) *Table {
	return &Table{
		Deck:        deck,
		PlayerCount: playerCount,
		Color:       models.ColorNone,
		Symbol:      models.SymbolNone,
		Action:      ActionContinue,
		Turns:       -1,
		Penalty:     1,
		Direction:   1,
	}
}

// Pick draws n cards from the round's deck.
func (t *Table) Pick(n int) []models.Card {
	return t.Deck.Pick(n)
}

// Call advances the machine with a play set. Only the head play drives the
// transition; trailing plays are extras discarded alongside it.
func (t *Table) Call(plays []models.Play) {
	t.push(plays[0])
	t.Deck.Toss(plays)
	t.LastPlays = plays
	t.Turns++
}

func (t *Table) push(play models.Play) {
	if !play.IsPhysical() {
		t.pushSignal(play)
		return
	}
	card := *play.Card
	switch card.Symbol {
	case models.SymbolReverse:
		t.Action = ActionContinue
		t.Color, t.Symbol = card.Color, card.Symbol
		t.Direction *= -1
		t.Pointer = t.move(1)
	case models.SymbolSkip:
		t.Action = ActionSkipped
		t.Color, t.Symbol = card.Color, card.Symbol
		t.Pointer = t.move(1)
	case models.SymbolDrawTwo:
		t.Action = ActionContinue
		t.Color, t.Symbol = card.Color, card.Symbol
		t.D2, t.D4 = true, false
		t.addPenalty(2)
		t.Pointer = t.move(1)
	case models.SymbolWild:
		t.Action = ActionCallColor
	case models.SymbolWildDrawFour:
		t.Symbol = card.Symbol
		t.D2, t.D4 = false, true
		t.addPenalty(4)
		t.d4CallerPtr = t.Pointer
		if t.WildDrawFourCallsColor {
			t.Action = ActionCallColor
		} else {
			t.Action = ActionContinue
			t.Pointer = t.move(1)
		}
	default: // number card
		t.Action = ActionContinue
		t.Color, t.Symbol = card.Color, card.Symbol
		t.D2, t.D4 = false, false
		t.Pointer = t.move(1)
	}
}

func (t *Table) pushSignal(play models.Play) {
	switch play.Signal {
	case models.SignalReturnPenalty:
		t.Action = ActionReturnPenalty
		t.clearPenalty()
	case models.SignalPenaltyResolved:
		if t.D4 {
			t.Action = ActionCallColor
			t.Pointer = t.d4CallerPtr
		} else {
			t.Action = ActionContinue
			t.Pointer = t.move(1)
		}
		t.D2 = false
		t.clearPenalty()
	case models.SignalPass:
		t.Action = ActionTakePenalty
	case models.SignalSkipped:
		t.Action = ActionContinue
		t.Pointer = t.move(1)
	case models.SignalColorPicked:
		t.Action = ActionContinue
		t.Pointer = t.move(1)
		// The pointer must advance before the draw-four flag clears so the
		// responding player keeps their challenge window.
		t.Color = play.Color
		t.D4 = false
	case models.SignalChallenge:
		t.Action = ActionChallenge
		t.Pointer = t.move(-1)
	case models.SignalChallengeSucceeded:
		t.Action = ActionTakePenalty
	case models.SignalChallengeFailed:
		t.Action = ActionTakePenalty
		t.addPenalty(2)
		t.Pointer = t.move(1)
	default:
		t.Action = ActionContinue
		t.Pointer = t.move(1)
	}
}

// addPenalty accumulates a penalty draw. A counter at its baseline of 1 is
// not a real pending draw, so the first penalty replaces it; later
// penalties stack additively.
func (t *Table) addPenalty(n int) {
	if t.Penalty == 1 {
		t.Penalty = n
	} else {
		t.Penalty += n
	}
}

// clearPenalty resets the counter to its baseline: one card drawn when the
// player has nothing to play outside any penalty chain.
func (t *Table) clearPenalty() {
	t.Penalty = 1
}

func (t *Table) move(step int) int {
	return (t.Pointer + t.Direction*step + t.PlayerCount) % t.PlayerCount
}
