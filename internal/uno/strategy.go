// internal/uno/strategy.go
package uno

import (
	"math/rand"

	"github.com/unohall/server/internal/models"
)

// Strategy computes plays for automated participants. It is a pure decision
// function over the table view plus the player's hand; the only state is
// the injected random source.
//
// Policy notes: the strategy always accepts penalties and never initiates a
// challenge. When challenged over a draw-four it adjudicates honestly from
// its own hand.
type Strategy struct {
	rng *rand.Rand
}

// NewStrategy builds a strategy around rng.
func NewStrategy(rng *rand.Rand) *Strategy {
	return &Strategy{rng: rng}
}

// Think chooses the play set for the given table view. hand already
// includes any penalty cards drawn this turn.
func (s *Strategy) Think(action Action, color models.Color, symbol models.Symbol, d2, d4 bool, hand []models.Card) []models.Play {
	switch action {
	case ActionTakePenalty, ActionReturnPenalty:
		return []models.Play{models.PlaySignal(models.SignalPenaltyResolved)}
	case ActionSkipped:
		return []models.Play{models.PlaySignal(models.SignalSkipped)}
	case ActionCallColor:
		return []models.Play{models.PlayColorPicked(s.callColor())}
	case ActionChallenge:
		// We are the challenged draw-four player: the challenge succeeds
		// when our hand still holds a card matching the pre-draw-four color.
		for _, c := range hand {
			if c.Color == color {
				return []models.Play{models.PlaySignal(models.SignalChallengeSucceeded)}
			}
		}
		return []models.Play{models.PlaySignal(models.SignalChallengeFailed)}
	default:
		return s.normalPlay(color, symbol, d2, d4, hand)
	}
}

func (s *Strategy) normalPlay(color models.Color, symbol models.Symbol, d2, d4 bool, hand []models.Card) []models.Play {
	// Holding a single action card, pass rather than end the round on it.
	if len(hand) == 1 && hand[0].IsAction() {
		return []models.Play{models.PlaySignal(models.SignalPass)}
	}

	var legal []models.Card
	for _, c := range hand {
		if c.Legal(color, symbol, d2, d4) {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		return []models.Play{models.PlaySignal(models.SignalPass)}
	}
	return []models.Play{models.PlayCard(legal[s.rng.Intn(len(legal))])}
}

func (s *Strategy) callColor() models.Color {
	return models.Colors[s.rng.Intn(len(models.Colors))]
}
