package uno

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unohall/server/internal/models"
)

func testStrategy(seed int64) *Strategy {
	return NewStrategy(rand.New(rand.NewSource(seed)))
}

func TestStrategyAcceptsPenalties(t *testing.T) {
	s := testStrategy(1)
	hand := []models.Card{{Color: models.ColorRed, Symbol: models.SymbolFive}}

	plays := s.Think(ActionTakePenalty, models.ColorRed, models.SymbolFive, false, false, hand)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalPenaltyResolved, plays[0].Signal)

	plays = s.Think(ActionReturnPenalty, models.ColorRed, models.SymbolFive, false, false, hand)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalPenaltyResolved, plays[0].Signal)
}

func TestStrategyAcknowledgesSkip(t *testing.T) {
	s := testStrategy(1)
	plays := s.Think(ActionSkipped, models.ColorRed, models.SymbolSkip, false, false, nil)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalSkipped, plays[0].Signal)
}

func TestStrategyCallsRealColor(t *testing.T) {
	s := testStrategy(1)
	for i := 0; i < 20; i++ {
		plays := s.Think(ActionCallColor, models.ColorNone, models.SymbolWild, false, false, nil)
		require.Len(t, plays, 1)
		assert.Equal(t, models.SignalColorPicked, plays[0].Signal)
		assert.Contains(t, models.Colors, plays[0].Color)
	}
}

func TestStrategyAdjudicatesChallengeHonestly(t *testing.T) {
	s := testStrategy(1)

	// Holding a card of the pre-draw-four color means the draw-four was
	// illegal; the challenge succeeds.
	guilty := []models.Card{{Color: models.ColorRed, Symbol: models.SymbolThree}}
	plays := s.Think(ActionChallenge, models.ColorRed, models.SymbolNine, false, true, guilty)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalChallengeSucceeded, plays[0].Signal)

	innocent := []models.Card{{Color: models.ColorBlue, Symbol: models.SymbolThree}}
	plays = s.Think(ActionChallenge, models.ColorRed, models.SymbolNine, false, true, innocent)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalChallengeFailed, plays[0].Signal)
}

func TestStrategyPassesOnLastActionCard(t *testing.T) {
	s := testStrategy(1)
	hand := []models.Card{{Color: models.ColorRed, Symbol: models.SymbolSkip}}

	plays := s.Think(ActionContinue, models.ColorRed, models.SymbolFive, false, false, hand)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalPass, plays[0].Signal)
}

func TestStrategyPlaysOnlyLegalCards(t *testing.T) {
	s := testStrategy(3)
	hand := []models.Card{
		{Color: models.ColorBlue, Symbol: models.SymbolThree},
		{Color: models.ColorRed, Symbol: models.SymbolSeven},
		{Color: models.ColorGreen, Symbol: models.SymbolNine},
	}

	for i := 0; i < 20; i++ {
		plays := s.Think(ActionContinue, models.ColorRed, models.SymbolNine, false, false, hand)
		require.Len(t, plays, 1)
		require.True(t, plays[0].IsPhysical())
		assert.True(t, plays[0].Card.Legal(models.ColorRed, models.SymbolNine, false, false))
	}
}

func TestStrategyPassesWithoutLegalCards(t *testing.T) {
	s := testStrategy(1)
	hand := []models.Card{
		{Color: models.ColorBlue, Symbol: models.SymbolThree},
		{Color: models.ColorGreen, Symbol: models.SymbolFour},
	}

	plays := s.Think(ActionContinue, models.ColorRed, models.SymbolNine, false, false, hand)
	require.Len(t, plays, 1)
	assert.Equal(t, models.SignalPass, plays[0].Signal)
}

func TestStrategyRespectsPendingPenaltyStacking(t *testing.T) {
	s := testStrategy(5)
	hand := []models.Card{
		{Color: models.ColorRed, Symbol: models.SymbolFive},
		{Color: models.ColorRed, Symbol: models.SymbolDrawTwo},
		{Color: models.ColorNone, Symbol: models.SymbolWild},
	}

	for i := 0; i < 20; i++ {
		plays := s.Think(ActionContinue, models.ColorRed, models.SymbolDrawTwo, true, false, hand)
		require.Len(t, plays, 1)
		require.True(t, plays[0].IsPhysical())
		assert.Equal(t, models.SymbolDrawTwo, plays[0].Card.Symbol, "only a stacking card answers a pending penalty")
	}
}
