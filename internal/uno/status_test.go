package uno

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unohall/server/internal/models"
)

func proxyWithHand(uid string, cards ...models.Card) *Proxy {
	p := NewProxy(aiPlayer(uid), testStrategy(1), 0)
	p.Draw(cards)
	return p
}

func TestNewStatusValidation(t *testing.T) {
	_, err := NewStatus("free_for_all", 0, 0)
	assert.Error(t, err)

	_, err = NewStatus(ModeScoreRace, -1, 0)
	assert.Error(t, err)

	s, err := NewStatus(ModeFixedRounds, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxRounds, s.MaxRounds)
	assert.Equal(t, defaultMaxScore, s.MaxScore)
}

func TestSingleRoundFinishesAfterOneRound(t *testing.T) {
	s, err := NewStatus(ModeSingleRound, 0, 0)
	require.NoError(t, err)

	a := proxyWithHand("a")
	b := proxyWithHand("b", models.Card{Color: models.ColorRed, Symbol: models.SymbolNine})
	s.Init([]*Proxy{a, b})

	assert.False(t, s.HasFinished())
	s.Settle(a, []*Proxy{a, b})
	assert.True(t, s.HasFinished())
	assert.Equal(t, 0, s.Scores["a"], "single-round mode keeps no score ledger")
}

func TestScoreRaceAccrual(t *testing.T) {
	s, err := NewStatus(ModeScoreRace, 0, 60)
	require.NoError(t, err)

	a := proxyWithHand("a") // winner, empty hand
	b := proxyWithHand("b",
		models.Card{Color: models.ColorRed, Symbol: models.SymbolNine},
		models.Card{Color: models.ColorBlue, Symbol: models.SymbolSkip})
	c := proxyWithHand("c", models.Card{Symbol: models.SymbolWild})
	s.Init([]*Proxy{a, b, c})

	s.Settle(a, []*Proxy{a, b, c})
	assert.Equal(t, 79, s.Scores["a"], "winner gains the other hands' weights")
	assert.Equal(t, 0, s.Scores["b"])
	assert.Equal(t, 0, s.Scores["c"])
	assert.Equal(t, 1, s.Rounds)
	assert.True(t, s.HasFinished(), "79 >= configured threshold of 60")
}

func TestScoreRaceConservation(t *testing.T) {
	s, err := NewStatus(ModeScoreRace, 0, 1000)
	require.NoError(t, err)

	a := proxyWithHand("a")
	b := proxyWithHand("b", models.Card{Color: models.ColorRed, Symbol: models.SymbolFive})
	s.Init([]*Proxy{a, b})

	total := 0
	for round := 0; round < 3; round++ {
		total += a.Score() + b.Score()
		s.Settle(a, []*Proxy{a, b})
	}
	sum := 0
	for _, score := range s.Scores {
		sum += score
	}
	assert.Equal(t, total, sum, "cumulative scores equal the sum of settled hand totals")
	assert.False(t, s.HasFinished())
}

func TestFixedRoundsAccrual(t *testing.T) {
	s, err := NewStatus(ModeFixedRounds, 2, 0)
	require.NoError(t, err)

	a := proxyWithHand("a")
	b := proxyWithHand("b", models.Card{Color: models.ColorRed, Symbol: models.SymbolNine})
	s.Init([]*Proxy{a, b})

	s.Settle(a, []*Proxy{a, b})
	assert.False(t, s.HasFinished())
	assert.Equal(t, 0, s.Scores["a"], "everyone accrues their own remaining weight")
	assert.Equal(t, 9, s.Scores["b"])

	s.Settle(b, []*Proxy{a, b})
	assert.True(t, s.HasFinished())
	assert.Equal(t, 18, s.Scores["b"])
}

func TestStatusSnapshotIsACopy(t *testing.T) {
	s, err := NewStatus(ModeScoreRace, 0, 0)
	require.NoError(t, err)
	a := proxyWithHand("a")
	s.Init([]*Proxy{a})

	snap := s.Snapshot()
	snap.Scores["a"] = 999
	assert.Equal(t, 0, s.Scores["a"])
}
