// internal/uno/deck.go
package uno

import (
	"fmt"
	"math/rand"

	"github.com/unohall/server/internal/models"
)

// Deck owns a round's draw pile and discard pile. Both hold physical cards
// only; control signals passed to Toss never enter the discard pile.
//
// The random source is injected so tests can pin the shuffle order. Deck is
// not safe for concurrent use; a round drives it from a single goroutine.
type Deck struct {
	draw     []models.Card
	discards []models.Card
	rng      *rand.Rand
}

// NewDeck builds a freshly shuffled canonical pile.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.draw = d.shuffle(models.NewPile())
	return d
}

// DrawRemains returns the number of cards left in the draw pile.
func (d *Deck) DrawRemains() int { return len(d.draw) }

// DiscardRemains returns the number of cards in the discard pile.
func (d *Deck) DiscardRemains() int { return len(d.discards) }

// Pick removes and returns n cards from the top of the draw pile. When the
// draw pile runs short the discard pile is shuffled in first. Running out
// of cards entirely cannot happen with the canonical pile size relative to
// hand and penalty sizes, so it is treated as a programming error.
func (d *Deck) Pick(n int) []models.Card {
	if len(d.draw) < n {
		d.draw = d.shuffle(append(d.draw, d.discards...))
		d.discards = nil
	}
	if len(d.draw) < n {
		panic(fmt.Sprintf("uno: deck exhausted picking %d of %d", n, len(d.draw)))
	}
	picked := make([]models.Card, n)
	copy(picked, d.draw[:n])
	d.draw = d.draw[n:]
	return picked
}

// Toss appends the physical cards of a play set to the discard pile. A set
// headed by a control signal is ignored wholesale; the state machine never
// mixes a signal head with physical extras.
func (d *Deck) Toss(plays []models.Play) {
	if len(plays) == 0 || !plays[0].IsPhysical() {
		return
	}
	for _, p := range plays {
		if p.IsPhysical() {
			d.discards = append(d.discards, *p.Card)
		}
	}
}

// shuffle returns a uniform random permutation (Fisher-Yates) of cards.
func (d *Deck) shuffle(cards []models.Card) []models.Card {
	d.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
