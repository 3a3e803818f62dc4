// internal/uno/proxy.go
package uno

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unohall/server/internal/models"
)

var (
	// ErrNoDecisionPending is returned by Deal when no Think call is
	// suspended on the proxy.
	ErrNoDecisionPending = errors.New("uno: no decision pending for player")
	// ErrDecisionPending is returned by Think when a previous request has
	// not resolved yet. The orchestrator's single-actor protocol makes this
	// a programming error rather than a runtime condition.
	ErrDecisionPending = errors.New("uno: decision already pending for player")
)

// Proxy adapts one participant for one match: it holds the round-local hand
// and score view and exposes a uniform Think operation regardless of
// whether the participant is human or automated.
//
// Automated decisions resolve synchronously through the strategy. Human
// decisions suspend the caller on a single-slot channel until Deal is
// invoked by the transport layer, the optional timeout expires, or the
// context is cancelled.
type Proxy struct {
	Player   *models.Player
	LastPlay *models.Play

	strategy *Strategy
	timeout  time.Duration

	mu      sync.Mutex
	hand    []models.Card
	pending chan []models.Play
}

// NewProxy builds a proxy for player. strategy answers automated decisions
// and timeout fallbacks; timeout 0 disables the per-decision timer.
func NewProxy(player *models.Player, strategy *Strategy, timeout time.Duration) *Proxy {
	return &Proxy{Player: player, strategy: strategy, timeout: timeout}
}

// Reset clears the hand for a fresh round.
func (p *Proxy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hand = nil
	p.LastPlay = nil
}

// Draw adds cards to the hand.
func (p *Proxy) Draw(cards []models.Card) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hand = append(p.hand, cards...)
}

// Hand returns a copy of the current hand.
func (p *Proxy) Hand() []models.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Card, len(p.hand))
	copy(out, p.hand)
	return out
}

// Remains returns the hand size.
func (p *Proxy) Remains() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.hand)
}

// Score is the sum of the remaining hand card weights, used at settlement.
func (p *Proxy) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := 0
	for _, c := range p.hand {
		sum += c.Score()
	}
	return sum
}

// Think requests the participant's next decision. Penalty cards are applied
// to the hand unconditionally before the decision is computed or awaited.
func (p *Proxy) Think(ctx context.Context, action Action, color models.Color, symbol models.Symbol, d2, d4 bool, penalties []models.Card) ([]models.Play, error) {
	p.Draw(penalties)

	if p.Player.IsAI() {
		plays := p.strategy.Think(action, color, symbol, d2, d4, p.Hand())
		p.apply(plays)
		return plays, nil
	}
	return p.await(ctx, action, color, symbol, d2, d4)
}

// await suspends until the transport delivers a play set via Deal, the
// decision timer fires, or ctx is cancelled.
func (p *Proxy) await(ctx context.Context, action Action, color models.Color, symbol models.Symbol, d2, d4 bool) ([]models.Play, error) {
	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		return nil, ErrDecisionPending
	}
	ch := make(chan []models.Play, 1)
	p.pending = ch
	p.mu.Unlock()

	var timer <-chan time.Time
	if p.timeout > 0 {
		t := time.NewTimer(p.timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case plays := <-ch:
		p.apply(plays)
		return plays, nil
	case <-timer:
		if plays, ok := p.abandon(ch); ok {
			// A submission raced the timer; honor it.
			p.apply(plays)
			return plays, nil
		}
		plays := p.strategy.Think(action, color, symbol, d2, d4, p.Hand())
		p.apply(plays)
		return plays, nil
	case <-ctx.Done():
		p.abandon(ch)
		return nil, ctx.Err()
	}
}

// abandon retires the pending slot, returning a play set that slipped in
// before the slot could be cleared.
func (p *Proxy) abandon(ch chan []models.Play) ([]models.Play, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	select {
	case plays := <-ch:
		return plays, true
	default:
		return nil, false
	}
}

// Deal resolves the outstanding human decision with the submitted plays.
func (p *Proxy) Deal(plays []models.Play) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return ErrNoDecisionPending
	}
	p.pending <- plays
	p.pending = nil
	return nil
}

// HasPendingDecision reports whether a Think call is currently suspended.
func (p *Proxy) HasPendingDecision() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// apply records the play and removes played physical cards from the hand.
func (p *Proxy) apply(plays []models.Play) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(plays) == 0 {
		return
	}
	p.LastPlay = &plays[0]
	for _, play := range plays {
		if !play.IsPhysical() {
			continue
		}
		for i, held := range p.hand {
			if held == *play.Card {
				p.hand = append(p.hand[:i], p.hand[i+1:]...)
				break
			}
		}
	}
}
