// internal/uno/status.go
package uno

import "fmt"

// Mode selects the match termination policy.
type Mode string

const (
	// ModeSingleRound finishes after exactly one completed round.
	ModeSingleRound Mode = "single_round"
	// ModeScoreRace credits each round's winner with the other players'
	// remaining-hand scores and finishes when anyone reaches MaxScore.
	ModeScoreRace Mode = "score_race"
	// ModeFixedRounds adds every player's own remaining-hand score each
	// round and finishes after MaxRounds rounds.
	ModeFixedRounds Mode = "fixed_rounds"
)

const (
	defaultMaxRounds = 3
	defaultMaxScore  = 300
)

// Status is the cross-round match ledger: mode, round counter and the
// cumulative per-player score mapping.
type Status struct {
	Mode      Mode           `json:"mode"`
	MaxRounds int            `json:"maxRounds"`
	MaxScore  int            `json:"maxScore"`
	Rounds    int            `json:"rounds"`
	Scores    map[string]int `json:"scores"`
}

// NewStatus validates the mode and limits and builds an empty ledger. The
// score ledger is populated by Init once the participants are known.
func NewStatus(mode Mode, maxRounds, maxScore int) (*Status, error) {
	switch mode {
	case ModeSingleRound, ModeScoreRace, ModeFixedRounds:
	default:
		return nil, fmt.Errorf("uno: unknown match mode %q", mode)
	}
	if maxRounds < 0 || maxScore < 0 {
		return nil, fmt.Errorf("uno: negative match limits (rounds=%d score=%d)", maxRounds, maxScore)
	}
	if maxRounds == 0 {
		maxRounds = defaultMaxRounds
	}
	if maxScore == 0 {
		maxScore = defaultMaxScore
	}
	return &Status{
		Mode:      mode,
		MaxRounds: maxRounds,
		MaxScore:  maxScore,
		Scores:    make(map[string]int),
	}, nil
}

// Init zeroes the score ledger for all participants.
func (s *Status) Init(proxies []*Proxy) {
	for _, p := range proxies {
		s.Scores[p.Player.UID] = 0
	}
}

// Settle applies the mode-specific accrual for a finished round and
// increments the round counter.
func (s *Status) Settle(winner *Proxy, proxies []*Proxy) {
	switch s.Mode {
	case ModeScoreRace:
		total := 0
		for _, p := range proxies {
			total += p.Score()
		}
		s.Scores[winner.Player.UID] += total
	case ModeFixedRounds:
		for _, p := range proxies {
			s.Scores[p.Player.UID] += p.Score()
		}
	}
	s.Rounds++
}

// HasFinished evaluates the termination predicate for the current mode.
func (s *Status) HasFinished() bool {
	switch s.Mode {
	case ModeSingleRound:
		return s.Rounds == 1
	case ModeScoreRace:
		for _, score := range s.Scores {
			if score >= s.MaxScore {
				return true
			}
		}
		return false
	case ModeFixedRounds:
		return s.Rounds >= s.MaxRounds
	default:
		return true
	}
}

// Snapshot returns a copy safe to hand to the transport layer.
func (s *Status) Snapshot() Status {
	out := *s
	out.Scores = make(map[string]int, len(s.Scores))
	for uid, score := range s.Scores {
		out.Scores[uid] = score
	}
	return out
}
