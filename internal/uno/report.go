// internal/uno/report.go
package uno

import "github.com/unohall/server/internal/models"

// ReportType tags a session report for the transport layer.
type ReportType string

const (
	// ReportReady signals that the round participants and score baseline
	// are established.
	ReportReady ReportType = "ready"
	// ReportInitialHands carries each participant's dealt hand, to be
	// delivered privately.
	ReportInitialHands ReportType = "initial_hands"
	// ReportPenaltyDealt carries the cards a participant drew under
	// penalty, private to them.
	ReportPenaltyDealt ReportType = "penalty"
	// ReportStateUpdate carries the public table snapshot.
	ReportStateUpdate ReportType = "state_update"
	// ReportRoundEnded marks a settled round.
	ReportRoundEnded ReportType = "round_ended"
	// ReportRoundAborted marks a round killed by the turn safety bound.
	ReportRoundAborted ReportType = "round_aborted"
)

// PlayerHand pairs a participant with cards to deliver privately.
type PlayerHand struct {
	UID      string        `json:"uid"`
	SocketID string        `json:"socketId"`
	Cards    []models.Card `json:"cards"`
}

// PlayerSnapshot is the public per-participant summary inside a state
// update: identity, last play, remaining-card count and cumulative score.
type PlayerSnapshot struct {
	Name     string       `json:"name"`
	Avatar   string       `json:"avatar"`
	LastPlay *models.Play `json:"lastPlay"`
	Remains  int          `json:"remains"`
	Score    int          `json:"score"`
}

// Snapshot is the public table-state view broadcast after every turn.
type Snapshot struct {
	Color     models.Color     `json:"color"`
	Symbol    models.Symbol    `json:"symbol"`
	D2        bool             `json:"d2"`
	D4        bool             `json:"d4"`
	LastPlays []models.Play    `json:"lastPlays"`
	Pointer   int              `json:"pointer"`
	Penalty   int              `json:"penaltyCount"`
	Action    Action           `json:"action"`
	Turns     int              `json:"turns"`
	Direction int              `json:"direction"`
	Players   []PlayerSnapshot `json:"players"`
}

// Report is one externally observable session milestone. Reports are
// produced in order and exactly one is in flight at a time; the consumer
// must forward each before the session produces the next.
type Report struct {
	Type     ReportType   `json:"type"`
	Hands    []PlayerHand `json:"hands,omitempty"`
	Snapshot *Snapshot    `json:"snapshot,omitempty"`
	Status   *Status      `json:"status,omitempty"`
}
