package models

// PlayerType distinguishes human participants from automated ones.
type PlayerType string

const (
	PlayerHuman PlayerType = "human"
	PlayerAI    PlayerType = "ai"
)

// PlayerStatus tracks where a player is in the room lifecycle.
type PlayerStatus string

const (
	StatusIdle    PlayerStatus = "idle"
	StatusPending PlayerStatus = "pending"
	StatusReady   PlayerStatus = "ready"
	StatusInGame  PlayerStatus = "ingame"
)

// Player is the durable participant record shared between the identity
// store and the game engine. SocketID is the transport routing handle for
// private messages; it is empty for automated players.
type Player struct {
	UID      string       `json:"uid"`
	Name     string       `json:"name"`
	Avatar   string       `json:"avatar"`
	Type     PlayerType   `json:"type"`
	SocketID string       `json:"socketId"`
	Status   PlayerStatus `json:"status"`
	RoomID   string       `json:"roomId"`
}

// IsAI reports whether decisions for this player are computed locally.
func (p *Player) IsAI() bool {
	return p.Type == PlayerAI
}
