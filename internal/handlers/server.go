// internal/handlers/server.go
package handlers

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/unohall/server/internal/identity"
	"github.com/unohall/server/internal/models"
	"github.com/unohall/server/internal/uno"
)

// Server holds the shared state behind the HTTP and WebSocket handlers: the
// session registry, the player record store, and the per-room connection
// registries.
type Server struct {
	Sessions *uno.Store
	Identity *identity.Store
	Logger   *logrus.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

// NewServer builds a Server around an existing session and identity store.
func NewServer(sessions *uno.Store, ident *identity.Store, logger *logrus.Logger) *Server {
	return &Server{
		Sessions: sessions,
		Identity: ident,
		Logger:   logger,
		rooms:    make(map[string]*room),
	}
}

// room tracks the live WebSocket connections for one room. seats preserves
// join order, which becomes the seating order when a match starts.
type room struct {
	id string

	mu      sync.Mutex
	seats   []*models.Player
	conns   map[string]*websocket.Conn // keyed by socket id
	started bool
	actor   string // uid of the seat the table currently points at
}

func (s *Server) room(roomID string) *room {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[roomID]
	if !ok {
		rm = &room{
			id:    roomID,
			conns: make(map[string]*websocket.Conn),
		}
		s.rooms[roomID] = rm
	}
	return rm
}

// dropRoom forgets the room's connection registry, typically after its match
// ends or its last member leaves.
func (s *Server) dropRoom(roomID string) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
	s.Sessions.Destroy(roomID)
}

func (rm *room) join(player *models.Player, conn *websocket.Conn) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for i, seated := range rm.seats {
		if seated.UID == player.UID {
			rm.seats[i] = player
			rm.conns[player.SocketID] = conn
			return
		}
	}
	rm.seats = append(rm.seats, player)
	rm.conns[player.SocketID] = conn
}

func (rm *room) leave(socketID string) (empty bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.conns, socketID)
	for i, seated := range rm.seats {
		if seated.SocketID == socketID {
			rm.seats = append(rm.seats[:i], rm.seats[i+1:]...)
			break
		}
	}
	return len(rm.conns) == 0
}

// members returns the current seating order and live connections under a
// single lock acquisition.
func (rm *room) members() ([]*models.Player, map[string]*websocket.Conn) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	seats := make([]*models.Player, len(rm.seats))
	copy(seats, rm.seats)
	conns := make(map[string]*websocket.Conn, len(rm.conns))
	for id, c := range rm.conns {
		conns[id] = c
	}
	return seats, conns
}

func (rm *room) conn(socketID string) *websocket.Conn {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.conns[socketID]
}

// beginStart marks the room as running a match; it reports false when a
// match is already in progress.
func (rm *room) beginStart() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.started {
		return false
	}
	rm.started = true
	return true
}

func (rm *room) endStart() {
	rm.mu.Lock()
	rm.started = false
	rm.mu.Unlock()
}

func (rm *room) currentActor() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.actor
}

func (rm *room) setCurrentActor(uid string) {
	rm.mu.Lock()
	rm.actor = uid
	rm.mu.Unlock()
}
