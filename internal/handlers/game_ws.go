// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unohall/server/internal/auth"
	"github.com/unohall/server/internal/database"
	"github.com/unohall/server/internal/middleware"
	"github.com/unohall/server/internal/models"
	"github.com/unohall/server/internal/uno"
)

// GameMessage is the envelope for incoming room WebSocket messages.
type GameMessage struct {
	Type string `json:"type"`

	// game_start fields.
	AIPlayers              int    `json:"aiPlayers,omitempty"`
	Mode                   string `json:"mode,omitempty"`
	MaxRounds              int    `json:"maxRounds,omitempty"`
	MaxScore               int    `json:"maxScore,omitempty"`
	WildDrawFourCallsColor bool   `json:"wildDrawFourCallsColor,omitempty"`
	DecisionTimeoutSecs    int    `json:"decisionTimeoutSecs,omitempty"`

	// game_deal field: the play set for the suspended decision.
	Plays []models.Play `json:"plays,omitempty"`
}

// GameWSHandler upgrades the connection for a room at /game/ws/{room_id},
// authenticates the user, seats them, and runs the message loop. Any seated
// member may start the match; decisions are only accepted from the seat the
// table currently points at.
func GameWSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if roomID == "" {
			http.Error(w, "missing room_id in path (/game/ws/{room_id})", http.StatusBadRequest)
			return
		}

		userIDStr, err := auth.UserIDFromRequest(r)
		if err != nil {
			http.Error(w, "authentication required", http.StatusForbidden)
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "invalid user id in token", http.StatusForbidden)
			return
		}
		user, err := database.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")

		if c.Subprotocol() != "game" {
			c.Close(websocket.StatusPolicyViolation, "client must use the 'game' subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		player, err := s.Identity.SaveHuman(r.Context(), user, uuid.NewString())
		if err != nil {
			logger.Warnf("Failed to register player for user %s: %v", userID, err)
			c.Close(websocket.StatusInternalError, "failed to register player")
			return
		}
		player.RoomID = roomID
		if err := s.Identity.Save(r.Context(), player); err != nil {
			logger.Warnf("Failed to persist room for player %s: %v", player.UID, err)
		}

		rm := s.room(roomID)
		rm.join(player, c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readErr := readGameMessages(ctx, c, s, rm, player, logger)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)

		if rm.leave(player.SocketID) {
			s.dropRoom(roomID)
		}
	}
}

// readGameMessages runs the per-connection message loop until the socket
// closes or the context is cancelled.
func readGameMessages(ctx context.Context, c *websocket.Conn, s *Server, rm *room, player *models.Player, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, "invalid JSON format")
			continue
		}
		logger.Debugf("Received '%s' from %s in room %s", msg.Type, player.UID, rm.id)

		switch msg.Type {
		case "game_start":
			if err := s.startMatch(ctx, rm, msg); err != nil {
				sendWsError(ctx, c, err.Error())
			}

		case "game_deal":
			if cur := rm.currentActor(); cur != "" && cur != player.UID {
				sendWsError(ctx, c, "not your turn")
				continue
			}
			if err := s.Sessions.SubmitDecision(rm.id, msg.Plays); err != nil {
				sendWsError(ctx, c, err.Error())
			}

		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})

		default:
			sendWsError(ctx, c, fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

// startMatch seats the requested automated players behind the humans,
// prepares the session and launches the report pump.
func (s *Server) startMatch(ctx context.Context, rm *room, msg GameMessage) error {
	if !rm.beginStart() {
		return fmt.Errorf("a match is already running in room %s", rm.id)
	}

	participants, _ := rm.members()
	for i := 0; i < msg.AIPlayers; i++ {
		ai, err := s.Identity.CreateAI(ctx)
		if err != nil {
			rm.endStart()
			return fmt.Errorf("failed to create AI player: %w", err)
		}
		participants = append(participants, ai)
	}

	opts := uno.Options{
		Mode:                   uno.Mode(msg.Mode),
		MaxRounds:              msg.MaxRounds,
		MaxScore:               msg.MaxScore,
		WildDrawFourCallsColor: msg.WildDrawFourCallsColor,
		DecisionTimeout:        time.Duration(msg.DecisionTimeoutSecs) * time.Second,
	}
	if opts.Mode == "" {
		opts.Mode = uno.ModeSingleRound
	}

	if err := s.Sessions.Prepare(rm.id, opts); err != nil {
		rm.endStart()
		return err
	}
	reports, err := s.Sessions.Run(context.Background(), rm.id, participants)
	if err != nil {
		rm.endStart()
		return err
	}

	go s.pumpReports(rm, participants, reports)
	return nil
}

// pumpReports forwards the session's report stream to the room. Reports
// arrive one at a time, so synchronous writes keep every client's view in
// order. Hands are routed privately by socket id; everything else is
// broadcast.
func (s *Server) pumpReports(rm *room, participants []*models.Player, reports <-chan uno.Report) {
	defer rm.endStart()

	for report := range reports {
		switch report.Type {
		case uno.ReportInitialHands, uno.ReportPenaltyDealt:
			for _, hand := range report.Hands {
				if hand.SocketID == "" {
					continue
				}
				conn := rm.conn(hand.SocketID)
				if conn == nil {
					continue
				}
				private := uno.Report{Type: report.Type, Hands: []uno.PlayerHand{hand}}
				sendWsMessage(context.Background(), conn, private)
			}

		case uno.ReportStateUpdate:
			if report.Snapshot != nil && report.Snapshot.Pointer < len(participants) {
				rm.setCurrentActor(participants[report.Snapshot.Pointer].UID)
			}
			s.broadcast(rm, report)

		default:
			s.broadcast(rm, report)
		}
	}
	rm.setCurrentActor("")
}

func (s *Server) broadcast(rm *room, report uno.Report) {
	_, conns := rm.members()
	data, err := json.Marshal(report)
	if err != nil {
		s.Logger.Errorf("Failed to marshal report (%s) for room %s: %v", report.Type, rm.id, err)
		return
	}
	for socketID, conn := range conns {
		writeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
			s.Logger.Warnf("Failed to write report to socket %s in room %s: %v", socketID, rm.id, err)
		}
		cancel()
	}
}

// sendWsMessage marshals a message and writes it with a bounded timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c.Write(writeCtx, websocket.MessageText, data)
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
