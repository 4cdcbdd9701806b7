// internal/game/ws.go: HTTP and WebSocket surface for hosted games.
package game

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zsh28/Rummikub/internal/auth"
	"github.com/zsh28/Rummikub/internal/models"
)

// Server exposes game management over HTTP and gameplay over WebSockets.
type Server struct {
	Manager *Manager
	Auth    *auth.Authenticator
}

// Routes registers all handlers on the given mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/games", s.handleGames)
	mux.HandleFunc("/auth/token", s.handleToken)
	mux.HandleFunc("/ws", s.handleWS)
}

// handleGames serves GET (lobby listing) and POST (create game).
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.Manager.ListGames())
	case http.MethodPost:
		var req struct {
			MaxPlayers uint8 `json:"maxPlayers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		h, err := s.Manager.CreateGame("server", req.MaxPlayers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": h.ID})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleToken issues a session token for a wallet. Signature-based wallet
// ownership proofs happen upstream; this endpoint trusts its caller and is
// meant to sit behind the gateway.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Wallet string `json:"wallet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Wallet == "" {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	token, err := s.Auth.IssueToken(req.Wallet)
	if err != nil {
		http.Error(w, "token issuance failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleWS upgrades the connection, authenticates the wallet and runs the
// per-connection read loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(r.URL.Query().Get("game"))
	if err != nil {
		http.Error(w, "missing or invalid game id", http.StatusBadRequest)
		return
	}
	wallet, err := s.Auth.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h, err := s.Manager.GetGame(gameID)
	if err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket accept failed")
		return
	}

	log := logrus.WithFields(logrus.Fields{"game_id": gameID, "wallet": wallet})
	log.Info("websocket connected")
	s.readLoop(r.Context(), conn, h, wallet, log)
}

// readLoop decodes actions from one connection until it closes. The join
// action seats the wallet (escrowing the entry fee); everything else is
// routed to the hosted game.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, h *HostedGame, wallet string, log *logrus.Entry) {
	defer func() {
		conn.Close(websocket.StatusNormalClosure, "")
		h.HandleDisconnect(wallet)
		log.Info("websocket closed")
	}()

	for {
		var action models.GameAction
		if err := wsjson.Read(ctx, conn, &action); err != nil {
			return
		}
		if action.ActionType == "action_join" {
			if err := h.Join(ctx, wallet, conn); err != nil {
				writeEvent(conn, GameEvent{
					Type:    EventPrivateError,
					Payload: map[string]interface{}{"message": err.Error()},
				})
			}
			continue
		}
		h.HandleAction(wallet, action)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("response encode failed")
	}
}
