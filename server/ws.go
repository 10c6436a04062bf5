package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/runner"
)

// Websocket event types sent to the client.
const (
	EventFragment = "fragment"
	EventFinal    = "final"
	EventError    = "error"
)

type wsRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type wsEvent struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Seq        int    `json:"seq,omitempty"`
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
	Success    bool   `json:"success"`
	SessionID  string `json:"sessionId,omitempty"`
	Capability string `json:"capability,omitempty"`
}

// handleWS runs turns for messages received on a websocket. Fragments are
// forwarded as they arrive; each turn ends with a final or an error event.
// A connection sticks to the session of its first turn unless a message
// names another one. A dropped connection or a failed write cancels the
// running turn, so nothing is committed for it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("ws.upgrade.failed")
		return
	}
	defer conn.Close()

	log := s.opts.Logger
	connCtx, cancelConn := context.WithCancel(r.Context())
	defer cancelConn()

	// The reader owns conn.ReadMessage; the hijacked connection does not
	// cancel r.Context() when the peer goes away.
	incoming := make(chan []byte)
	go func() {
		defer cancelConn()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Msg("ws.read.failed")
				}
				return
			}
			select {
			case incoming <- data:
			case <-connCtx.Done():
				return
			}
		}
	}()

	sessionID := r.URL.Query().Get("sessionId")
	for {
		var data []byte
		select {
		case data = <-incoming:
		case <-connCtx.Done():
			return
		}

		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if conn.WriteJSON(wsEvent{Type: EventError, Error: msgInvalidBody, SessionID: sessionID}) != nil {
				return
			}
			continue
		}
		if req.SessionID != "" {
			sessionID = req.SessionID
		}
		if strings.TrimSpace(req.Message) == "" {
			if conn.WriteJSON(wsEvent{Type: EventError, Error: msgEmptyMessage, SessionID: sessionID}) != nil {
				return
			}
			continue
		}

		turnCtx, cancelTurn := context.WithCancel(connCtx)
		var writeErr error
		onFragment := func(f core.Fragment) {
			if writeErr != nil {
				return
			}
			writeErr = conn.WriteJSON(wsEvent{Type: EventFragment, Text: f.Text, Seq: f.Seq, SessionID: sessionID})
			if writeErr != nil {
				cancelTurn()
			}
		}

		res, id, err := s.runTurn(turnCtx, sessionID, req.Message, runner.WithFragmentHandler(onFragment))
		cancelTurn()
		sessionID = id
		if writeErr != nil {
			log.Warn().Err(writeErr).Str("session_id", sessionID).Msg("ws.write.failed")
			return
		}
		if connCtx.Err() != nil {
			log.Info().Str("session_id", sessionID).Msg("ws.turn.abandoned")
			return
		}

		ev := wsEvent{Type: EventFinal, Response: res.Text, Success: true, SessionID: sessionID, Capability: res.Capability}
		if err != nil {
			status, msg := classify(err)
			log.Warn().Err(err).Str("session_id", sessionID).Int("status", status).Msg("ws.turn.failed")
			ev = wsEvent{Type: EventError, Error: msg, SessionID: sessionID}
		}
		if err := conn.WriteJSON(ev); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("ws.write.failed")
			return
		}
	}
}
