package server

import (
	"time"

	"crystal-ball/internal/game"
	"crystal-ball/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// handleWebsocket subscribes the connection to the game's room. The first
// frames are the current game_state and, once revealed, the reveal payload.
func (s *Server) handleWebsocket(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	code := uri.Code
	ctx := c.Request.Context()
	if _, err := s.service.GetSnapshot(ctx, code); err != nil {
		respondError(c, err)
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("ws upgrade failed")
		return
	}
	client, err := s.hub.Subscribe(code, func() (int64, []room.Message, error) {
		dispatch, err := s.service.SubscribeDispatch(ctx, code)
		if err != nil {
			return 0, nil, err
		}
		return dispatch.Version, messagesOf(dispatch), nil
	})
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("ws subscribe failed")
		closeWS(conn, websocket.CloseInternalServerErr, game.MessageOf(err))
		return
	}
	remote := c.ClientIP()
	log.Info().Str("code", code).Str("remote", remote).Msg("ws connected")

	go s.writeWS(conn, client)
	s.readWS(conn, client, remote)
}

// readWS drains client frames so pongs and close frames are processed.
func (s *Server) readWS(conn *websocket.Conn, client *room.Client, remote string) {
	defer s.hub.Unsubscribe(client)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Info().Str("code", client.Code()).Str("remote", remote).Err(err).Msg("ws disconnected")
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, client *room.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.C():
			if !ok {
				// Unsubscribed, or dropped for falling behind.
				closeWS(conn, websocket.CloseTryAgainLater, "resubscribe")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func closeWS(conn *websocket.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = conn.Close()
}
