package server

import (
	"crystal-ball/internal/game"
	"crystal-ball/internal/room"

	"github.com/rs/zerolog/log"
)

func messagesOf(dispatch game.Dispatch) []room.Message {
	messages := make([]room.Message, 0, len(dispatch.Notifications))
	for _, n := range dispatch.Notifications {
		messages = append(messages, room.Message{
			Event:   n.Name,
			Version: dispatch.Version,
			Data:    n.Payload,
		})
	}
	return messages
}

// publish fans a committed dispatch out to the game's room. Delivery is
// best-effort; subscribers reconcile from the snapshot they get on connect.
func (s *Server) publish(dispatch game.Dispatch) {
	if dispatch.Empty() {
		return
	}
	delivered := s.hub.Publish(dispatch.Code, dispatch.Version, messagesOf(dispatch)...)
	log.Debug().
		Str("code", dispatch.Code).
		Int64("version", dispatch.Version).
		Int("events", len(dispatch.Notifications)).
		Int("delivered", delivered).
		Msg("room broadcast")
}
