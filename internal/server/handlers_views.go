package server

import (
	"net/http"

	"crystal-ball/internal/game"
	"crystal-ball/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleHome(c *gin.Context) {
	limits := s.service.Limits()
	templ.Handler(web.Home(web.HomeData{
		DefaultCapacity:   limits.DefaultCapacity,
		MinCapacity:       limits.MinCapacity,
		MaxCapacity:       limits.MaxCapacity,
		MaxQuestionLength: limits.MaxQuestionLength,
	})).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleGameView(c *gin.Context) {
	code := game.NormalizeCode(c.Param("code"))
	snapshot, err := s.service.GetSnapshot(c.Request.Context(), code)
	if err != nil {
		status := statusFor(game.KindOf(err))
		if status != http.StatusNotFound {
			log.Error().Err(err).Str("code", code).Msg("game view failed")
		}
		templ.Handler(web.NotFound(code), templ.WithStatus(status)).ServeHTTP(c.Writer, c.Request)
		return
	}
	limits := s.service.Limits()
	templ.Handler(web.GameView(web.GameData{
		Code:                snapshot.Code,
		Question:            snapshot.Question,
		Capacity:            snapshot.Capacity,
		ShareURL:            gameURL(c.Request, snapshot.Code),
		MaxNameLength:       limits.MaxNameLength,
		MaxPredictionLength: limits.MaxPredictionLength,
	})).ServeHTTP(c.Writer, c.Request)
}
