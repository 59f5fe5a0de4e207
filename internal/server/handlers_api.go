package server

import (
	"net/http"

	"crystal-ball/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req, createGameMessages, "question is required") {
		return
	}
	snapshot, err := s.service.CreateGame(c.Request.Context(), req.Question, req.Capacity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createGameResponse{
		Code:     snapshot.Code,
		Snapshot: snapshot,
	})
}

func (s *Server) handleGetGame(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	snapshot, err := s.service.GetSnapshot(c.Request.Context(), uri.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleJoinGame(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req, nil, "invalid join request") {
		return
	}
	token := sessionToken(c, req.SessionToken)
	result, err := s.service.RejoinOrJoin(c.Request.Context(), uri.Code, token, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}
	s.publish(result.Dispatch)
	s.setSessionCookie(c, result.SessionToken)
	c.JSON(http.StatusOK, joinResponse{
		ParticipantID: result.ParticipantID,
		DisplayName:   result.DisplayName,
		ColorTag:      result.ColorTag,
		SessionToken:  result.SessionToken,
		HasSubmitted:  result.HasSubmitted,
		Rejoined:      result.Rejoined,
		Snapshot:      result.Snapshot,
	})
}

func (s *Server) handleSubmitPrediction(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var req predictionRequest
	if !bindJSON(c, &req, nil, "invalid prediction request") {
		return
	}
	result, err := s.service.Submit(c.Request.Context(), uri.Code, req.ParticipantID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	s.publish(result.Dispatch)
	c.JSON(http.StatusOK, predictionResponse{
		SubmissionCount:  result.SubmissionCount,
		ParticipantCount: result.ParticipantCount,
		Revealed:         result.Revealed,
	})
}

func (s *Server) handleReveal(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	pairs, err := s.service.Reveal(c.Request.Context(), uri.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, revealResponse{Code: uri.Code, Pairs: pairs})
}

func (s *Server) handleEvents(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	if s.journal == nil {
		writeError(c, http.StatusServiceUnavailable, game.KindPersistence, "events not available")
		return
	}
	if _, err := s.service.GetSnapshot(c.Request.Context(), uri.Code); err != nil {
		respondError(c, err)
		return
	}
	entries, err := s.journal.List(c.Request.Context(), uri.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventsResponse{Code: uri.Code, Events: entries})
}

// handleQR renders the game page URL as a PNG for sharing.
func (s *Server) handleQR(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	if _, err := s.service.GetSnapshot(c.Request.Context(), uri.Code); err != nil {
		respondError(c, err)
		return
	}
	png, err := qrcode.Encode(gameURL(c.Request, uri.Code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("code", uri.Code).Msg("qr generation failed")
		writeError(c, http.StatusInternalServerError, codeInternal, "qr generation failed")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
