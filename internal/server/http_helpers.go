package server

import (
	"net/http"

	"crystal-ball/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	codeRateLimited = "rate_limited"
	codeInternal    = "internal_error"
)

func writeError(c *gin.Context, status int, kind game.Kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  string(kind),
	})
}

// respondError maps a core error to its HTTP status and stable tag.
func respondError(c *gin.Context, err error) {
	kind := game.KindOf(err)
	if kind == "" {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unclassified error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal error",
			"code":  codeInternal,
		})
		return
	}
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	writeError(c, status, kind, game.MessageOf(err))
}

func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindGameFull, game.KindDuplicateSubmission, game.KindAlreadyRevealed, game.KindNotRevealed, game.KindConflict:
		return http.StatusConflict
	case game.KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
