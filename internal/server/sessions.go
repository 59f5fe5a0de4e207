package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const sessionCookie = "pr_session"

// sessionToken prefers an explicit token from the request body over the cookie.
func sessionToken(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return token
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.cfg.SessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
}
