package server

import (
	"net/http"
	"net/url"
	"strings"
)

// gameURL builds the absolute page URL for code, honoring a proxy's
// X-Forwarded-Proto.
func gameURL(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	u := url.URL{
		Scheme: scheme,
		Host:   r.Host,
		Path:   "/game/" + code,
	}
	return u.String()
}
