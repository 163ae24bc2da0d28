package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorize reports whether the request carries the configured bearer
// token. The comparison is constant-time and the presented value is
// never logged.
func (s *Server) authorize(r *http.Request) bool {
	token, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.Config.Token)) == 1
}

// extractBearerToken pulls the credential out of an Authorization
// header value. The scheme is matched case-insensitively, so both
// "Bearer" and "bearer" are accepted.
func extractBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) {
		return "", false
	}
	if !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
