package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dockhand/internal/deploy"
)

// Response bodies on the trigger route. These are stable: operators
// script against them.
const (
	bodySuccess      = "Success\n"
	bodyUnauthorized = "Unauthorized user attempted to access server\n"
	bodyPullFailed   = "Docker pull failed\n"
	bodyIOError      = "I/O error\n"
)

// HandleRedeploy serves the trigger route: authenticate the caller,
// resolve the path segment to a composition, run the redeploy, and map
// the outcome onto a status code and body.
func (s *Server) HandleRedeploy(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		s.Logger.Error("unauthorized trigger request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		s.respondText(w, http.StatusUnauthorized, bodyUnauthorized)
		return
	}

	name := chi.URLParam(r, "name")

	// The invocation is detached from the request context: a client
	// disconnect or server shutdown must not kill the external tool
	// mid-run.
	err := s.Deployer.Redeploy(context.WithoutCancel(r.Context()), name)
	if err == nil {
		s.respondText(w, http.StatusOK, bodySuccess)
		return
	}

	var notFound *deploy.NotFoundError
	if errors.As(err, &notFound) {
		s.Logger.Error("composition not found", "composition", name)
		s.respondText(w, http.StatusNotFound,
			fmt.Sprintf("No composition found for path `%s`\n", notFound.Name))
		return
	}

	var inProgress *deploy.InProgressError
	if errors.As(err, &inProgress) {
		s.Logger.Warn("redeploy already in progress", "composition", name)
		s.respondText(w, http.StatusConflict,
			fmt.Sprintf("Redeploy already in progress for `%s`\n", inProgress.Name))
		return
	}

	var cmdErr *deploy.CommandError
	if errors.As(err, &cmdErr) {
		s.Logger.Error("redeploy command failed",
			"composition", name,
			"exit_code", cmdErr.ExitCode,
			"stdout", cmdErr.Stdout,
			"stderr", cmdErr.Stderr)
		s.respondText(w, http.StatusInternalServerError, bodyPullFailed)
		return
	}

	s.Logger.Error("redeploy failed", "composition", name, "error", err)
	s.respondText(w, http.StatusInternalServerError, bodyIOError)
}

// respondText sends a plain-text response
func (s *Server) respondText(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := io.WriteString(w, body); err != nil {
		s.Logger.Error("Failed to write response", "error", err)
	}
}
