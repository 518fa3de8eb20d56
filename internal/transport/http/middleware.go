package http

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"devexchange-service/internal/domain"
	"github.com/google/uuid"
)

// SessionHeader carries the anonymous respondent id.
const SessionHeader = "X-Session-Id"

type ctxKey int

const actorKey ctxKey = iota

func actorFrom(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey).(domain.Actor)
	return actor
}

// authenticate attaches the bearer token identity to the request. Requests
// without a token continue anonymously; a bad token is rejected.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || h.auth == nil {
			h.respondError(w, r, domain.ErrUnauthorized)
			return
		}
		actor, err := h.auth.Parse(strings.TrimSpace(raw))
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// respondentID picks the identity counted by the trend: the user, else the
// client's session id, else a new session id echoed back to the client.
func respondentID(w http.ResponseWriter, r *http.Request) string {
	if actor := actorFrom(r.Context()); actor.UserID != "" {
		return actor.UserID
	}
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	id := uuid.NewString()
	w.Header().Set(SessionHeader, id)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String())
	})
}
