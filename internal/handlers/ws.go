package handlers

import (
	"errors"
	"net/http"

	"hutang/internal/middleware"
	"hutang/internal/session"
	"hutang/internal/websocket"
)

// WSHutangs streams the caller's hutang updates. Browsers cannot set headers
// on a websocket handshake, so the token may also come as ?token=.
func (h *Handler) WSHutangs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.TokenFromRequest(r)
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required. Please login first.")
		return
	}
	sess, err := h.sessions.Lookup(r.Context(), token)
	if errors.Is(err, session.ErrInvalidSession) {
		respondError(w, http.StatusUnauthorized, "Invalid or expired session")
		return
	}
	if err != nil {
		respondInternal(w, "Unable to verify session", err)
		return
	}
	websocket.ServeWS(w, r, h.hub, sess.UserID)
}
