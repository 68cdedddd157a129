package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"hutang/internal/session"

	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey  contextKey = "user_id"
	sessionKey contextKey = "session"
)

// SessionHeader carries the session token. A standard bearer Authorization
// header is accepted as well.
const SessionHeader = "X-Session-Token"

type SessionLookup interface {
	Lookup(ctx context.Context, token string) (session.Session, error)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(session.Session)
	return s, ok
}

func WithSession(ctx context.Context, s session.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	return context.WithValue(ctx, userIDKey, s.UserID)
}

// TokenFromRequest returns the session token of r, or "" if none was sent.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(SessionHeader)); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func Auth(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Authentication required. Please login first.")
				return
			}
			s, err := sessions.Lookup(r.Context(), token)
			if errors.Is(err, session.ErrInvalidSession) {
				writeError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}
			if err != nil {
				zap.L().Error("session lookup failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Unable to verify session")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
