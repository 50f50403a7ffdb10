package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/pkg/httpx"
)

// SessionCookieName is the browser cookie carrying the session handle.
const SessionCookieName = "deskauth_session"

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeySessionToken
)

// sessionToken pulls the session handle from the cookie, falling back to a
// bearer Authorization header for API clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// RequireSession resolves the session behind the request and stores it in the
// context. Requests without a live session get a 401.
func RequireSession(sessions *service.SessionManager) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized,
					"invalid_token", "Missing session")
				return
			}

			sess, err := sessions.Get(r.Context(), token)
			if errors.Is(err, session.ErrNotFound) {
				httpx.WriteError(w, http.StatusUnauthorized,
					"invalid_token", "Invalid or expired session")
				return
			}
			if err != nil {
				httpx.WriteError(w, http.StatusInternalServerError,
					"server_error", "An internal error occurred")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			ctx = context.WithValue(ctx, ctxKeySessionToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromContext returns the session injected by RequireSession.
func sessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(ctxKeySession).(domain.Session)
	return sess, ok
}

func sessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeySessionToken).(string)
	return token
}

// setSessionCookie installs the session handle as an HttpOnly cookie.
func setSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// requestMeta collects the client metadata recorded on every audit row.
func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        httpx.ClientIP(r),
		UserAgent: httpx.UserAgent(r),
	}
}
