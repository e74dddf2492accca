package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/session"
)

const SessionCookieName = "fc_session"

type ctxKey int

const adminProfileKey ctxKey = iota

// SessionMiddleware binds every request to a shopper session. A missing or
// malformed cookie gets a fresh session id.
func SessionMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if c, err := r.Cookie(SessionCookieName); err == nil {
				if session.ValidID(c.Value) {
					sessionID = c.Value
				}
			}
			if sessionID == "" {
				sessionID = session.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := logger.ContextWithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware echoes the chi request id back to the caller.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID := middleware.GetReqID(r.Context()); requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}
		next.ServeHTTP(w, r)
	})
}

type AdminAuthenticator interface {
	Current(ctx context.Context, sessionID string) (*domain.AdminProfile, error)
}

// RequireAdmin rejects requests whose session has no logged-in employee.
func RequireAdmin(auth AdminAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := auth.Current(r.Context(), getSessionID(r.Context()))
			if err != nil {
				status, code, msg := errorStatus(err)
				respondError(w, status, code, msg)
				return
			}
			ctx := context.WithValue(r.Context(), adminProfileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSessionID(ctx context.Context) string {
	return logger.SessionID(ctx)
}

func getAdminProfile(ctx context.Context) *domain.AdminProfile {
	if profile, ok := ctx.Value(adminProfileKey).(*domain.AdminProfile); ok {
		return profile
	}
	return nil
}
