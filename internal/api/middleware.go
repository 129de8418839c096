package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/analytics"
)

// playerCookieName identifies the player across requests.
const playerCookieName = "detective_player"

// playerCookieMaxAge keeps the identity alive through a long investigation.
const playerCookieMaxAge = 30 * 24 * time.Hour

// PlayerMiddleware assigns each browser a stable player identity via a
// cookie. The id doubles as the analytics session id.
type PlayerMiddleware struct {
	recorder analytics.Recorder
}

// NewPlayerMiddleware creates new player identity middleware
func NewPlayerMiddleware(recorder analytics.Recorder) *PlayerMiddleware {
	return &PlayerMiddleware{recorder: recorder}
}

// Identify reads or mints the player cookie and puts the id on the request
// context. A freshly minted id opens an analytics session.
func (m *PlayerMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		playerID, fresh := m.playerID(r)

		if fresh {
			http.SetCookie(w, &http.Cookie{
				Name:     playerCookieName,
				Value:    playerID,
				Path:     "/",
				MaxAge:   int(playerCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			// Session start must not block the request
			userAgent := r.UserAgent()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := m.recorder.StartSession(ctx, playerID, userAgent); err != nil {
					slog.Error("failed to start analytics session", "player", playerID, "error", err)
				}
			}()

			slog.Debug("new player identified", "player", playerID)
		}

		ctx := ContextWithPlayer(r.Context(), playerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// playerID returns the id from the cookie, or a fresh one when the cookie
// is absent or malformed.
func (m *PlayerMiddleware) playerID(r *http.Request) (id string, fresh bool) {
	cookie, err := r.Cookie(playerCookieName)
	if err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil {
			return parsed.String(), false
		}
		slog.Warn("replacing malformed player cookie", "remote_addr", r.RemoteAddr)
	}
	return uuid.New().String(), true
}
