package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/battleship/internal/api/apierr"
	"github.com/mcoot/battleship/internal/model"
	"github.com/mcoot/battleship/internal/services/player"
)

type contextKey string

const playerContextKey contextKey = "player"

// BasicAuth authenticates requests against the credentials a player registered with
func BasicAuth(players *player.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, password, ok := r.BasicAuth()
			if !ok || name == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="battleship"`)
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			p, err := players.VerifyCredential(r.Context(), name, password)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	p, _ := ctx.Value(playerContextKey).(*model.Player)
	return p
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	p := GetPlayer(ctx)
	if p == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return p
}
