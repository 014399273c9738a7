package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/petrhn/arena-server/internal/api/apierr"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/services/identity"
)

type contextKey string

const (
	playerContextKey      contextKey = "player"
	progressionContextKey contextKey = "progression"
)

// Auth creates authentication middleware. The bearer token is verified
// against the external issuer's signature, then the identity is bound to
// its player record (created on first sight). The player and its current
// progression land in the request context.
func Auth(verifier identity.Verifier, binder *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ident, err := verifier.Verify(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			player, progression, err := binder.Bind(r.Context(), ident)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, playerContextKey, player)
			ctx = context.WithValue(ctx, progressionContextKey, progression)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// GetProgression returns the bound progression from the request context
func GetProgression(ctx context.Context) *model.Progression {
	progression, _ := ctx.Value(progressionContextKey).(*model.Progression)
	return progression
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
