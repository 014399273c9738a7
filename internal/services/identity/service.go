package identity

import (
	"context"
	"log/slog"

	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/services/progression"
)

// Identity is a verified external identity: the token issuer's subject id
// plus optional display attributes carried as claims.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Service binds verified external identities to internal player records,
// creating the player (and its zero-valued progression) on first sight.
type Service struct {
	progression *progression.Service
	logger      *slog.Logger
}

// New creates a new identity binder
func New(progressionService *progression.Service, logger *slog.Logger) *Service {
	return &Service{
		progression: progressionService,
		logger:      logger.With(slog.String("component", "identity")),
	}
}

// Bind maps a verified identity to its player record, creating it if
// needed. Fails only with a validation error on a malformed identity or
// by propagating progression store failures.
func (s *Service) Bind(ctx context.Context, identity *Identity) (*model.Player, *model.Progression, error) {
	if identity == nil || identity.Subject == "" {
		return nil, nil, model.NewValidationError("subject", "must not be empty")
	}

	player, prog, err := s.progression.Ensure(ctx, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		return nil, nil, err
	}

	return player, prog, nil
}
