package progression

import (
	"context"
	"log/slog"
	"sync"

	"github.com/petrhn/arena-server/internal/levels"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/storage"
)

// Service owns the authoritative per-player progression state.
//
// Updates for the same player are serialized through a per-player lock so
// the read-modify-write of level/xp is exclusive per player; updates for
// different players never block each other. The stored level is always
// re-derived from xp and never allowed to regress.
type Service struct {
	storage storage.Storage
	table   *levels.Table
	logger  *slog.Logger

	// one mutex per player id, created on first update
	locks sync.Map
}

// New creates a new progression service
func New(store storage.Storage, table *levels.Table, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		table:   table,
		logger:  logger.With(slog.String("component", "progression")),
	}
}

// Ensure is the idempotent get-or-create for a player keyed by its
// external subject. Safe under concurrent calls with the same subject:
// the storage upsert resolves races to exactly one row.
func (s *Service) Ensure(ctx context.Context, subject, email, name string) (*model.Player, *model.Progression, error) {
	return s.storage.EnsurePlayer(ctx, subject, email, name)
}

// Get returns a player's account and progression rows
func (s *Service) Get(ctx context.Context, playerID model.PlayerID) (*model.Player, *model.Progression, error) {
	player, err := s.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	progression, err := s.storage.GetProgression(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	return player, progression, nil
}

// lockFor returns the mutex serializing updates for one player
func (s *Service) lockFor(playerID model.PlayerID) *sync.Mutex {
	if lock, ok := s.locks.Load(playerID); ok {
		return lock.(*sync.Mutex)
	}
	lock, _ := s.locks.LoadOrStore(playerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Update applies a partial change set to a player's progression.
//
// The change set is validated before storage is touched. Inside the
// exclusive section the stored level is recomputed as
// max(level resolved from the target xp, current level); an explicit
// client-supplied level is never allowed to lower it. The whole write
// commits or rolls back as one unit.
func (s *Service) Update(ctx context.Context, playerID model.PlayerID, update *model.ProgressionUpdate) (*model.Progression, error) {
	if update == nil {
		return nil, model.NewValidationError("progress", "at least one field must be provided")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	lock := s.lockFor(playerID)
	lock.Lock()
	defer lock.Unlock()

	progression, err := s.storage.UpdateProgression(ctx, playerID, func(p *model.Progression) error {
		currentLevel := p.Level

		targetXP := p.XP
		if update.XP != nil {
			targetXP = *update.XP
		}

		update.Apply(p)

		p.Level = s.table.Resolve(targetXP, currentLevel)
		if currentLevel > p.Level {
			p.Level = currentLevel
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("progression updated",
		slog.Uint64("player_id", uint64(playerID)),
		slog.Int("level", progression.Level),
		slog.Int64("xp", progression.XP))

	return progression, nil
}
