package storage

import (
	"context"

	"github.com/petrhn/arena-server/internal/model"
)

// Storage defines the interface for player and progression persistence.
//
// Every implementation must make EnsurePlayer an atomic upsert (concurrent
// first-creation races for the same subject resolve to exactly one row) and
// UpdateProgression an atomic read-modify-write (the whole apply either
// commits or leaves the row untouched). Per-player serialization of updates
// is layered on top by the progression service.
type Storage interface {
	// EnsurePlayer gets or creates the player for an external subject,
	// along with its zero-valued progression on first sight. On an
	// existing player, non-empty email/name overwrite the stored display
	// attributes; the progression is returned unchanged.
	EnsurePlayer(ctx context.Context, subject, email, name string) (*model.Player, *model.Progression, error)

	// GetPlayer returns the player with the given internal id,
	// or model.ErrPlayerNotFound.
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// GetProgression returns the progression owned by the given player,
	// or model.ErrProgressionNotFound.
	GetProgression(ctx context.Context, playerID model.PlayerID) (*model.Progression, error)

	// UpdateProgression reads the player's current progression, runs apply
	// on it, and persists the result in one atomic step. Returns
	// model.ErrProgressionNotFound if the row is absent; an error from
	// apply aborts the write entirely.
	UpdateProgression(ctx context.Context, playerID model.PlayerID, apply func(*model.Progression) error) (*model.Progression, error)

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close releases any held connections
	Close() error
}
