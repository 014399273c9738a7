package memory

import (
	"context"
	"sync"

	"github.com/petrhn/arena-server/internal/dependencies/clock"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// The default backend for tests and local development.
type Storage struct {
	clock clock.Clock

	mu           sync.RWMutex
	nextID       model.PlayerID
	players      map[model.PlayerID]*model.Player
	subjectIndex map[string]model.PlayerID
	progressions map[model.PlayerID]*model.Progression
}

// New creates a new in-memory storage instance
func New(clk clock.Clock) *Storage {
	return &Storage{
		clock:        clk,
		nextID:       1,
		players:      make(map[model.PlayerID]*model.Player),
		subjectIndex: make(map[string]model.PlayerID),
		progressions: make(map[model.PlayerID]*model.Progression),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) EnsurePlayer(ctx context.Context, subject, email, name string) (*model.Player, *model.Progression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if id, ok := s.subjectIndex[subject]; ok {
		player := s.players[id]
		if email != "" || name != "" {
			if email != "" {
				player.Email = email
			}
			if name != "" {
				player.Name = name
			}
			player.UpdatedAt = now
		}
		p := copyPlayer(player)
		pr := copyProgression(s.progressions[id])
		return p, pr, nil
	}

	id := s.nextID
	s.nextID++

	player := &model.Player{
		ID:        id,
		Subject:   subject,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	progression := model.NewProgression(id, now)

	s.players[id] = player
	s.subjectIndex[subject] = id
	s.progressions[id] = progression

	return copyPlayer(player), copyProgression(progression), nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return copyPlayer(player), nil
}

func (s *Storage) GetProgression(ctx context.Context, playerID model.PlayerID) (*model.Progression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progression, ok := s.progressions[playerID]
	if !ok {
		return nil, model.ErrProgressionNotFound
	}
	return copyProgression(progression), nil
}

func (s *Storage) UpdateProgression(ctx context.Context, playerID model.PlayerID, apply func(*model.Progression) error) (*model.Progression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.progressions[playerID]
	if !ok {
		return nil, model.ErrProgressionNotFound
	}

	// Apply on a copy so a failed apply leaves the stored row untouched
	updated := copyProgression(current)
	if err := apply(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.clock.Now()

	s.progressions[playerID] = updated
	return copyProgression(updated), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

func copyPlayer(p *model.Player) *model.Player {
	cp := *p
	return &cp
}

func copyProgression(p *model.Progression) *model.Progression {
	cp := *p
	cp.TroopsUnlocked = append([]string(nil), p.TroopsUnlocked...)
	cp.Decks = append([]model.Deck(nil), p.Decks...)
	return &cp
}
