package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/petrhn/arena-server/internal/dependencies/mocks"
	"github.com/petrhn/arena-server/internal/model"
)

type StorageSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.storage = New(s.clock)
	s.ctx = context.Background()
}

func (s *StorageSuite) TestEnsureCreatesPlayerAndProgression() {
	player, progression, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "alice@example.com", "Alice")
	s.Require().NoError(err)

	s.Equal(model.PlayerID(1), player.ID)
	s.Equal("auth0|abc", player.Subject)
	s.Equal("alice@example.com", player.Email)
	s.Equal("Alice", player.Name)
	s.Equal(s.clock.CurrentTime, player.CreatedAt)

	s.Equal(player.ID, progression.PlayerID)
	s.Equal(1, progression.Level)
	s.Equal(int64(0), progression.XP)
}

func (s *StorageSuite) TestEnsureIsIdempotent() {
	first, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "", "")
	s.Require().NoError(err)

	second, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "", "")
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(first.CreatedAt, second.CreatedAt)
}

func (s *StorageSuite) TestEnsureAssignsDistinctIDs() {
	alice, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|alice", "", "")
	s.Require().NoError(err)

	bob, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|bob", "", "")
	s.Require().NoError(err)

	s.NotEqual(alice.ID, bob.ID)
}

func (s *StorageSuite) TestEnsureRefreshesDisplayAttributes() {
	_, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "old@example.com", "Old Name")
	s.Require().NoError(err)

	player, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "new@example.com", "")
	s.Require().NoError(err)

	// Non-empty values win; empty values leave the stored ones alone
	s.Equal("new@example.com", player.Email)
	s.Equal("Old Name", player.Name)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, 99)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetProgressionNotFound() {
	_, err := s.storage.GetProgression(s.ctx, 99)
	s.ErrorIs(err, model.ErrProgressionNotFound)
}

func (s *StorageSuite) TestUpdateProgressionApplies() {
	player, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "", "")
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)

	updated, err := s.storage.UpdateProgression(s.ctx, player.ID, func(p *model.Progression) error {
		p.XP = 250
		p.Coins = 40
		return nil
	})
	s.Require().NoError(err)
	s.Equal(int64(250), updated.XP)
	s.Equal(int64(40), updated.Coins)
	s.Equal(s.clock.CurrentTime, updated.UpdatedAt)

	stored, err := s.storage.GetProgression(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(int64(250), stored.XP)
}

func (s *StorageSuite) TestUpdateProgressionFailedApplyLeavesRowUntouched() {
	player, _, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "", "")
	s.Require().NoError(err)

	boom := errors.New("boom")
	_, err = s.storage.UpdateProgression(s.ctx, player.ID, func(p *model.Progression) error {
		p.XP = 9999
		return boom
	})
	s.ErrorIs(err, boom)

	stored, err := s.storage.GetProgression(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), stored.XP)
}

func (s *StorageSuite) TestUpdateProgressionNotFound() {
	_, err := s.storage.UpdateProgression(s.ctx, 99, func(p *model.Progression) error {
		return nil
	})
	s.ErrorIs(err, model.ErrProgressionNotFound)
}

func (s *StorageSuite) TestReturnedRowsAreIsolated() {
	player, progression, err := s.storage.EnsurePlayer(s.ctx, "auth0|abc", "", "")
	s.Require().NoError(err)

	progression.XP = 777
	progression.TroopsUnlocked = append(progression.TroopsUnlocked, "giant")

	stored, err := s.storage.GetProgression(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), stored.XP)
	s.Empty(stored.TroopsUnlocked)
}
