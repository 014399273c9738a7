package progression

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/petrhn/arena-server/internal/dependencies/mocks"
	"github.com/petrhn/arena-server/internal/levels"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/storage/memory"
	"github.com/petrhn/arena-server/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = memory.New(s.clock)
	table := levels.NewTable([]levels.Threshold{
		{Level: 1, XPToReach: 0},
		{Level: 2, XPToReach: 100},
		{Level: 3, XPToReach: 300},
	})
	s.service = New(s.storage, table, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) ensurePlayer() model.PlayerID {
	player, _, err := s.service.Ensure(s.ctx, "sub-1", "alice@example.com", "Alice")
	s.Require().NoError(err)
	return player.ID
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// Ensure tests

func (s *ServiceSuite) TestEnsureCreatesPlayerAndProgression() {
	player, progression, err := s.service.Ensure(s.ctx, "sub-1", "alice@example.com", "Alice")
	s.Require().NoError(err)

	s.Equal("sub-1", player.Subject)
	s.Equal("Alice", player.Name)
	s.Equal(1, progression.Level)
	s.Equal(int64(0), progression.XP)
	s.Empty(progression.TroopsUnlocked)
}

func (s *ServiceSuite) TestEnsureIsIdempotent() {
	first, _, err := s.service.Ensure(s.ctx, "sub-1", "", "Alice")
	s.Require().NoError(err)

	second, progression, err := s.service.Ensure(s.ctx, "sub-1", "", "")
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("Alice", second.Name)
	s.Equal(1, progression.Level)
}

func (s *ServiceSuite) TestEnsureUpdatesDisplayAttributes() {
	first, _, _ := s.service.Ensure(s.ctx, "sub-1", "old@example.com", "Old")

	second, _, err := s.service.Ensure(s.ctx, "sub-1", "new@example.com", "New")
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("new@example.com", second.Email)
	s.Equal("New", second.Name)
}

func (s *ServiceSuite) TestEnsureConcurrentCallsCreateOneRow() {
	const n = 16
	ids := make([]model.PlayerID, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player, _, err := s.service.Ensure(s.ctx, "sub-racy", "", "Racer")
			s.NoError(err)
			ids[i] = player.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		s.Equal(ids[0], id)
	}
}

func (s *ServiceSuite) TestUpdateLocksAreScopedPerPlayer() {
	s.Same(s.service.lockFor(1), s.service.lockFor(1))
	s.NotSame(s.service.lockFor(1), s.service.lockFor(2))
}

// Update validation tests

func (s *ServiceSuite) TestUpdateEmptyChangeSetFailsValidation() {
	id := s.ensurePlayer()

	_, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{})
	s.ErrorIs(err, model.ErrValidation)

	// No write happened
	_, progression, _ := s.service.Get(s.ctx, id)
	s.Equal(int64(0), progression.XP)
}

func (s *ServiceSuite) TestUpdateNegativeFieldFailsValidation() {
	id := s.ensurePlayer()

	_, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(-5)})
	s.ErrorIs(err, model.ErrValidation)

	var verr *model.ValidationError
	s.ErrorAs(err, &verr)
	s.Equal("xp", verr.Field)
}

func (s *ServiceSuite) TestUpdateUnknownPlayerFailsNotFound() {
	_, err := s.service.Update(s.ctx, 9999, &model.ProgressionUpdate{XP: int64Ptr(10)})
	s.ErrorIs(err, model.ErrProgressionNotFound)
}

// Level derivation tests

func (s *ServiceSuite) TestUpdateXPCrossesThreshold() {
	id := s.ensurePlayer()

	progression, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(150)})
	s.Require().NoError(err)

	s.Equal(int64(150), progression.XP)
	s.Equal(2, progression.Level)
}

func (s *ServiceSuite) TestUpdateXPDecreaseKeepsLevel() {
	id := s.ensurePlayer()

	_, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(150)})
	s.Require().NoError(err)

	progression, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(120)})
	s.Require().NoError(err)

	// The raw xp field applies as requested but the level never regresses
	s.Equal(int64(120), progression.XP)
	s.Equal(2, progression.Level)
}

func (s *ServiceSuite) TestUpdateExplicitLowerLevelIsIgnored() {
	id := s.ensurePlayer()

	_, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(350)})
	s.Require().NoError(err)

	progression, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{Level: intPtr(1)})
	s.Require().NoError(err)

	s.Equal(3, progression.Level)
}

func (s *ServiceSuite) TestUpdateLevelNeverDecreasesAcrossSequence() {
	id := s.ensurePlayer()

	xps := []int64{50, 150, 100, 300, 0, 500}
	prevLevel := 1
	for _, xp := range xps {
		progression, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(xp)})
		s.Require().NoError(err)
		s.GreaterOrEqual(progression.Level, prevLevel, "level regressed at xp=%d", xp)
		prevLevel = progression.Level
	}
}

func (s *ServiceSuite) TestUpdateCurrencyAndUnlocks() {
	id := s.ensurePlayer()

	troops := []string{"giant", "archer"}
	decks := []model.Deck{{Name: "main", Troops: troops}}
	progression, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{
		Coins:          int64Ptr(500),
		Gems:           int64Ptr(20),
		TroopsUnlocked: &troops,
		Decks:          &decks,
	})
	s.Require().NoError(err)

	s.Equal(int64(500), progression.Coins)
	s.Equal(int64(20), progression.Gems)
	s.Equal(troops, progression.TroopsUnlocked)
	s.Equal(decks, progression.Decks)
	// Untouched fields survive
	s.Equal(int64(0), progression.XP)
	s.Equal(1, progression.Level)
}

func (s *ServiceSuite) TestUpdateRefreshesTimestamp() {
	id := s.ensurePlayer()
	created := s.clock.CurrentTime

	s.clock.Advance(time.Minute)
	progression, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(10)})
	s.Require().NoError(err)

	s.Equal(created.Add(time.Minute), progression.UpdatedAt)
}

func (s *ServiceSuite) TestConcurrentUpdatesSamePlayerKeepLevelMonotonic() {
	id := s.ensurePlayer()

	var wg sync.WaitGroup
	for _, xp := range []int64{50, 150, 350, 20, 400, 90} {
		wg.Add(1)
		go func(xp int64) {
			defer wg.Done()
			_, err := s.service.Update(s.ctx, id, &model.ProgressionUpdate{XP: int64Ptr(xp)})
			s.NoError(err)
		}(xp)
	}
	wg.Wait()

	_, progression, err := s.service.Get(s.ctx, id)
	s.Require().NoError(err)
	// 400 was applied at some point, so level 3 must have been reached
	// and can never have been lost
	s.Equal(3, progression.Level)
}
