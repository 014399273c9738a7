package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/petrhn/arena-server/internal/dependencies/mocks"
	"github.com/petrhn/arena-server/internal/levels"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/services/progression"
	"github.com/petrhn/arena-server/internal/storage/memory"
	"github.com/petrhn/arena-server/internal/testutil"
)

var testSecret = []byte("test-secret")

type IdentitySuite struct {
	suite.Suite
	service  *Service
	verifier *JWTVerifier
	ctx      context.Context
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func (s *IdentitySuite) SetupTest() {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	store := memory.New(clk)
	progressionService := progression.New(store, levels.NewTable(nil), testutil.NopLogger())
	s.service = New(progressionService, testutil.NopLogger())
	s.verifier = NewJWTVerifier(testSecret, "arena-issuer")
	s.ctx = context.Background()
}

func (s *IdentitySuite) signToken(claims tokenClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	s.Require().NoError(err)
	return token
}

// Bind tests

func (s *IdentitySuite) TestBindCreatesPlayerOnFirstSight() {
	player, prog, err := s.service.Bind(s.ctx, &Identity{Subject: "sub-1", Name: "Alice"})
	s.Require().NoError(err)

	s.Equal("sub-1", player.Subject)
	s.Equal("Alice", player.Name)
	s.Equal(1, prog.Level)
}

func (s *IdentitySuite) TestBindReturnsExistingPlayer() {
	first, _, _ := s.service.Bind(s.ctx, &Identity{Subject: "sub-1"})

	second, _, err := s.service.Bind(s.ctx, &Identity{Subject: "sub-1"})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
}

func (s *IdentitySuite) TestBindEmptySubjectFailsValidation() {
	_, _, err := s.service.Bind(s.ctx, &Identity{})
	s.ErrorIs(err, model.ErrValidation)
}

// Verifier tests

func (s *IdentitySuite) TestVerifyValidToken() {
	token := s.signToken(tokenClaims{
		Email: "alice@example.com",
		Name:  "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-1",
			Issuer:    "arena-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := s.verifier.Verify(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("sub-1", identity.Subject)
	s.Equal("alice@example.com", identity.Email)
	s.Equal("Alice", identity.Name)
}

func (s *IdentitySuite) TestVerifyRejectsWrongSecret() {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1", Issuer: "arena-issuer"},
	}).SignedString([]byte("other-secret"))
	s.Require().NoError(err)

	_, err = s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IdentitySuite) TestVerifyRejectsExpiredToken() {
	token := s.signToken(tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-1",
			Issuer:    "arena-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IdentitySuite) TestVerifyRejectsWrongIssuer() {
	token := s.signToken(tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "sub-1",
			Issuer:  "someone-else",
		},
	})

	_, err := s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IdentitySuite) TestVerifyRejectsMissingSubject() {
	token := s.signToken(tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "arena-issuer"},
	})

	_, err := s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *IdentitySuite) TestVerifyRejectsGarbage() {
	_, err := s.verifier.Verify(s.ctx, "not-a-token")
	s.ErrorIs(err, ErrInvalidToken)
}
