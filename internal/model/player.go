package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID uint

// Player is an account created on first sight of an external identity.
// Rows are never deleted by the server; removal is an administrative action
// that cascades to the progression row.
type Player struct {
	ID        PlayerID `gorm:"primaryKey"`
	Subject   string   `gorm:"uniqueIndex;not null"` // external identity subject
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deck is an ordered list of troop identifiers a player has assembled.
// Order between decks is irrelevant.
type Deck struct {
	Name   string   `json:"name"`
	Troops []string `json:"troops"`
}

// Progression is the mutable gameplay state owned 1:1 by a Player.
//
// Level is non-decreasing over time: it is only ever written as
// max(stored level, level resolved from xp), never directly from input.
type Progression struct {
	ID             uint     `gorm:"primaryKey"`
	PlayerID       PlayerID `gorm:"uniqueIndex;not null"`
	Player         *Player  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Level          int      `gorm:"not null;default:1"`
	XP             int64    `gorm:"column:xp;not null;default:0"`
	Coins          int64    `gorm:"not null;default:0"`
	Gems           int64    `gorm:"not null;default:0"`
	TroopsUnlocked []string `gorm:"serializer:json"`
	Decks          []Deck   `gorm:"serializer:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProgression returns the zero-valued progression a freshly created
// player starts with.
func NewProgression(playerID PlayerID, now time.Time) *Progression {
	return &Progression{
		PlayerID:       playerID,
		Level:          1,
		TroopsUnlocked: []string{},
		Decks:          []Deck{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
