package response

import (
	"time"

	"github.com/petrhn/arena-server/internal/model"
)

// User represents a player account in API responses
type User struct {
	ID        uint      `json:"id"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserFromModel converts a model.Player to a response User
func UserFromModel(p *model.Player) User {
	return User{
		ID:        uint(p.ID),
		Subject:   p.Subject,
		Email:     p.Email,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Progress represents a progression row in API responses
type Progress struct {
	Level          int          `json:"level"`
	XP             int64        `json:"xp"`
	Coins          int64        `json:"coins"`
	Gems           int64        `json:"gems"`
	TroopsUnlocked []string     `json:"troops_unlocked"`
	Decks          []model.Deck `json:"decks"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ProgressFromModel converts a model.Progression to a response Progress
func ProgressFromModel(p *model.Progression) Progress {
	troops := p.TroopsUnlocked
	if troops == nil {
		troops = []string{}
	}
	decks := p.Decks
	if decks == nil {
		decks = []model.Deck{}
	}
	return Progress{
		Level:          p.Level,
		XP:             p.XP,
		Coins:          p.Coins,
		Gems:           p.Gems,
		TroopsUnlocked: troops,
		Decks:          decks,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// Profile is the response for profile fetch and progress update
type Profile struct {
	User     User     `json:"user"`
	Progress Progress `json:"progress"`
}

// ProfileFromModel builds a Profile from the player and progression rows
func ProfileFromModel(player *model.Player, progression *model.Progression) Profile {
	return Profile{
		User:     UserFromModel(player),
		Progress: ProgressFromModel(progression),
	}
}

// Migrated is the response for guest migration
type Migrated struct {
	User     User     `json:"user"`
	Progress Progress `json:"progress"`
	Migrated bool     `json:"migrated"`
}
