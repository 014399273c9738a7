package model

// ProgressionUpdate is a partial change set for a progression row.
// Nil fields are left untouched; numeric fields must be non-negative.
type ProgressionUpdate struct {
	Level          *int      `json:"level"`
	XP             *int64    `json:"xp"`
	Coins          *int64    `json:"coins"`
	Gems           *int64    `json:"gems"`
	TroopsUnlocked *[]string `json:"troops_unlocked"`
	Decks          *[]Deck   `json:"decks"`
}

// Empty reports whether no recognized field is present.
func (u *ProgressionUpdate) Empty() bool {
	return u.Level == nil && u.XP == nil && u.Coins == nil && u.Gems == nil &&
		u.TroopsUnlocked == nil && u.Decks == nil
}

// Validate checks every present field and returns a ValidationError naming
// the first offending field. An empty change set is itself invalid.
func (u *ProgressionUpdate) Validate() error {
	if u.Empty() {
		return NewValidationError("progress", "at least one field must be provided")
	}
	if u.Level != nil && *u.Level < 0 {
		return NewValidationError("level", "must be a non-negative integer")
	}
	if u.XP != nil && *u.XP < 0 {
		return NewValidationError("xp", "must be a non-negative integer")
	}
	if u.Coins != nil && *u.Coins < 0 {
		return NewValidationError("coins", "must be a non-negative integer")
	}
	if u.Gems != nil && *u.Gems < 0 {
		return NewValidationError("gems", "must be a non-negative integer")
	}
	return nil
}

// Apply writes the present fields onto p. Level is intentionally not
// applied here: the stored level is always re-derived by the progression
// service after the raw fields land.
func (u *ProgressionUpdate) Apply(p *Progression) {
	if u.XP != nil {
		p.XP = *u.XP
	}
	if u.Coins != nil {
		p.Coins = *u.Coins
	}
	if u.Gems != nil {
		p.Gems = *u.Gems
	}
	if u.TroopsUnlocked != nil {
		p.TroopsUnlocked = *u.TroopsUnlocked
	}
	if u.Decks != nil {
		p.Decks = *u.Decks
	}
}
