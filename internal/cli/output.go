package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case MigrateResult:
		o.printMigrateResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID        uint      `json:"id"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deck response type
type Deck struct {
	Name   string   `json:"name"`
	Troops []string `json:"troops"`
}

// Progress response type
type Progress struct {
	Level          int       `json:"level"`
	XP             int64     `json:"xp"`
	Coins          int64     `json:"coins"`
	Gems           int64     `json:"gems"`
	TroopsUnlocked []string  `json:"troops_unlocked"`
	Decks          []Deck    `json:"decks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile response type
type Profile struct {
	User     User     `json:"user"`
	Progress Progress `json:"progress"`
}

// MigrateResult response type
type MigrateResult struct {
	User     User     `json:"user"`
	Progress Progress `json:"progress"`
	Migrated bool     `json:"migrated"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printProfile(p Profile) {
	displayName := p.User.Name
	if displayName == "" {
		displayName = p.User.Subject
	}
	fmt.Printf("Player: %s (#%d)\n", displayName, p.User.ID)
	if p.User.Email != "" {
		fmt.Printf("Email: %s\n", p.User.Email)
	}
	o.printProgress(p.Progress)
}

func (o *Output) printProgress(p Progress) {
	fmt.Printf("Level: %d\n", p.Level)
	fmt.Printf("XP: %d\n", p.XP)
	fmt.Printf("Coins: %d\n", p.Coins)
	fmt.Printf("Gems: %d\n", p.Gems)
	if len(p.TroopsUnlocked) > 0 {
		fmt.Printf("Troops: %s\n", strings.Join(p.TroopsUnlocked, ", "))
	}
	for _, d := range p.Decks {
		fmt.Printf("Deck %q: %s\n", d.Name, strings.Join(d.Troops, ", "))
	}
}

func (o *Output) printMigrateResult(m MigrateResult) {
	if m.Migrated {
		fmt.Println("Progress migrated")
	}
	o.printProfile(Profile{User: m.User, Progress: m.Progress})
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
