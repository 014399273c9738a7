package levels

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sort"
)

// Threshold maps an experience amount to the level reached at that amount
type Threshold struct {
	Level     int   `json:"level"`
	XPToReach int64 `json:"xp_to_reach"`
}

// Table is an immutable level threshold table, ordered ascending by
// XPToReach. It is loaded once at startup and shared read-only.
type Table struct {
	thresholds []Threshold
}

// NewTable creates a table from the given thresholds, sorting them
// ascending by XPToReach.
func NewTable(thresholds []Threshold) *Table {
	sorted := make([]Threshold, len(thresholds))
	copy(sorted, thresholds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].XPToReach < sorted[j].XPToReach
	})
	return &Table{thresholds: sorted}
}

// Len returns the number of thresholds in the table
func (t *Table) Len() int {
	return len(t.thresholds)
}

// Resolve maps accumulated xp to a level, starting from currentLevel.
// Negative xp is a defensive no-op returning currentLevel unchanged.
// An empty table resolves to max(currentLevel, 1). Resolve never fails.
func (t *Table) Resolve(xp int64, currentLevel int) int {
	if xp < 0 {
		return currentLevel
	}
	if len(t.thresholds) == 0 {
		if currentLevel < 1 {
			return 1
		}
		return currentLevel
	}

	level := currentLevel
	for _, th := range t.thresholds {
		if th.XPToReach > xp {
			break
		}
		level = th.Level
	}
	return level
}

// LoadFromFile reads a threshold table from a JSON file.
// A missing or unreadable file is an error; malformed contents are not.
func LoadFromFile(path string, logger *slog.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, logger), nil
}

// Parse decodes a threshold table from JSON. The source is expected to be
// an array of {"level": n, "xp_to_reach": n} objects. Malformed entries are
// coerced (non-numeric level -> 1, non-numeric xp_to_reach -> 0) rather
// than rejected; a non-array source yields an empty table with a warning.
func Parse(r io.Reader, logger *slog.Logger) *Table {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		logger.Warn("level thresholds are not valid JSON, using empty table",
			slog.String("error", err.Error()))
		return NewTable(nil)
	}

	entries, ok := raw.([]any)
	if !ok {
		logger.Warn("level thresholds are not an array, using empty table")
		return NewTable(nil)
	}

	thresholds := make([]Threshold, 0, len(entries))
	for i, entry := range entries {
		th := Threshold{Level: 1, XPToReach: 0}
		fields, ok := entry.(map[string]any)
		if !ok {
			logger.Warn("coerced malformed threshold entry", slog.Int("index", i))
			thresholds = append(thresholds, th)
			continue
		}
		if level, ok := fields["level"].(float64); ok {
			th.Level = int(level)
		} else {
			logger.Warn("coerced non-numeric threshold level", slog.Int("index", i))
		}
		if xp, ok := fields["xp_to_reach"].(float64); ok {
			th.XPToReach = int64(xp)
		} else {
			logger.Warn("coerced non-numeric threshold xp_to_reach", slog.Int("index", i))
		}
		thresholds = append(thresholds, th)
	}

	return NewTable(thresholds)
}
