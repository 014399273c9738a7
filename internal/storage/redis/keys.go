package redis

import (
	"fmt"

	"github.com/petrhn/arena-server/internal/model"
)

// Key prefix for all arena data
const keyPrefix = "arena"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%d", keyPrefix, id)
}

// subjectIndexKey returns the Redis key for the subject -> player_id index
func subjectIndexKey(subject string) string {
	return fmt.Sprintf("%s:idx:subject:%s", keyPrefix, subject)
}

// progressionKey returns the Redis key for a player's Progression
func progressionKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:progression:%d", keyPrefix, playerID)
}

// playerSeqKey returns the Redis key of the player id sequence counter
func playerSeqKey() string {
	return fmt.Sprintf("%s:seq:player", keyPrefix)
}
