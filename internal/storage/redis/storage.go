package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrhn/arena-server/internal/dependencies/clock"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/storage"
)

// maxTxRetries bounds the optimistic WATCH loops
const maxTxRetries = 5

// Storage is a Redis-backed implementation of the storage interface.
// Records are stored as JSON values under prefixed keys; every
// read-modify-write path runs under WATCH so concurrent writers never
// clobber each other.
type Storage struct {
	client *redis.Client
	clock  clock.Clock
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config, clk clock.Clock) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client, clock: clk, cfg: cfg}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *Storage {
	return &Storage{client: client, clock: clk, cfg: cfg}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// EnsurePlayer runs under WATCH on the subject index key. First sight
// commits the index and both rows in one transaction, so a concurrent
// caller can never observe the index without the rows; the loser of a
// creation race retries, finds the index, and takes the existing path.
func (s *Storage) EnsurePlayer(ctx context.Context, subject, email, name string) (*model.Player, *model.Progression, error) {
	indexKey := subjectIndexKey(subject)

	for i := 0; i < maxTxRetries; i++ {
		var player *model.Player
		var progression *model.Progression
		var existingID model.PlayerID
		found := false

		txn := func(tx *redis.Tx) error {
			idStr, err := tx.Get(ctx, indexKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				id64, perr := strconv.ParseInt(idStr, 10, 64)
				if perr != nil {
					return perr
				}
				existingID = model.PlayerID(id64)
				found = true
				return nil
			}

			// Allocate an id outside the transaction; a lost race just
			// burns a sequence number.
			id64, err := s.client.Incr(ctx, playerSeqKey()).Result()
			if err != nil {
				return err
			}
			id := model.PlayerID(id64)
			now := s.clock.Now()

			player = &model.Player{
				ID:        id,
				Subject:   subject,
				Email:     email,
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			progression = model.NewProgression(id, now)

			playerData, err := json.Marshal(player)
			if err != nil {
				return err
			}
			progressionData, err := json.Marshal(progression)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, indexKey, int64(id), 0)
				pipe.Set(ctx, playerKey(id), playerData, 0)
				pipe.Set(ctx, progressionKey(id), progressionData, 0)
				return nil
			})
			return err
		}

		err := s.client.Watch(ctx, txn, indexKey)
		if err != nil {
			if errors.Is(err, redis.TxFailedErr) {
				continue
			}
			return nil, nil, err
		}
		if found {
			return s.refreshExisting(ctx, existingID, email, name)
		}
		return player, progression, nil
	}
	return nil, nil, redis.TxFailedErr
}

// refreshExisting returns an existing player's pair. When a non-empty
// display attribute is supplied the player row is rewritten under WATCH,
// so two concurrent refreshes cannot lose each other's attributes; with
// nothing to write it is a plain read.
func (s *Storage) refreshExisting(ctx context.Context, id model.PlayerID, email, name string) (*model.Player, *model.Progression, error) {
	if email == "" && name == "" {
		player, err := s.GetPlayer(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		progression, err := s.GetProgression(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return player, progression, nil
	}

	key := playerKey(id)
	var player *model.Player

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}

		var p model.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}

		if email != "" {
			p.Email = email
		}
		if name != "" {
			p.Name = name
		}
		p.UpdatedAt = s.clock.Now()

		updated, err := json.Marshal(&p)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}

		player = &p
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			progression, err := s.GetProgression(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			return player, progression, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, nil, err
	}
	return nil, nil, redis.TxFailedErr
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetProgression(ctx context.Context, playerID model.PlayerID) (*model.Progression, error) {
	data, err := s.client.Get(ctx, progressionKey(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProgressionNotFound
		}
		return nil, err
	}

	var progression model.Progression
	if err := json.Unmarshal(data, &progression); err != nil {
		return nil, err
	}
	return &progression, nil
}

func (s *Storage) UpdateProgression(ctx context.Context, playerID model.PlayerID, apply func(*model.Progression) error) (*model.Progression, error) {
	key := progressionKey(playerID)
	var result *model.Progression

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrProgressionNotFound
			}
			return err
		}

		var progression model.Progression
		if err := json.Unmarshal(data, &progression); err != nil {
			return err
		}

		if err := apply(&progression); err != nil {
			return err
		}
		progression.UpdatedAt = s.clock.Now()

		updated, err := json.Marshal(&progression)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}

		result = &progression
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, redis.TxFailedErr
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}
