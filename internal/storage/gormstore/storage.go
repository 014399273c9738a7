package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/storage"
)

// Storage is a relational implementation of the storage interface backed
// by gorm. The schema is bootstrapped with AutoMigrate; the progression
// table carries a cascading foreign key to the player table.
type Storage struct {
	db *gorm.DB
}

// New opens a SQLite database at the given DSN and migrates the schema
func New(dsn string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm handle and migrates the schema
func NewWithDB(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&model.Player{}, &model.Progression{}); err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) EnsurePlayer(ctx context.Context, subject, email, name string) (*model.Player, *model.Progression, error) {
	var player model.Player
	var progression model.Progression

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Upsert keyed on the subject: display attributes win only when
		// the incoming value is non-empty, and a refresh touches
		// updated_at like the other backends do.
		assigns := map[string]any{}
		if email != "" {
			assigns["email"] = email
		}
		if name != "" {
			assigns["name"] = name
		}
		if len(assigns) > 0 {
			assigns["updated_at"] = time.Now()
		}

		onConflict := clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}},
			DoNothing: len(assigns) == 0,
		}
		if len(assigns) > 0 {
			onConflict.DoUpdates = clause.Assignments(assigns)
		}

		insert := model.Player{Subject: subject, Email: email, Name: name}
		if err := tx.Clauses(onConflict).Create(&insert).Error; err != nil {
			return err
		}

		if err := tx.Where("subject = ?", subject).First(&player).Error; err != nil {
			return err
		}

		// Create the zero-valued progression on first sight only
		fresh := model.NewProgression(player.ID, player.CreatedAt)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
			return err
		}

		return tx.Where("player_id = ?", player.ID).First(&progression).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return &player, &progression, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	err := s.db.WithContext(ctx).First(&player, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetProgression(ctx context.Context, playerID model.PlayerID) (*model.Progression, error) {
	var progression model.Progression
	err := s.db.WithContext(ctx).First(&progression, "player_id = ?", playerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrProgressionNotFound
		}
		return nil, err
	}
	return &progression, nil
}

func (s *Storage) UpdateProgression(ctx context.Context, playerID model.PlayerID, apply func(*model.Progression) error) (*model.Progression, error) {
	var progression model.Progression

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&progression, "player_id = ?", playerID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrProgressionNotFound
			}
			return err
		}

		if err := apply(&progression); err != nil {
			return err
		}

		return tx.Save(&progression).Error
	})
	if err != nil {
		return nil, err
	}

	return &progression, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
