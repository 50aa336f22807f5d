package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB bundles the gorm-backed implementations of the persistence interfaces.
type DB struct {
	gdb *gorm.DB
}

func Open(dsn string) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &DB{gdb: gdb}, nil
}

func (db *DB) AutoMigrate() error {
	return db.gdb.AutoMigrate(&Lobby{}, &LobbyPlayer{}, &Bot{}, &Settings{})
}

func (db *DB) Lobbies() Lobbies { return &lobbies{gdb: db.gdb} }
func (db *DB) Bots() Bots       { return &bots{gdb: db.gdb} }
func (db *DB) Config() Config   { return &config{gdb: db.gdb} }

type lobbies struct {
	gdb *gorm.DB
}

func (l *lobbies) FindByID(ctx context.Context, id uint) (*Lobby, error) {
	var lobby Lobby
	err := l.gdb.WithContext(ctx).Preload("Players").First(&lobby, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (l *lobbies) Update(ctx context.Context, lobby *Lobby, patch LobbyPatch) (*Lobby, error) {
	fields := map[string]any{}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.MatchID != nil {
		fields["match_id"] = *patch.MatchID
	}
	if patch.MatchResult != nil {
		fields["match_result"] = *patch.MatchResult
	}
	if len(fields) > 0 {
		err := l.gdb.WithContext(ctx).Model(&Lobby{}).Where("id = ?", lobby.ID).Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return l.FindByID(ctx, lobby.ID)
}

func (l *lobbies) UpdatePlayer(ctx context.Context, lobbyID uint, accountID uint64, patch PlayerPatch) error {
	if patch.IsReady == nil {
		return nil
	}
	return l.gdb.WithContext(ctx).
		Model(&LobbyPlayer{}).
		Where("lobby_id = ? AND account_id = ?", lobbyID, accountID).
		Update("is_ready", *patch.IsReady).Error
}

type bots struct {
	gdb *gorm.DB
}

func (b *bots) FindByID(ctx context.Context, id uint) (*Bot, error) {
	var bot Bot
	err := b.gdb.WithContext(ctx).First(&bot, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (b *bots) Update(ctx context.Context, bot *Bot, patch BotPatch) (*Bot, error) {
	if patch.Status != nil {
		err := b.gdb.WithContext(ctx).Model(&Bot{}).Where("id = ?", bot.ID).
			Update("status", *patch.Status).Error
		if err != nil {
			return nil, err
		}
	}
	return b.FindByID(ctx, bot.ID)
}

type config struct {
	gdb *gorm.DB
}

// Get reads the single settings row.
func (c *config) Get(ctx context.Context) (Settings, error) {
	var s Settings
	if err := c.gdb.WithContext(ctx).First(&s).Error; err != nil {
		return Settings{}, err
	}
	return s, nil
}
