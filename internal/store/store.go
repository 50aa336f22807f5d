package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

// LobbyPatch names the lobby fields an update may rewrite. Nil fields are
// left untouched.
type LobbyPatch struct {
	Status      *LobbyStatus
	MatchID     *uint64
	MatchResult *MatchResult
}

// PlayerPatch names the roster-player fields an update may rewrite.
type PlayerPatch struct {
	IsReady *bool
}

// BotPatch names the bot fields an update may rewrite.
type BotPatch struct {
	Status *BotStatus
}

// Lobbies is the lobby persistence boundary. Update applies the patch and
// returns the updated record so callers can swap their in-memory copy.
type Lobbies interface {
	FindByID(ctx context.Context, id uint) (*Lobby, error)
	Update(ctx context.Context, lobby *Lobby, patch LobbyPatch) (*Lobby, error)
	UpdatePlayer(ctx context.Context, lobbyID uint, accountID uint64, patch PlayerPatch) error
}

type Bots interface {
	FindByID(ctx context.Context, id uint) (*Bot, error)
	Update(ctx context.Context, bot *Bot, patch BotPatch) (*Bot, error)
}

// Config reads the operational settings row.
type Config interface {
	Get(ctx context.Context) (Settings, error)
}

func ptr[T any](v T) *T { return &v }

// StatusPatch is shorthand for a patch that only moves the status.
func StatusPatch(s LobbyStatus) LobbyPatch { return LobbyPatch{Status: ptr(s)} }

// ReadyPatch is shorthand for a patch that only flips readiness.
func ReadyPatch(ready bool) PlayerPatch { return PlayerPatch{IsReady: ptr(ready)} }

// BotStatusPatch is shorthand for a patch that only moves the bot status.
func BotStatusPatch(s BotStatus) BotPatch { return BotPatch{Status: ptr(s)} }
