package dota

import "context"

// Client is the boundary to the game coordinator connection. The real
// implementation (Steam login, GC protocol) lives behind this interface and
// is injected at bootstrap; the core only issues commands and consumes lobby
// snapshots pushed through OnLobbyUpdate.
type Client interface {
	// AccountID is the bot's own account id. The bot shows up in the lobby
	// member list like any other player.
	AccountID() uint64

	CreateLobby(ctx context.Context, opts LobbyOptions) error
	// ConfigureLobby patches the named fields of an existing lobby.
	ConfigureLobby(ctx context.Context, lobbyID uint64, patch LobbyPatch) error
	LaunchMatch(ctx context.Context) error
	LeaveLobby(ctx context.Context) error

	InviteToLobby(ctx context.Context, accountID uint64) error
	// KickFromLobby removes the member from the lobby entirely.
	KickFromLobby(ctx context.Context, accountID uint64) error
	// KickFromTeam only unseats the member back to unassigned.
	KickFromTeam(ctx context.Context, accountID uint64) error

	JoinChat(ctx context.Context, channel string) error
	SendChatMessage(ctx context.Context, channel, text string) error

	// OnLobbyUpdate registers the callback invoked with a full lobby snapshot
	// on every change the coordinator pushes. Only one callback is supported.
	OnLobbyUpdate(fn func(LobbySnapshot))
}

// LobbyOptions is the fully-resolved option set sent with CreateLobby.
type LobbyOptions struct {
	GameName         string
	PassKey          string
	ServerRegion     ServerRegion
	GameMode         GameMode
	GameVersion      int32
	SeriesType       int32
	CMPick           CMPick
	AllowCheats      bool
	FillWithBots     bool
	AllowSpectating  bool
	RadiantSeriesWin int32
	DireSeriesWin    int32
	AllChat          bool
	TVDelay          int32
	LeagueID         int32
}

// LobbyPatch carries the fields ConfigureLobby may rewrite.
type LobbyPatch struct {
	GameName string
}
