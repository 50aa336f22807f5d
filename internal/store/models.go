package store

import "time"

type LobbyStatus string

const (
	StatusOpen       LobbyStatus = "OPEN"
	StatusInProgress LobbyStatus = "IN_PROGRESS"
	StatusClosed     LobbyStatus = "CLOSED"
	StatusCancelled  LobbyStatus = "CANCELLED"
)

// Terminal reports whether the status is one of the two end states.
func (s LobbyStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

type MatchResult string

const (
	ResultRadiantVictory    MatchResult = "RADIANT_VICTORY"
	ResultDireVictory       MatchResult = "DIRE_VICTORY"
	ResultUnableToDetermine MatchResult = "UNABLE_TO_DETERMINE"
)

type BotStatus string

const (
	BotOffline BotStatus = "OFFLINE"
	BotIdle    BotStatus = "IDLE"
	BotInLobby BotStatus = "IN_LOBBY"
	BotInMatch BotStatus = "IN_MATCH"
)

// Server is the stored region choice, mapped to a protocol region at lobby
// creation.
type Server string

const (
	ServerUSWest             Server = "US_WEST"
	ServerUSEast             Server = "US_EAST"
	ServerLuxembourg         Server = "LUXEMBOURG"
	ServerKorea              Server = "KOREA"
	ServerSingapore          Server = "SINGAPORE"
	ServerDubai              Server = "DUBAI"
	ServerAustralia          Server = "AUSTRALIA"
	ServerStockholm          Server = "STOCKHOLM"
	ServerAustria            Server = "AUSTRIA"
	ServerBrazil             Server = "BRAZIL"
	ServerSouthAfrica        Server = "SOUTH_AFRICA"
	ServerPWTelecomShanghai  Server = "PW_TELECOM_SHANGHAI"
	ServerPWUnicom           Server = "PW_UNICOM"
	ServerChile              Server = "CHILE"
	ServerPeru               Server = "PERU"
	ServerIndia              Server = "INDIA"
	ServerPWTelecomGuangzhou Server = "PW_TELECOM_GUANGZHOU"
	ServerPWTelecomZhejiang  Server = "PW_TELECOM_ZHEJIANG"
	ServerJapan              Server = "JAPAN"
	ServerPWTelecomWuhan     Server = "PW_TELECOM_WUHAN"
)

// GameMode is the stored mode choice.
type GameMode string

const (
	ModeAllPick       GameMode = "ALL_PICK"
	ModeAllDraft      GameMode = "ALL_DRAFT"
	ModeCaptainsMode  GameMode = "CAPTAINS_MODE"
	ModeRandomDraft   GameMode = "RANDOM_DRAFT"
	ModeSingleDraft   GameMode = "SINGLE_DRAFT"
	ModeAllRandom     GameMode = "ALL_RANDOM"
	ModeCaptainsDraft GameMode = "CAPTAINS_DRAFT"
	ModeAbilityDraft  GameMode = "ABILITY_DRAFT"
	ModeOneVsOneMid   GameMode = "ONE_VS_ONE_MID"
	ModeTurbo         GameMode = "TURBO"
)

// Lobby is the persisted record of one managed session. The in-memory copy
// held by the orchestrator is authoritative while the session runs; every
// mutation is mirrored here through Lobbies.Update.
type Lobby struct {
	ID                  uint `gorm:"primaryKey"`
	Name                string
	Password            string
	Server              Server
	GameMode            GameMode
	RadiantHasFirstPick bool
	Status              LobbyStatus
	MatchID             *uint64
	MatchResult         *MatchResult
	Players             []LobbyPlayer `gorm:"foreignKey:LobbyID"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LobbyPlayer is one expected roster entry. Side and captain flag are fixed
// at session creation; only IsReady changes afterwards.
type LobbyPlayer struct {
	ID        uint `gorm:"primaryKey"`
	LobbyID   uint `gorm:"index"`
	AccountID uint64
	IsRadiant bool
	IsCaptain bool
	IsReady   bool
}

type Bot struct {
	ID        uint `gorm:"primaryKey"`
	Username  string
	Password  string
	Status    BotStatus
	Sentry    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Settings is the single-row operational configuration read at session
// start.
type Settings struct {
	ID                  uint `gorm:"primaryKey"`
	LobbyTimeoutSeconds int
	LeagueID            int32
}
