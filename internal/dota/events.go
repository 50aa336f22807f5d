package dota

// Team is a lobby slot group as reported in member snapshots.
type Team int32

const (
	TeamRadiant    Team = 0
	TeamDire       Team = 1
	TeamCaster     Team = 2
	TeamCoach      Team = 3
	TeamUnassigned Team = 4
)

// GameState mirrors the coordinator's game-rules state machine. Only the
// values the core reacts to are named; snapshots may carry others.
type GameState int32

const (
	GameStateInit           GameState = 0
	GameStateWaitForPlayers GameState = 1
	GameStateHeroSelection  GameState = 3
	GameStateInProgress     GameState = 5
	GameStatePostGame       GameState = 8
)

// MatchOutcome values, per the coordinator's shared enums.
type MatchOutcome int32

const (
	OutcomeUnknown               MatchOutcome = 0
	OutcomeRadVictory            MatchOutcome = 2
	OutcomeDireVictory           MatchOutcome = 3
	OutcomeNotScoredPoorNetwork  MatchOutcome = 64
	OutcomeNotScoredLeaver       MatchOutcome = 65
	OutcomeNotScoredServerCrash  MatchOutcome = 66
	OutcomeNotScoredNeverStarted MatchOutcome = 67
	OutcomeNotScoredCanceled     MatchOutcome = 68
)

// ServerRegion protocol values.
type ServerRegion int32

const (
	RegionUnspecified        ServerRegion = 0
	RegionUSWest             ServerRegion = 1
	RegionUSEast             ServerRegion = 2
	RegionEurope             ServerRegion = 3
	RegionKorea              ServerRegion = 4
	RegionSingapore          ServerRegion = 5
	RegionDubai              ServerRegion = 6
	RegionAustralia          ServerRegion = 7
	RegionStockholm          ServerRegion = 8
	RegionAustria            ServerRegion = 9
	RegionBrazil             ServerRegion = 10
	RegionSouthAfrica        ServerRegion = 11
	RegionPWTelecomShanghai  ServerRegion = 12
	RegionPWUnicom           ServerRegion = 13
	RegionChile              ServerRegion = 14
	RegionPeru               ServerRegion = 15
	RegionIndia              ServerRegion = 16
	RegionPWTelecomGuangzhou ServerRegion = 17
	RegionPWTelecomZhejiang  ServerRegion = 18
	RegionJapan              ServerRegion = 19
	RegionPWTelecomWuhan     ServerRegion = 20
)

// GameMode protocol values.
type GameMode int32

const (
	ModeAllPick       GameMode = 1
	ModeCaptainsMode  GameMode = 2
	ModeRandomDraft   GameMode = 3
	ModeSingleDraft   GameMode = 4
	ModeAllRandom     GameMode = 5
	ModeCaptainsDraft GameMode = 16
	ModeAbilityDraft  GameMode = 18
	ModeOneVsOneMid   GameMode = 21
	ModeAllDraft      GameMode = 22
	ModeTurbo         GameMode = 23
)

// CMPick says which side picks first in captains mode.
type CMPick int32

const (
	CMPickRadiant CMPick = 1
	CMPickDire    CMPick = 2
	CMPickRandom  CMPick = 3
)

// Member is one entry of a snapshot's membership list.
type Member struct {
	AccountID uint64
	Name      string
	Team      Team
	Slot      int32
}

// LobbySnapshot is the full lobby state pushed on every coordinator update.
// The core treats snapshots as read-only observations.
type LobbySnapshot struct {
	LobbyID      uint64
	GameName     string
	MatchID      uint64
	GameState    GameState
	MatchOutcome MatchOutcome
	Members      []Member
}
