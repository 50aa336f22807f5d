package comms

import (
	"encoding/json"

	"github.com/andre-estevam-brainweb/daas-core/internal/store"
)

// MessageType tags every frame exchanged with the supervising worker.
type MessageType string

const (
	// Core -> worker
	MsgBootOK             MessageType = "BOOT_OK"
	MsgDotaOK             MessageType = "DOTA_OK"
	MsgLobbyOK            MessageType = "LOBBY_OK"
	MsgPlayerStatusUpdate MessageType = "PLAYER_STATUS_UPDATE"
	MsgGameStarted        MessageType = "GAME_STARTED"
	MsgGameFinished       MessageType = "GAME_FINISHED"
	MsgGameCancelled      MessageType = "GAME_CANCELLED"

	// Worker -> core
	MsgDotaBotInfo  MessageType = "DOTA_BOT_INFO"
	MsgLobbyInfo    MessageType = "LOBBY_INFO"
	MsgResendInvite MessageType = "RESEND_INVITE"
	MsgKillYourself MessageType = "KILL_YOURSELF"
)

// Envelope is the wire frame: a message id, a type, and a type-specific
// payload.
type Envelope struct {
	ID   string          `json:"id"`
	Type MessageType     `json:"type"`
	Info json.RawMessage `json:"info,omitempty"`
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Info, v)
}

type BotInfo struct {
	BotID uint `json:"botId"`
}

type LobbyInfo struct {
	LobbyID uint `json:"lobbyId"`
}

type PlayerStatus struct {
	AccountID uint64 `json:"accountId"`
	IsReady   bool   `json:"isReady"`
}

type GameStarted struct {
	MatchID uint64 `json:"matchId"`
}

type GameFinished struct {
	MatchResult store.MatchResult `json:"matchResult"`
}

// GameCancelled carries the players that never became ready.
type GameCancelled struct {
	NotReady []uint64 `json:"notReady"`
}

type ResendInvite struct {
	AccountID uint64 `json:"accountId"`
}
