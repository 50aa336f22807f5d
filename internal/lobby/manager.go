// Package lobby drives one match-lobby session end to end: it creates the
// lobby through the game-client connection, polices team placement, tracks
// readiness, launches the match when everyone is seated, and races match
// completion against a join timeout to decide the terminal status.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andre-estevam-brainweb/daas-core/internal/comms"
	"github.com/andre-estevam-brainweb/daas-core/internal/dota"
	"github.com/andre-estevam-brainweb/daas-core/internal/store"
	"github.com/andre-estevam-brainweb/daas-core/internal/stream"
)

var (
	ErrCreationFailed = errors.New("lobby creation rejected")
	ErrShutdownFailed = errors.New("lobby shutdown failed")
	ErrEmptyRoster    = errors.New("lobby has no players")
	ErrSessionClosed  = errors.New("session already shut down")
)

// chatRetryDelay paces sends attempted before the chat channel exists.
const chatRetryDelay = 2 * time.Second

// Notifier is the outbound half of the worker messaging channel.
type Notifier interface {
	Send(ctx context.Context, t comms.MessageType, info any) error
}

// Deps are the collaborators a Manager drives.
type Deps struct {
	Client   dota.Client
	Lobbies  store.Lobbies
	Config   store.Config
	Notifier Notifier
	Log      *zap.Logger

	// OnMatchStarted, if set, runs once when the match id is first observed,
	// after it has been persisted and forwarded to the worker.
	OnMatchStarted func(matchID uint64)
}

// Manager owns one session. All in-memory session state is mutated only
// through the manager; every mutation is mirrored to the store best-effort.
type Manager struct {
	client  dota.Client
	lobbies store.Lobbies
	notify  Notifier
	log     *zap.Logger

	mux      *stream.Mux
	ready    *readiness
	roster   map[uint64]rosterEntry
	settings store.Settings
	outcome  *outcome

	onMatchStarted func(uint64)

	recordID uint
	ctx      context.Context
	cancel   context.CancelFunc

	mu          sync.Mutex
	lobby       *store.Lobby
	lobbyID     uint64
	matchID     uint64
	chatChannel string
	launched    bool
	shut        bool
}

// Create acquires the lobby from the game client, unseats the bot from its
// auto-joined slot, wires all reactions, invites the roster, persists OPEN
// and notifies the worker. A rejected creation is surfaced and nothing is
// retried at this layer.
func Create(ctx context.Context, deps Deps, lobby *store.Lobby) (*Manager, error) {
	if len(lobby.Players) == 0 {
		return nil, fmt.Errorf("lobby %d: %w", lobby.ID, ErrEmptyRoster)
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	settings, err := deps.Config.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	m := &Manager{
		client:         deps.Client,
		lobbies:        deps.Lobbies,
		notify:         deps.Notifier,
		log:            log,
		mux:            stream.NewMux(),
		ready:          newReadiness(lobby.Players),
		roster:         make(map[uint64]rosterEntry, len(lobby.Players)),
		settings:       settings,
		outcome:        newOutcome(),
		onMatchStarted: deps.OnMatchStarted,
		recordID:       lobby.ID,
		ctx:            sctx,
		cancel:         cancel,
		lobby:          lobby,
	}
	for _, p := range lobby.Players {
		m.roster[p.AccountID] = rosterEntry{
			accountID: p.AccountID,
			isRadiant: p.IsRadiant,
			isCaptain: p.IsCaptain,
		}
	}

	// Feed raw coordinator updates into the hub before creating the lobby so
	// no early snapshot is missed.
	m.client.OnLobbyUpdate(m.mux.Publish)

	if err := m.client.CreateLobby(ctx, lobbyOptions(lobby, settings)); err != nil {
		cancel()
		return nil, fmt.Errorf("create lobby %q: %w: %w", lobby.Name, ErrCreationFailed, err)
	}

	// The bot auto-joins the first slot. Unseat it before anyone else shows
	// up; the session isn't OPEN until this succeeds.
	if err := m.client.KickFromTeam(ctx, m.client.AccountID()); err != nil {
		cancel()
		return nil, fmt.Errorf("unseat bot: %w: %w", ErrCreationFailed, err)
	}

	m.wire()

	for _, p := range lobby.Players {
		if err := m.client.InviteToLobby(ctx, p.AccountID); err != nil {
			log.Warn("invite failed", zap.Uint64("account_id", p.AccountID), zap.Error(err))
		}
	}

	m.setStatus(store.StatusOpen, store.LobbyPatch{})
	if err := m.notify.Send(ctx, comms.MsgLobbyOK, nil); err != nil {
		log.Warn("lobby-ok notification failed", zap.Error(err))
	}
	log.Info("lobby created", zap.String("name", lobby.Name), zap.Int("players", len(lobby.Players)))
	return m, nil
}

// wire registers every reaction on the hub, each isolated behind the sink so
// one failing reaction never stalls its siblings.
func (m *Manager) wire() {
	m.mux.OnFirstSnapshot(stream.Guarded(m.log, "lobbyTimeout", m.armTimeout))
	m.mux.OnLobbyID(stream.Guarded(m.log, "lobbyIdReceived", m.handleLobbyID))
	m.mux.OnMatchAssigned(stream.Guarded(m.log, "matchIdReceived", m.handleMatchAssigned))
	m.mux.OnMatchOutcome(stream.Guarded(m.log, "matchOutcomeReceived", m.handleMatchOutcome))
	m.mux.OnMemberUpdate(stream.Guarded(m.log, "memberPositionUpdated", m.handleMemberUpdate))
}

// WaitUntilResultOrCancellation blocks until the outcome race resolves and
// returns the terminal status. Calling it after Shutdown is a usage error.
func (m *Manager) WaitUntilResultOrCancellation(ctx context.Context) (store.LobbyStatus, error) {
	m.mu.Lock()
	shut := m.shut
	m.mu.Unlock()
	if shut {
		return "", ErrSessionClosed
	}
	return m.outcome.wait(ctx)
}

// Shutdown leaves the lobby and tears down every subscription. If the game
// client rejects the leave, the session is left untouched and the failure is
// surfaced with the underlying message.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.client.LeaveLobby(ctx); err != nil {
		return fmt.Errorf("%w: leave lobby: %v", ErrShutdownFailed, err)
	}
	m.mu.Lock()
	m.shut = true
	m.mu.Unlock()
	m.mux.Close()
	m.cancel()
	return nil
}

// Invite re-issues a lobby invite for one player, typically on a worker
// re-invite request.
func (m *Manager) Invite(ctx context.Context, accountID uint64) error {
	return m.client.InviteToLobby(ctx, accountID)
}

// armTimeout starts the join countdown on the first snapshot. The timer
// always fires; whether it cancels anything is decided then, by the
// match-id guard.
func (m *Manager) armTimeout(dota.LobbySnapshot) error {
	d := time.Duration(m.settings.LobbyTimeoutSeconds) * time.Second
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-m.ctx.Done():
			return
		case <-timer.C:
		}
		m.handleTimeout()
	}()
	return nil
}

func (m *Manager) handleTimeout() {
	m.mu.Lock()
	started := m.matchID != 0
	lobbyID := m.lobbyID
	name := m.lobby.Name
	m.mu.Unlock()
	if started {
		// The match got underway before the countdown ran out; the fire is
		// a no-op.
		return
	}

	notReady := m.ready.notReady()
	m.log.Info("lobby cancelled, players failed to join in time",
		zap.Uint64s("not_ready", notReady))

	m.sendChatMessage("The lobby has been cancelled because players failed to join in time! Sorry!")
	if lobbyID != 0 {
		patch := dota.LobbyPatch{GameName: name + " (cancelled)"}
		if err := m.client.ConfigureLobby(m.ctx, lobbyID, patch); err != nil {
			m.log.Warn("lobby rename failed", zap.Error(err))
		}
	}

	m.setStatus(store.StatusCancelled, store.LobbyPatch{})
	if err := m.notify.Send(m.ctx, comms.MsgGameCancelled, comms.GameCancelled{NotReady: notReady}); err != nil {
		m.log.Warn("cancellation notification failed", zap.Error(err))
	}
	m.outcome.resolve(store.StatusCancelled)
}

func (m *Manager) handleLobbyID(lobbyID uint64) error {
	m.mu.Lock()
	m.lobbyID = lobbyID
	m.mu.Unlock()

	channel := fmt.Sprintf("Lobby_%d", lobbyID)
	if err := m.client.JoinChat(m.ctx, channel); err != nil {
		return fmt.Errorf("join chat %s: %w", channel, err)
	}
	m.mu.Lock()
	m.chatChannel = channel
	m.mu.Unlock()
	return nil
}

func (m *Manager) handleMatchAssigned(matchID uint64) error {
	m.mu.Lock()
	m.matchID = matchID
	m.mu.Unlock()
	m.log.Info("match id assigned", zap.Uint64("match_id", matchID))

	m.updateLobby(store.LobbyPatch{MatchID: &matchID})
	if err := m.notify.Send(m.ctx, comms.MsgGameStarted, comms.GameStarted{MatchID: matchID}); err != nil {
		return fmt.Errorf("game-started notification: %w", err)
	}
	if m.onMatchStarted != nil {
		m.onMatchStarted(matchID)
	}
	return nil
}

func (m *Manager) handleMatchOutcome(o dota.MatchOutcome) error {
	result := matchResult(o)
	m.log.Info("match outcome received",
		zap.Int32("outcome", int32(o)), zap.String("result", string(result)))

	m.setStatus(store.StatusClosed, store.LobbyPatch{MatchResult: &result})
	err := m.notify.Send(m.ctx, comms.MsgGameFinished, comms.GameFinished{MatchResult: result})
	m.outcome.resolve(store.StatusClosed)
	if err != nil {
		return fmt.Errorf("game-finished notification: %w", err)
	}
	return nil
}

// applyReady flips one readiness record. Unchanged values are a no-op; an
// actual transition is mirrored to the store, forwarded to the worker, and
// re-evaluates the launch condition.
func (m *Manager) applyReady(accountID uint64, ready bool) {
	if !m.ready.set(accountID, ready) {
		return
	}
	m.log.Info("player readiness changed",
		zap.Uint64("account_id", accountID), zap.Bool("ready", ready))

	if err := m.lobbies.UpdatePlayer(m.ctx, m.recordID, accountID, store.ReadyPatch(ready)); err != nil {
		m.log.Warn("player readiness not persisted", zap.Error(err))
	}
	if err := m.notify.Send(m.ctx, comms.MsgPlayerStatusUpdate, comms.PlayerStatus{AccountID: accountID, IsReady: ready}); err != nil {
		m.log.Warn("player-status notification failed", zap.Error(err))
	}
	if ready {
		m.checkLaunch()
	}
}

// checkLaunch fires the launch sequence on the first all-ready state, and
// only then. Later readiness churn never re-triggers it.
func (m *Manager) checkLaunch() {
	if !m.ready.allReady() {
		return
	}
	m.mu.Lock()
	if m.launched {
		m.mu.Unlock()
		return
	}
	m.launched = true
	m.mu.Unlock()

	m.log.Info("all players ready, launching match")
	if err := m.client.LaunchMatch(m.ctx); err != nil {
		// Non-fatal: the coordinator keeps emitting snapshots and the match
		// can still be launched by hand.
		m.log.Error("launch command rejected", zap.Error(err))
	}
	m.setStatus(store.StatusInProgress, store.LobbyPatch{})
}

// sendChatMessage delivers text to the lobby channel. The channel handle
// only exists once the lobby id has been observed, so early sends retry on a
// fixed cadence; the loop is bounded by the session context.
func (m *Manager) sendChatMessage(text string) {
	go func() {
		for {
			m.mu.Lock()
			channel := m.chatChannel
			m.mu.Unlock()
			if channel != "" {
				if err := m.client.SendChatMessage(m.ctx, channel, text); err != nil {
					m.log.Warn("chat send failed", zap.Error(err))
				}
				return
			}
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(chatRetryDelay):
			}
		}
	}()
}

// setStatus applies a monotonic status transition and mirrors it, together
// with any extra patched fields, to the store. Backward or repeated-terminal
// transitions are dropped, which also guarantees at most one terminal write.
func (m *Manager) setStatus(next store.LobbyStatus, patch store.LobbyPatch) {
	m.mu.Lock()
	cur := m.lobby.Status
	if statusRank(next) <= statusRank(cur) {
		m.mu.Unlock()
		m.log.Warn("ignoring status transition",
			zap.String("from", string(cur)), zap.String("to", string(next)))
		return
	}
	m.lobby.Status = next
	m.mu.Unlock()

	patch.Status = &next
	m.updateLobby(patch)
}

// updateLobby mirrors a patch to the store. On failure the in-memory copy
// stays authoritative and the drift is logged, not surfaced.
func (m *Manager) updateLobby(patch store.LobbyPatch) {
	m.mu.Lock()
	lobby := m.lobby
	m.mu.Unlock()

	updated, err := m.lobbies.Update(m.ctx, lobby, patch)
	if err != nil {
		m.log.Warn("lobby update not persisted", zap.Error(err))
		m.mu.Lock()
		if patch.MatchID != nil {
			m.lobby.MatchID = patch.MatchID
		}
		if patch.MatchResult != nil {
			m.lobby.MatchResult = patch.MatchResult
		}
		m.mu.Unlock()
		return
	}
	m.mu.Lock()
	status := m.lobby.Status
	m.lobby = updated
	m.lobby.Status = status // in-memory status wins over a stale read
	m.mu.Unlock()
}

func statusRank(s store.LobbyStatus) int {
	switch s {
	case store.StatusOpen:
		return 1
	case store.StatusInProgress:
		return 2
	case store.StatusClosed, store.StatusCancelled:
		return 3
	default:
		return 0
	}
}

func matchResult(o dota.MatchOutcome) store.MatchResult {
	switch o {
	case dota.OutcomeRadVictory:
		return store.ResultRadiantVictory
	case dota.OutcomeDireVictory:
		return store.ResultDireVictory
	default:
		return store.ResultUnableToDetermine
	}
}
