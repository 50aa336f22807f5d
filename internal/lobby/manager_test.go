package lobby

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/andre-estevam-brainweb/daas-core/internal/comms"
	"github.com/andre-estevam-brainweb/daas-core/internal/dota"
	"github.com/andre-estevam-brainweb/daas-core/internal/store"
)

const botAccountID uint64 = 999

// fakeClient records every command and lets tests push snapshots into the
// registered update callback.
type fakeClient struct {
	mu        sync.Mutex
	onUpdate  func(dota.LobbySnapshot)
	createErr error
	leaveErr  error

	launches  int
	invites   []uint64
	joined    []string
	renames   []dota.LobbyPatch
	lobbyKick chan uint64
	teamKick  chan uint64
	chat      chan string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		lobbyKick: make(chan uint64, 8),
		teamKick:  make(chan uint64, 8),
		chat:      make(chan string, 8),
	}
}

func (f *fakeClient) AccountID() uint64 { return botAccountID }

func (f *fakeClient) CreateLobby(ctx context.Context, opts dota.LobbyOptions) error {
	return f.createErr
}

func (f *fakeClient) ConfigureLobby(ctx context.Context, lobbyID uint64, patch dota.LobbyPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames = append(f.renames, patch)
	return nil
}

func (f *fakeClient) LaunchMatch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches++
	return nil
}

func (f *fakeClient) LeaveLobby(ctx context.Context) error { return f.leaveErr }

func (f *fakeClient) InviteToLobby(ctx context.Context, accountID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, accountID)
	return nil
}

func (f *fakeClient) KickFromLobby(ctx context.Context, accountID uint64) error {
	f.lobbyKick <- accountID
	return nil
}

func (f *fakeClient) KickFromTeam(ctx context.Context, accountID uint64) error {
	f.teamKick <- accountID
	return nil
}

func (f *fakeClient) JoinChat(ctx context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, channel)
	return nil
}

func (f *fakeClient) SendChatMessage(ctx context.Context, channel, text string) error {
	f.chat <- text
	return nil
}

func (f *fakeClient) OnLobbyUpdate(fn func(dota.LobbySnapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onUpdate = fn
}

func (f *fakeClient) push(snap dota.LobbySnapshot) {
	f.mu.Lock()
	fn := f.onUpdate
	f.mu.Unlock()
	fn(snap)
}

func (f *fakeClient) launchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launches
}

type playerWrite struct {
	accountID uint64
	ready     bool
}

// fakeLobbies applies patches to an in-memory record.
type fakeLobbies struct {
	mu           sync.Mutex
	lobby        store.Lobby
	statusWrites []store.LobbyStatus
	playerWrites []playerWrite
	updateErr    error
}

func (f *fakeLobbies) FindByID(ctx context.Context, id uint) (*store.Lobby, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.lobby
	return &cp, nil
}

func (f *fakeLobbies) Update(ctx context.Context, lobby *store.Lobby, patch store.LobbyPatch) (*store.Lobby, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if patch.Status != nil {
		f.lobby.Status = *patch.Status
		f.statusWrites = append(f.statusWrites, *patch.Status)
	}
	if patch.MatchID != nil {
		f.lobby.MatchID = patch.MatchID
	}
	if patch.MatchResult != nil {
		f.lobby.MatchResult = patch.MatchResult
	}
	cp := f.lobby
	return &cp, nil
}

func (f *fakeLobbies) UpdatePlayer(ctx context.Context, lobbyID uint, accountID uint64, patch store.PlayerPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if patch.IsReady != nil {
		f.playerWrites = append(f.playerWrites, playerWrite{accountID, *patch.IsReady})
	}
	return nil
}

func (f *fakeLobbies) statuses() []store.LobbyStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.LobbyStatus(nil), f.statusWrites...)
}

type fakeConfig struct {
	settings store.Settings
}

func (f *fakeConfig) Get(ctx context.Context) (store.Settings, error) {
	return f.settings, nil
}

type sentMsg struct {
	t    comms.MessageType
	info any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (f *fakeNotifier) Send(ctx context.Context, t comms.MessageType, info any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{t, info})
	return nil
}

func (f *fakeNotifier) count(t comms.MessageType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.t == t {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) last(t comms.MessageType) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].t == t {
			return f.sent[i].info, true
		}
	}
	return nil, false
}

type harness struct {
	client  *fakeClient
	lobbies *fakeLobbies
	notify  *fakeNotifier
	mgr     *Manager
}

func newHarness(t *testing.T, timeoutSec int, players ...store.LobbyPlayer) *harness {
	t.Helper()
	client := newFakeClient()
	lobbies := &fakeLobbies{lobby: store.Lobby{
		ID:       1,
		Name:     "Test Lobby",
		Server:   store.ServerUSEast,
		GameMode: store.ModeCaptainsMode,
		Players:  players,
	}}
	notify := &fakeNotifier{}

	rec := lobbies.lobby
	mgr, err := Create(context.Background(), Deps{
		Client:   client,
		Lobbies:  lobbies,
		Config:   &fakeConfig{settings: store.Settings{LobbyTimeoutSeconds: timeoutSec, LeagueID: 7}},
		Notifier: notify,
		Log:      zap.NewNop(),
	}, &rec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(mgr.cancel)

	// Creation always unseats the bot first; drain that kick so each test
	// only sees its own traffic.
	if got := recvUint64(t, client.teamKick, time.Second); got != botAccountID {
		t.Fatalf("want bot unseated at creation, got kick for %d", got)
	}
	return &harness{client: client, lobbies: lobbies, notify: notify, mgr: mgr}
}

func player(accountID uint64, radiant bool) store.LobbyPlayer {
	return store.LobbyPlayer{AccountID: accountID, IsRadiant: radiant}
}

func member(accountID uint64, team dota.Team) dota.Member {
	return dota.Member{AccountID: accountID, Name: "player", Team: team}
}

// recvUint64 pulls one command off a fake channel with a timeout so tests
// never hang.
func recvUint64(t *testing.T, ch <-chan uint64, within time.Duration) uint64 {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for command")
		return 0 // unreachable
	}
}

func recvString(t *testing.T, ch <-chan string, within time.Duration) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return "" // unreachable
	}
}

func recvNothing[T any](t *testing.T, ch <-chan T, within time.Duration) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("expected nothing within %v, got %+v", within, v)
	case <-time.After(within):
	}
}

func eventually(t *testing.T, within time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

func TestCreate_EmptyRosterIsConfigurationError(t *testing.T) {
	rec := store.Lobby{ID: 1, Name: "empty"}
	_, err := Create(context.Background(), Deps{
		Client:   newFakeClient(),
		Lobbies:  &fakeLobbies{},
		Config:   &fakeConfig{},
		Notifier: &fakeNotifier{},
	}, &rec)
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("want ErrEmptyRoster, got %v", err)
	}
}

func TestCreate_RejectedCreationSurfaced(t *testing.T) {
	client := newFakeClient()
	client.createErr = errors.New("gc says no")
	rec := store.Lobby{ID: 1, Name: "nope", Players: []store.LobbyPlayer{player(1, true)}}
	_, err := Create(context.Background(), Deps{
		Client:   client,
		Lobbies:  &fakeLobbies{},
		Config:   &fakeConfig{},
		Notifier: &fakeNotifier{},
	}, &rec)
	if !errors.Is(err, ErrCreationFailed) {
		t.Fatalf("want ErrCreationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "gc says no") {
		t.Fatalf("underlying message lost: %v", err)
	}
}

func TestCreate_InvitesRosterPersistsOpenNotifies(t *testing.T) {
	h := newHarness(t, 60, player(1, true), player(2, false))

	h.client.mu.Lock()
	invites := append([]uint64(nil), h.client.invites...)
	h.client.mu.Unlock()
	if len(invites) != 2 || invites[0] != 1 || invites[1] != 2 {
		t.Fatalf("want invites [1 2], got %v", invites)
	}

	if st := h.lobbies.statuses(); len(st) != 1 || st[0] != store.StatusOpen {
		t.Fatalf("want [OPEN] persisted, got %v", st)
	}
	if h.notify.count(comms.MsgLobbyOK) != 1 {
		t.Fatalf("want one LOBBY_OK")
	}
}

// Scenario A: both roster players join their expected sides; readiness goes
// all-true, IN_PROGRESS is persisted exactly once, and the launch command is
// issued exactly once regardless of further snapshots.
func TestScenarioA_AllReadyLaunchesExactlyOnce(t *testing.T) {
	h := newHarness(t, 60, player(1, true), player(2, false))

	snap := dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(1, dota.TeamRadiant),
		member(2, dota.TeamDire),
	}}
	h.client.push(snap)

	if got := h.client.launchCount(); got != 1 {
		t.Fatalf("want 1 launch, got %d", got)
	}
	// Repeats of the same membership must not re-trigger anything.
	h.client.push(snap)
	h.client.push(snap)
	if got := h.client.launchCount(); got != 1 {
		t.Fatalf("launch re-triggered: %d", got)
	}

	inProgress := 0
	for _, s := range h.lobbies.statuses() {
		if s == store.StatusInProgress {
			inProgress++
		}
	}
	if inProgress != 1 {
		t.Fatalf("want IN_PROGRESS persisted once, got %d", inProgress)
	}
	if got := h.notify.count(comms.MsgPlayerStatusUpdate); got != 2 {
		t.Fatalf("want 2 readiness notifications, got %d", got)
	}
}

// Scenario B: a player never joins before the timeout; the session cancels
// with exactly that player in the not-ready list and no launch ever happens.
func TestScenarioB_TimeoutCancels(t *testing.T) {
	h := newHarness(t, 1, player(1, true), player(2, false))

	h.client.push(dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(1, dota.TeamRadiant),
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	final, err := h.mgr.WaitUntilResultOrCancellation(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final != store.StatusCancelled {
		t.Fatalf("want CANCELLED, got %s", final)
	}
	if h.client.launchCount() != 0 {
		t.Fatalf("launch must never fire on a cancelled session")
	}

	info, ok := h.notify.last(comms.MsgGameCancelled)
	if !ok {
		t.Fatalf("no cancellation notification")
	}
	cancelled := info.(comms.GameCancelled)
	if len(cancelled.NotReady) != 1 || cancelled.NotReady[0] != 2 {
		t.Fatalf("want not-ready [2], got %v", cancelled.NotReady)
	}

	// Lobby chat notice and rename both go out.
	if msg := recvString(t, h.client.chat, 2*time.Second); !strings.Contains(msg, "cancelled") {
		t.Fatalf("unexpected chat notice: %q", msg)
	}
	eventually(t, time.Second, func() bool {
		h.client.mu.Lock()
		defer h.client.mu.Unlock()
		return len(h.client.renames) == 1 && strings.HasSuffix(h.client.renames[0].GameName, "(cancelled)")
	}, "lobby renamed with (cancelled) suffix")
}

// Scenario C: a non-roster identity in the member list is kicked from the
// lobby entirely and never acquires a readiness record.
func TestScenarioC_StrangerGetsFullKick(t *testing.T) {
	h := newHarness(t, 60, player(1, true))

	h.client.push(dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(777, dota.TeamUnassigned),
	}})

	if got := recvUint64(t, h.client.lobbyKick, time.Second); got != 777 {
		t.Fatalf("want full kick for 777, got %d", got)
	}
	recvNothing(t, h.client.teamKick, 100*time.Millisecond)
	if h.notify.count(comms.MsgPlayerStatusUpdate) != 0 {
		t.Fatalf("stranger must not produce readiness traffic")
	}
}

// Scenario D: a roster player on the wrong side gets exactly one warning
// naming the correct destination and a team-only kick; once correctly seated
// they become ready with no further warning.
func TestScenarioD_WrongSideWarnedThenKickedFromTeam(t *testing.T) {
	h := newHarness(t, 60, player(1, true), player(2, false))

	// Lobby id first so the chat channel exists.
	h.client.push(dota.LobbySnapshot{LobbyID: 42})

	h.client.push(dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(1, dota.TeamDire), // expected radiant
	}})

	warning := recvString(t, h.client.chat, 2*time.Second)
	if !strings.Contains(warning, "Radiant") {
		t.Fatalf("warning must name the correct side, got %q", warning)
	}
	if got := recvUint64(t, h.client.teamKick, time.Second); got != 1 {
		t.Fatalf("want team kick for 1, got %d", got)
	}
	// Mis-seated is never ready.
	for _, w := range h.lobbies.playerWrites {
		if w.accountID == 1 && w.ready {
			t.Fatalf("wrong-side player recorded ready")
		}
	}

	h.client.push(dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(1, dota.TeamRadiant),
	}})
	eventually(t, time.Second, func() bool {
		return h.notify.count(comms.MsgPlayerStatusUpdate) == 1
	}, "correct seat marks ready")
	recvNothing(t, h.client.chat, 100*time.Millisecond)
}

func TestUnassignedRosterPlayerJustNotReadyYet(t *testing.T) {
	h := newHarness(t, 60, player(1, true))

	h.client.push(dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(1, dota.TeamUnassigned),
	}})

	recvNothing(t, h.client.lobbyKick, 100*time.Millisecond)
	recvNothing(t, h.client.teamKick, 100*time.Millisecond)
	// Already false, so no notification either.
	if h.notify.count(comms.MsgPlayerStatusUpdate) != 0 {
		t.Fatalf("no readiness change expected")
	}
}

func TestBotSittingInLobbyIsKicked(t *testing.T) {
	h := newHarness(t, 60, player(1, true))

	h.client.push(dota.LobbySnapshot{LobbyID: 42, Members: []dota.Member{
		member(botAccountID, dota.TeamUnassigned),
	}})
	if got := recvUint64(t, h.client.lobbyKick, time.Second); got != botAccountID {
		t.Fatalf("want bot kicked from lobby, got %d", got)
	}
}

// The race returns CLOSED when the outcome lands while the countdown is
// still running; the loser's timer fire later becomes a no-op.
func TestOutcomeRace_MatchFinishedWins(t *testing.T) {
	h := newHarness(t, 60, player(1, true))

	h.client.push(dota.LobbySnapshot{LobbyID: 42, MatchID: 12345})
	h.client.push(dota.LobbySnapshot{
		LobbyID:      42,
		MatchID:      12345,
		GameState:    dota.GameStatePostGame,
		MatchOutcome: dota.OutcomeRadVictory,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	final, err := h.mgr.WaitUntilResultOrCancellation(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final != store.StatusClosed {
		t.Fatalf("want CLOSED, got %s", final)
	}

	info, ok := h.notify.last(comms.MsgGameFinished)
	if !ok {
		t.Fatalf("no game-finished notification")
	}
	if got := info.(comms.GameFinished).MatchResult; got != store.ResultRadiantVictory {
		t.Fatalf("want RADIANT_VICTORY, got %s", got)
	}
	if h.lobbies.lobby.MatchResult == nil || *h.lobbies.lobby.MatchResult != store.ResultRadiantVictory {
		t.Fatalf("match result not persisted")
	}
}

// Tie-break: once a match id has been observed, an elapsing timer is a
// no-op, so the race deterministically resolves CLOSED even when the
// countdown runs out mid-session.
func TestOutcomeRace_TimerIsNoopOnceMatchStarted(t *testing.T) {
	h := newHarness(t, 1, player(1, true))

	h.client.push(dota.LobbySnapshot{LobbyID: 42, MatchID: 12345})
	// Let the countdown elapse with the match id already in place.
	time.Sleep(1200 * time.Millisecond)
	h.client.push(dota.LobbySnapshot{
		LobbyID:      42,
		MatchID:      12345,
		GameState:    dota.GameStatePostGame,
		MatchOutcome: dota.OutcomeDireVictory,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	final, err := h.mgr.WaitUntilResultOrCancellation(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final != store.StatusClosed {
		t.Fatalf("want CLOSED, got %s", final)
	}
	if h.notify.count(comms.MsgGameCancelled) != 0 {
		t.Fatalf("suppressed timer must not emit a cancellation")
	}
}

func TestShutdown_LeaveFailureSurfaced(t *testing.T) {
	h := newHarness(t, 60, player(1, true))
	h.client.leaveErr = errors.New("still in game")

	err := h.mgr.Shutdown(context.Background())
	if !errors.Is(err, ErrShutdownFailed) {
		t.Fatalf("want ErrShutdownFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "still in game") {
		t.Fatalf("underlying message lost: %v", err)
	}
	// Session state untouched: waiting still works.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := h.mgr.WaitUntilResultOrCancellation(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to still be live, got %v", err)
	}
}

func TestWaitAfterShutdownIsUsageError(t *testing.T) {
	h := newHarness(t, 60, player(1, true))

	if err := h.mgr.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, err := h.mgr.WaitUntilResultOrCancellation(context.Background())
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("want ErrSessionClosed, got %v", err)
	}
}

func TestInvite_ReissuesCommand(t *testing.T) {
	h := newHarness(t, 60, player(1, true))

	if err := h.mgr.Invite(context.Background(), 1); err != nil {
		t.Fatalf("invite: %v", err)
	}
	h.client.mu.Lock()
	defer h.client.mu.Unlock()
	if got := h.client.invites[len(h.client.invites)-1]; got != 1 {
		t.Fatalf("want re-invite for 1, got %d", got)
	}
}
