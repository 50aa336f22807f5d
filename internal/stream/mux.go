package stream

import (
	"sync"

	"github.com/andre-estevam-brainweb/daas-core/internal/dota"
)

// Mux fans the raw lobby-update feed out to purpose-specific handlers. It
// replaces stream operators with an explicit hub: one ingress (Publish) and
// independent registered handlers, each keeping its own "already resolved"
// flag for take-first semantics. Handlers run synchronously in the
// publisher's goroutine, in registration order; a handler must not block.
type Mux struct {
	mu     sync.Mutex
	closed bool
	subs   []func(dota.LobbySnapshot)
}

func NewMux() *Mux {
	return &Mux{}
}

// Publish delivers one raw snapshot to every registered handler. Snapshots
// published after Close are dropped.
func (m *Mux) Publish(snap dota.LobbySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for _, fn := range m.subs {
		fn(snap)
	}
}

// Close tears down every subscription. Idempotent.
func (m *Mux) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = nil
}

func (m *Mux) subscribe(fn func(dota.LobbySnapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.subs = append(m.subs, fn)
}

// OnFirstSnapshot fires on the first snapshot of any kind, then never again.
func (m *Mux) OnFirstSnapshot(fn func(dota.LobbySnapshot)) {
	done := false
	m.subscribe(func(snap dota.LobbySnapshot) {
		if done {
			return
		}
		done = true
		fn(snap)
	})
}

// OnLobbyID fires once, on the first snapshot carrying a lobby id.
func (m *Mux) OnLobbyID(fn func(uint64)) {
	done := false
	m.subscribe(func(snap dota.LobbySnapshot) {
		if done || snap.LobbyID == 0 {
			return
		}
		done = true
		fn(snap.LobbyID)
	})
}

// OnMatchAssigned fires once, on the first snapshot carrying a positive
// match id. It never refires, even if later snapshots repeat the id.
func (m *Mux) OnMatchAssigned(fn func(uint64)) {
	done := false
	m.subscribe(func(snap dota.LobbySnapshot) {
		if done || snap.MatchID == 0 {
			return
		}
		done = true
		fn(snap.MatchID)
	})
}

// OnMatchOutcome fires once, on the first post-game snapshot carrying a
// positive outcome.
func (m *Mux) OnMatchOutcome(fn func(dota.MatchOutcome)) {
	done := false
	m.subscribe(func(snap dota.LobbySnapshot) {
		if done || snap.GameState != dota.GameStatePostGame || snap.MatchOutcome <= 0 {
			return
		}
		done = true
		fn(snap.MatchOutcome)
	})
}

// OnMemberUpdate flattens every snapshot into one call per member entry, in
// list order. A snapshot with N members produces N calls.
func (m *Mux) OnMemberUpdate(fn func(dota.Member)) {
	m.subscribe(func(snap dota.LobbySnapshot) {
		for _, member := range snap.Members {
			fn(member)
		}
	})
}
