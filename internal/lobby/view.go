package lobby

import "github.com/andre-estevam-brainweb/daas-core/internal/store"

type PlayerView struct {
	AccountID uint64 `json:"accountId"`
	IsReady   bool   `json:"isReady"`
}

// View is a read-only snapshot of the session for the ops surface.
type View struct {
	Name    string            `json:"name"`
	Status  store.LobbyStatus `json:"status"`
	MatchID uint64            `json:"matchId,omitempty"`
	Players []PlayerView      `json:"players"`
}

func (m *Manager) View() View {
	m.mu.Lock()
	name := m.lobby.Name
	status := m.lobby.Status
	matchID := m.matchID
	m.mu.Unlock()
	return View{
		Name:    name,
		Status:  status,
		MatchID: matchID,
		Players: m.ready.snapshot(),
	}
}
