package lobby

import (
	"fmt"

	"github.com/andre-estevam-brainweb/daas-core/internal/dota"
)

// handleMemberUpdate enforces team placement for one member entry of a
// snapshot. Placement is eventually consistent: a correction issued here is
// re-validated by the next inbound snapshot, never re-checked synchronously.
func (m *Manager) handleMemberUpdate(member dota.Member) error {
	if member.Team == dota.TeamUnassigned {
		// An unassigned roster player just hasn't taken their seat yet.
		// Anyone else in the member list (a stranger, or the bot sitting in
		// the lobby after being unseated) gets a full kick.
		if m.ready.has(member.AccountID) && member.AccountID != m.client.AccountID() {
			m.applyReady(member.AccountID, false)
			return nil
		}
		return m.client.KickFromLobby(m.ctx, member.AccountID)
	}

	expected := m.expectedTeam(member.AccountID)
	if member.Team == expected {
		m.applyReady(member.AccountID, true)
		return nil
	}

	// Wrong seat: tell them where to go, then unseat them. The next snapshot
	// re-validates whatever they do about it.
	m.sendChatMessage(seatWarning(member.Name, expected))
	return m.client.KickFromTeam(m.ctx, member.AccountID)
}

// expectedTeam looks the player up in the roster. Unknown players are not
// allowed on any team.
func (m *Manager) expectedTeam(accountID uint64) dota.Team {
	entry, ok := m.roster[accountID]
	if !ok {
		return dota.TeamUnassigned
	}
	if entry.isRadiant {
		return dota.TeamRadiant
	}
	return dota.TeamDire
}

func seatWarning(name string, expected dota.Team) string {
	var dest string
	switch expected {
	case dota.TeamRadiant:
		dest = "Radiant"
	case dota.TeamDire:
		dest = "Dire"
	case dota.TeamCaster:
		dest = "the caster slots"
	case dota.TeamCoach:
		dest = "the coach slots"
	}
	if dest == "" {
		return fmt.Sprintf("%s, you're not allowed to join any team!", name)
	}
	return fmt.Sprintf("%s, please join %s!", name, dest)
}
