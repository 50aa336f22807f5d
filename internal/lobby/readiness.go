package lobby

import (
	"sync"

	"github.com/andre-estevam-brainweb/daas-core/internal/store"
)

// rosterEntry is one expected player: which side they must sit on and
// whether they captain it. Fixed at session creation.
type rosterEntry struct {
	accountID uint64
	isRadiant bool
	isCaptain bool
}

// readiness tracks the per-player ready flag for every roster entry. Records
// are created at session start with ready=false and are in 1:1
// correspondence with the roster for the whole session.
type readiness struct {
	mu    sync.Mutex
	order []uint64
	ready map[uint64]bool
}

func newReadiness(players []store.LobbyPlayer) *readiness {
	r := &readiness{ready: make(map[uint64]bool, len(players))}
	for _, p := range players {
		r.order = append(r.order, p.AccountID)
		r.ready[p.AccountID] = false
	}
	return r
}

// has reports whether the id belongs to the roster.
func (r *readiness) has(accountID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ready[accountID]
	return ok
}

// set updates the record and reports whether the value actually changed.
// Unknown ids and unchanged values are no-ops.
func (r *readiness) set(accountID uint64, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.ready[accountID]
	if !ok || cur == ready {
		return false
	}
	r.ready[accountID] = ready
	return true
}

// allReady is true iff every roster record is ready. The empty roster is
// rejected at creation, so vacuous truth never reaches the launch check.
func (r *readiness) allReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ok := range r.ready {
		if !ok {
			return false
		}
	}
	return true
}

// notReady returns the ids still waiting, in roster order.
func (r *readiness) notReady() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint64
	for _, id := range r.order {
		if !r.ready[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// snapshot returns the records in roster order, for the ops view.
func (r *readiness) snapshot() []PlayerView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, PlayerView{AccountID: id, IsReady: r.ready[id]})
	}
	return out
}
