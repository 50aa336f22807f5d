package lobby

import (
	"context"
	"sync"

	"github.com/andre-estevam-brainweb/daas-core/internal/store"
)

// outcome is the single-assignment slot the two completion signals race
// into. The first resolve call decides the session's returned status; later
// calls are no-ops, but the losing branch's own side effects (persistence,
// messaging) are never cancelled; they run wherever they were triggered.
//
// Tie-break: "simultaneous" resolution is whichever call enters the Once
// first. Raw events are delivered in arrival order and the timeout branch
// rechecks the match-id guard when the timer fires, so a snapshot that
// resolves the match outcome before the timer goroutine runs always wins
// with CLOSED.
type outcome struct {
	once   sync.Once
	done   chan struct{}
	status store.LobbyStatus
}

func newOutcome() *outcome {
	return &outcome{done: make(chan struct{})}
}

func (o *outcome) resolve(status store.LobbyStatus) {
	o.once.Do(func() {
		o.status = status
		close(o.done)
	})
}

func (o *outcome) wait(ctx context.Context) (store.LobbyStatus, error) {
	select {
	case <-o.done:
		return o.status, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
