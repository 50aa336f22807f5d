// Package comms is the typed messaging channel between a core process and
// its supervising worker: outbound lifecycle notifications, plus inbound
// commands (lobby assignment, re-invite requests, kill orders).
package comms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("comms channel closed")

// Comms is one open channel to the worker. A background read loop demuxes
// inbound frames either to a WaitFor caller registered for that type or to
// the Inbound stream.
type Comms struct {
	conn *websocket.Conn
	log  *zap.Logger

	mu      sync.Mutex
	waiters map[MessageType][]chan Envelope

	inbound chan Envelope
	done    chan struct{}
}

// Open dials the worker and starts the read loop. The request id identifies
// this core process to the worker.
func Open(ctx context.Context, url, requestID string, log *zap.Logger) (*Comms, error) {
	conn, _, err := websocket.Dial(ctx, url+"?request_id="+requestID, nil)
	if err != nil {
		return nil, fmt.Errorf("dial worker: %w", err)
	}

	c := &Comms{
		conn:    conn,
		log:     log,
		waiters: make(map[MessageType][]chan Envelope),
		inbound: make(chan Envelope, 16),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Send marshals info into an envelope and writes it to the worker.
func (c *Comms) Send(ctx context.Context, t MessageType, info any) error {
	env := Envelope{ID: uuid.NewString(), Type: t}
	if info != nil {
		raw, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Info = raw
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("send %s: %w", t, err)
	}
	return nil
}

// WaitFor blocks until a frame of the given type arrives, the timeout
// elapses, or the channel closes.
func (c *Comms) WaitFor(ctx context.Context, t MessageType, timeout time.Duration) (Envelope, error) {
	ch := make(chan Envelope, 1)
	c.mu.Lock()
	c.waiters[t] = append(c.waiters[t], ch)
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-ch:
		return env, nil
	case <-timer.C:
		c.dropWaiter(t, ch)
		return Envelope{}, fmt.Errorf("timed out waiting for %s", t)
	case <-c.done:
		return Envelope{}, ErrClosed
	case <-ctx.Done():
		c.dropWaiter(t, ch)
		return Envelope{}, ctx.Err()
	}
}

// Inbound is the stream of frames nobody was waiting for (worker-initiated
// commands). The channel closes when the connection does.
func (c *Comms) Inbound() <-chan Envelope { return c.inbound }

// Close shuts the connection down. Idempotent.
func (c *Comms) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Comms) readLoop() {
	defer func() {
		c.mu.Lock()
		c.waiters = make(map[MessageType][]chan Envelope)
		c.mu.Unlock()
		close(c.done)
		close(c.inbound)
	}()

	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				c.log.Warn("comms read failed", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("comms frame is not valid json", zap.Error(err))
			continue
		}
		c.dispatch(env)
	}
}

func (c *Comms) dispatch(env Envelope) {
	c.mu.Lock()
	if chs := c.waiters[env.Type]; len(chs) > 0 {
		ch := chs[0]
		c.waiters[env.Type] = chs[1:]
		c.mu.Unlock()
		ch <- env
		return
	}
	c.mu.Unlock()

	select {
	case c.inbound <- env:
	default:
		// Inbound backlog full; the worker is misbehaving. Drop the frame.
		c.log.Warn("comms inbound backlog full, dropping frame",
			zap.String("type", string(env.Type)))
	}
}

func (c *Comms) dropWaiter(t MessageType, ch chan Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chs := c.waiters[t]
	for i, w := range chs {
		if w == ch {
			c.waiters[t] = append(chs[:i], chs[i+1:]...)
			return
		}
	}
}
