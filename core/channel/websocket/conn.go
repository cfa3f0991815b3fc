package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/koscakluka/ema-translate/core/channel"
)

const closeWriteTimeout = 2 * time.Second

var _ channel.Channel = (*Channel)(nil)

// Channel is a reconnecting websocket connection.
type Channel struct {
	dialer   *Dialer
	endpoint string
	handler  channel.Handler

	ctx    context.Context
	cancel context.CancelFunc

	connMu sync.Mutex
	conn   *ws.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

func newChannel(ctx context.Context, dialer *Dialer, endpoint string, conn *ws.Conn, handler channel.Handler) *Channel {
	// The channel outlives the dial call, so only the values of ctx are kept.
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c := &Channel{
		dialer:   dialer,
		endpoint: endpoint,
		handler:  handler,
		ctx:      ctx,
		cancel:   cancel,
		conn:     conn,
		done:     make(chan struct{}),
	}

	go c.run(conn)
	return c
}

// Emit writes a frame on the current connection. While the channel is
// reconnecting there is no connection and Emit fails.
func (c *Channel) Emit(ctx context.Context, event string, payload any) error {
	if c.closed.Load() {
		return channel.ErrClosed
	}

	frame, err := channel.NewFrame(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}

	conn := c.currentConn()
	if conn == nil {
		return fmt.Errorf("websocket reconnecting, dropped %s", event)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		defer func() { _ = conn.SetWriteDeadline(time.Time{}) }()
	}

	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

// Close stops the channel. No frames are delivered to the handler after
// Close returns. It does not wait for the read loop, use [Channel.Done] for
// that.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()

		conn := c.swapConn(nil)
		if conn == nil {
			return
		}

		writeErr := conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		if closeErr := conn.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close websocket: %w", errors.Join(writeErr, closeErr))
		}
	})
	return err
}

// Done is closed once the read loop has exited and no reconnection is
// pending.
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) run(conn *ws.Conn) {
	defer close(c.done)

	c.deliver(channel.Frame{Event: channel.EventConnect})
	for conn != nil {
		reason := c.readLoop(conn)
		c.swapConn(nil)
		_ = conn.Close()
		if c.closed.Load() {
			return
		}

		c.deliverPayload(channel.EventDisconnect, channel.Disconnect{Reason: reason})
		if conn = c.reconnect(); conn != nil {
			c.deliver(channel.Frame{Event: channel.EventConnect})
		}
	}
}

func (c *Channel) readLoop(conn *ws.Conn) string {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				return channel.ReasonTransportClose
			}
			if !c.closed.Load() {
				logger.Warn("websocket read failed", "endpoint", c.endpoint, "error", err)
			}
			return channel.ReasonTransportError
		}

		if messageType != ws.TextMessage {
			continue
		}

		var frame channel.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warn("dropped malformed websocket frame", "endpoint", c.endpoint, "error", err)
			continue
		}
		if frame.Event == "" {
			logger.Warn("dropped websocket frame without event name", "endpoint", c.endpoint)
			continue
		}

		c.deliver(frame)
	}
}

func (c *Channel) reconnect() *ws.Conn {
	maxRetries := c.dialer.options.maxRetries
	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-c.ctx.Done():
			return nil
		case <-time.After(c.dialer.options.retryDelay):
		}

		reconnectAttempts.Add(c.ctx, 1)
		logger.Info("reconnecting websocket", "endpoint", c.endpoint, "attempt", attempt, "max_attempts", maxRetries)

		conn, err := c.dialer.connect(c.ctx, c.endpoint)
		if err == nil {
			c.swapConn(conn)
			if c.closed.Load() {
				_ = conn.Close()
				return nil
			}
			return conn
		}

		unauthorized := errors.Is(err, channel.ErrUnauthorized)
		c.deliverPayload(channel.EventConnectError, channel.ConnectError{
			Message:      err.Error(),
			Attempt:      attempt,
			WillRetry:    attempt < maxRetries && !unauthorized,
			Unauthorized: unauthorized,
		})
		if unauthorized {
			return nil
		}
	}

	if maxRetries > 0 {
		logger.Error("giving up reconnecting websocket", "endpoint", c.endpoint, "attempts", maxRetries)
	}
	return nil
}

func (c *Channel) deliver(frame channel.Frame) {
	if c.closed.Load() || c.handler == nil {
		return
	}
	c.handler(frame)
}

func (c *Channel) deliverPayload(event string, payload any) {
	frame, err := channel.NewFrame(event, payload)
	if err != nil {
		logger.Error("failed to encode lifecycle frame", "event", event, "error", err)
		return
	}
	c.deliver(frame)
}

func (c *Channel) currentConn() *ws.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

func (c *Channel) swapConn(conn *ws.Conn) *ws.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	previous := c.conn
	c.conn = conn
	return previous
}
