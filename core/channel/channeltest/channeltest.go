// Package channeltest provides an in-memory [channel.Dialer] for driving a
// translation session from tests without a network.
package channeltest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/koscakluka/ema-translate/core/channel"
)

// Emitted is an outbound frame recorded by [Channel].
type Emitted struct {
	Event   string
	Payload json.RawMessage
}

// Dialer hands out [Channel]s and remembers them. Frames are delivered
// synchronously on the caller's goroutine.
type Dialer struct {
	mu       sync.Mutex
	channels []*Channel
	dials    int

	// Err, when set, is returned by the next Dial instead of a channel.
	Err error
	// OnDial, when set, runs with the new channel before Dial returns.
	OnDial func(*Channel)
}

var _ channel.Dialer = (*Dialer)(nil)

func NewDialer() *Dialer { return &Dialer{} }

func (d *Dialer) Dial(_ context.Context, namespace string, handler channel.Handler) (channel.Channel, error) {
	d.mu.Lock()
	d.dials++
	if err := d.Err; err != nil {
		d.Err = nil
		d.mu.Unlock()
		return nil, err
	}

	c := &Channel{namespace: namespace, handler: handler}
	d.channels = append(d.channels, c)
	onDial := d.OnDial
	d.mu.Unlock()

	if onDial != nil {
		onDial(c)
	}
	return c, nil
}

// Dials reports how many times Dial was called.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Last returns the most recently dialed channel, or nil.
func (d *Dialer) Last() *Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.channels) == 0 {
		return nil
	}
	return d.channels[len(d.channels)-1]
}

// Channel is a scripted channel: the test pushes inbound frames with
// [Channel.Deliver] and inspects what the session emitted.
type Channel struct {
	namespace string
	handler   channel.Handler

	mu      sync.Mutex
	emitted []Emitted
	closed  bool

	// EmitErr, when set, fails every Emit.
	EmitErr error
}

var _ channel.Channel = (*Channel)(nil)

func (c *Channel) Namespace() string { return c.namespace }

func (c *Channel) Emit(_ context.Context, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return channel.ErrClosed
	}
	if c.EmitErr != nil {
		return c.EmitErr
	}

	frame, err := channel.NewFrame(event, payload)
	if err != nil {
		return err
	}
	c.emitted = append(c.emitted, Emitted{Event: frame.Event, Payload: frame.Payload})
	return nil
}

func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Emitted returns a copy of the recorded outbound frames.
func (c *Channel) Emitted() []Emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Emitted(nil), c.emitted...)
}

// EmittedEvents returns only the names of the recorded outbound frames.
func (c *Channel) EmittedEvents() []string {
	emitted := c.Emitted()
	names := make([]string, 0, len(emitted))
	for _, e := range emitted {
		names = append(names, e.Event)
	}
	return names
}

// Deliver encodes payload and hands the frame to the handler. Delivery still
// happens after Close, which simulates frames already in flight.
func (c *Channel) Deliver(event string, payload any) error {
	frame, err := channel.NewFrame(event, payload)
	if err != nil {
		return err
	}
	return c.DeliverFrame(frame)
}

func (c *Channel) DeliverFrame(frame channel.Frame) error {
	if c.handler == nil {
		return errNoHandler
	}
	c.handler(frame)
	return nil
}

// Handshake delivers the transport connect frame followed by the
// authenticated connected event.
func (c *Channel) Handshake() error {
	if err := c.Deliver(channel.EventConnect, nil); err != nil {
		return err
	}
	return c.Deliver("connected", map[string]any{})
}

var errNoHandler = errors.New("channeltest: channel has no handler")
