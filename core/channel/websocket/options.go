package websocket

import (
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	DefaultMaxRetries       = 5
	DefaultRetryDelay       = time.Second
	DefaultHandshakeTimeout = 15 * time.Second
)

type options struct {
	token            string
	header           http.Header
	maxRetries       int
	retryDelay       time.Duration
	handshakeTimeout time.Duration
	dialer           *ws.Dialer
}

type Option func(*options)

// WithToken sets the bearer token sent with every (re)connection.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithHeader adds a header sent with every (re)connection.
func WithHeader(key, value string) Option {
	return func(o *options) { o.header.Add(key, value) }
}

// WithMaxRetries bounds the reconnection attempts after a dropped
// connection. Zero disables reconnection.
func WithMaxRetries(maxRetries int) Option {
	return func(o *options) {
		if maxRetries < 0 {
			return
		}
		o.maxRetries = maxRetries
	}
}

// WithRetryDelay sets the fixed delay before each reconnection attempt.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *options) {
		if delay < 0 {
			return
		}
		o.retryDelay = delay
	}
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout <= 0 {
			return
		}
		o.handshakeTimeout = timeout
	}
}

// WithDialer replaces the underlying gorilla dialer, e.g. to configure TLS
// or a proxy.
func WithDialer(dialer *ws.Dialer) Option {
	return func(o *options) {
		if dialer != nil {
			o.dialer = dialer
		}
	}
}

func defaultOptions() options {
	return options{
		header:           http.Header{},
		maxRetries:       DefaultMaxRetries,
		retryDelay:       DefaultRetryDelay,
		handshakeTimeout: DefaultHandshakeTimeout,
		dialer:           ws.DefaultDialer,
	}
}
