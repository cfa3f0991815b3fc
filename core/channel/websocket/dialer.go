// Package websocket implements [channel.Dialer] over gorilla/websocket.
//
// Frames travel as JSON text messages shaped {"event": "...", "data": {...}}.
// A dropped connection is retried a bounded number of times with a fixed
// delay; the session layer observes this only through lifecycle frames.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	ws "github.com/gorilla/websocket"
	"github.com/koscakluka/ema-translate/core/channel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	envURL   = "EMA_TRANSLATE_URL"
	envToken = "EMA_TRANSLATE_TOKEN"
)

var _ channel.Dialer = (*Dialer)(nil)

type Dialer struct {
	baseURL *url.URL
	options options
}

// NewDialer creates a dialer for the backend at baseURL. http and https
// schemes are mapped to ws and wss.
func NewDialer(baseURL string, opts ...Option) (*Dialer, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	switch parsed.Scheme {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported base url scheme %q", parsed.Scheme)
	}

	d := &Dialer{baseURL: parsed, options: defaultOptions()}
	for _, opt := range opts {
		opt(&d.options)
	}

	return d, nil
}

// NewDialerFromEnv creates a dialer from EMA_TRANSLATE_URL and the optional
// EMA_TRANSLATE_TOKEN. Explicit options are applied after the environment.
func NewDialerFromEnv(opts ...Option) (*Dialer, error) {
	baseURL, ok := os.LookupEnv(envURL)
	if !ok || baseURL == "" {
		return nil, fmt.Errorf("%s not set", envURL)
	}

	if token, ok := os.LookupEnv(envToken); ok && token != "" {
		opts = append([]Option{WithToken(token)}, opts...)
	}

	return NewDialer(baseURL, opts...)
}

// Dial connects to the namespace synchronously and then keeps the channel
// alive in the background until it is closed. The handler receives a
// connect frame as its first frame.
func (d *Dialer) Dial(ctx context.Context, namespace string, handler channel.Handler) (channel.Channel, error) {
	endpoint := d.endpoint(namespace)

	conn, err := d.connect(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	return newChannel(ctx, d, endpoint, conn, handler), nil
}

func (d *Dialer) endpoint(namespace string) string {
	if namespace == "" {
		return d.baseURL.String()
	}
	return d.baseURL.JoinPath(namespace).String()
}

func (d *Dialer) connect(ctx context.Context, endpoint string) (*ws.Conn, error) {
	ctx, span := tracer.Start(ctx, "dial websocket")
	defer span.End()
	span.SetAttributes(attribute.String("endpoint", endpoint))

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.options.handshakeTimeout)
		defer cancel()
	}

	header := d.options.header.Clone()
	if d.options.token != "" {
		header.Set("Authorization", "Bearer "+d.options.token)
	}

	conn, resp, err := d.options.dialer.DialContext(dialCtx, endpoint, header)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				err = fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, channel.ErrUnauthorized)
			default:
				err = fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return conn, nil
}
