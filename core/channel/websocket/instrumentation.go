package websocket

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-translate/core/channel/websocket"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var reconnectAttempts, _ = meter.Int64Counter("channel.reconnect.attempts",
	metric.WithDescription("Number of websocket reconnection attempts"))
