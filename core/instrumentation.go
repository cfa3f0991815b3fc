package translation

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-translate/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	eventsDispatched, _ = meter.Int64Counter("translation.events.dispatched",
		metric.WithDescription("Number of inbound events applied to a session"))
	audioDropped, _ = meter.Int64Counter("translation.audio.dropped",
		metric.WithDescription("Number of synthesized audio responses without a matching translation"))
)
