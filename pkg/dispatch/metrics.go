package dispatch

import "github.com/prometheus/client_golang/prometheus"

// metrics mirrors the kind of counters internal/ron exposes ad hoc via
// its own command/response bookkeeping, wired here to prometheus/client_golang
// instead since that's the metrics library the rest of the pack uses.
type metrics struct {
	framesReceived   prometheus.Counter
	framesDispatched prometheus.Counter
	unknownKey       prometheus.Counter
	deserFailed      prometheus.Counter
	serFailed        prometheus.Counter
	spawnFailed      prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_dispatch_frames_received_total",
			Help: "Frames received by the dispatcher run loop.",
		}),
		framesDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_dispatch_frames_dispatched_total",
			Help: "Frames handed to an inline (non-spawn) handler.",
		}),
		unknownKey: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_dispatch_unknown_key_total",
			Help: "Frames dropped for carrying an unregistered key.",
		}),
		deserFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_dispatch_deserialize_failed_total",
			Help: "Requests that failed to deserialize.",
		}),
		serFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_dispatch_serialize_failed_total",
			Help: "Responses that failed to serialize.",
		}),
		spawnFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_dispatch_spawn_failed_total",
			Help: "Spawn-flavor handlers that the executor rejected.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.framesReceived, m.framesDispatched, m.unknownKey, m.deserFailed, m.serFailed, m.spawnFailed)
	}
	return m
}
