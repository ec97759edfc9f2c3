package hostmux

import "github.com/prometheus/client_golang/prometheus"

// hostMetrics uses its own unregistered counters rather than the default
// registry: a process may hold many HostClients (one per device) and
// prometheus.MustRegister panics on duplicate metric names.
type hostMetrics struct {
	responsesDelivered prometheus.Counter
	requestsSent       prometheus.Counter
	requestsFailed     prometheus.Counter
}

func newHostMetrics() *hostMetrics {
	return &hostMetrics{
		responsesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_hostmux_responses_delivered_total",
			Help: "Response frames matched to a waiting request.",
		}),
		requestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_hostmux_requests_sent_total",
			Help: "Requests enqueued for transmission.",
		}),
		requestsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icdrpc_hostmux_requests_failed_total",
			Help: "Requests that resolved to a HostErr.",
		}),
	}
}
