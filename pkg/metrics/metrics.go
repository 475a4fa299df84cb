package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Node metrics
	NodeRole = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ferro_node_role",
			Help: "Current node role (1 for the active role, 0 otherwise)",
		},
		[]string{"role"},
	)

	RoleTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferro_role_transitions_total",
			Help: "Total number of role transitions by source and target role",
		},
		[]string{"from", "to"},
	)

	// Queue metrics
	InboundMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferro_inbound_messages_total",
			Help: "Total number of messages processed by the controller by kind",
		},
		[]string{"kind"},
	)

	MainQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ferro_main_queue_depth",
			Help: "Number of messages waiting on the main queue",
		},
	)

	// Lifecycle metrics
	ShutdownAcksPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ferro_shutdown_acks_pending",
			Help: "Service shutdown acknowledgements still outstanding",
		},
	)

	ForwardedWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ferro_forwarded_writes_total",
			Help: "Total number of client writes forwarded to the leader",
		},
	)

	ForwardTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ferro_forward_timeouts_total",
			Help: "Total number of forwarded writes that timed out",
		},
	)

	// Storage metrics
	EventsAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ferro_events_appended_total",
			Help: "Total number of events appended to the log",
		},
	)

	EpochsWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ferro_epochs_written_total",
			Help: "Total number of epoch records written",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(NodeRole)
	prometheus.MustRegister(RoleTransitionsTotal)
	prometheus.MustRegister(InboundMessagesTotal)
	prometheus.MustRegister(MainQueueDepth)
	prometheus.MustRegister(ShutdownAcksPending)
	prometheus.MustRegister(ForwardedWritesTotal)
	prometheus.MustRegister(ForwardTimeoutsTotal)
	prometheus.MustRegister(EventsAppendedTotal)
	prometheus.MustRegister(EpochsWrittenTotal)
}

// SetNodeRole flips the role gauge one-hot to the given role
func SetNodeRole(active string, roles []string) {
	for _, r := range roles {
		v := 0.0
		if r == active {
			v = 1.0
		}
		NodeRole.WithLabelValues(r).Set(v)
	}
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
