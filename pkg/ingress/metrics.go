package ingress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "puckpulse_connected_clients",
		Help: "Number of currently open control connections.",
	})

	broadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "puckpulse_broadcasts_sent_total",
		Help: "Number of messages fanned out to all clients.",
	})

	commandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "puckpulse_commands_received_total",
		Help: "Number of inbound commands, by command name.",
	}, []string{"command"})

	commandsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "puckpulse_commands_rejected_total",
		Help: "Number of inbound messages dropped for being malformed or rate limited.",
	})
)
