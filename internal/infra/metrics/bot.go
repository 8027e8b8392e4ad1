package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		botCommandsTotal,
		botRateLimitTotal,
		adminCommandTotal,
	)
}

var (
	botCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_received_total",
			Help: "Counts incoming commands from chat users.",
		},
		[]string{"command"},
	)

	botRateLimitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	adminCommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_command_total",
			Help: "Tracks attempts to use admin commands.",
		},
		[]string{"command", "status"}, // status: 'authorized', 'unauthorized'
	)
)

func IncBotCommand(command string) {
	botCommandsTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	botRateLimitTotal.Inc()
}

func IncAdminCommand(command, status string) {
	adminCommandTotal.WithLabelValues(norm(command), norm(status)).Inc()
}
