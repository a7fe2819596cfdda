// Package metrics provides Prometheus metrics for the process supervisor.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tunneld",
		Subsystem: "supervisor",
		Name:      "spawns_total",
		Help:      "Total processes spawned",
	})

	exitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunneld",
		Subsystem: "supervisor",
		Name:      "exits_total",
		Help:      "Total process exits by outcome (clean, error, signal)",
	}, []string{"outcome"})

	stopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tunneld",
		Subsystem: "supervisor",
		Name:      "stops_total",
		Help:      "Total stop requests by whether the process was force-killed",
	}, []string{"forced"})
)

// RegisterRunningGauge exposes the current running-process count as a
// gauge. Call once at startup with the supervisor's counter.
func RegisterRunningGauge(count func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tunneld",
		Subsystem: "supervisor",
		Name:      "running_processes",
		Help:      "Number of processes currently running",
	}, count)
}

// Recorder feeds supervisor lifecycle notifications into the Prometheus
// metrics above. The zero value is ready to use.
type Recorder struct{}

// ProcessSpawned counts a successful spawn.
func (Recorder) ProcessSpawned() {
	spawnsTotal.Inc()
}

// ProcessExited counts an exit under its outcome label.
func (Recorder) ProcessExited(outcome string) {
	exitsTotal.WithLabelValues(outcome).Inc()
}

// StopRequested counts a handled stop request.
func (Recorder) StopRequested(forced bool) {
	stopsTotal.WithLabelValues(strconv.FormatBool(forced)).Inc()
}
