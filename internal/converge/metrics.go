// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package converge

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ConvergenceTotal counts converged records by action taken and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var ConvergenceTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "esplugin_convergence_total",
		Help: "Total number of plugin records converged",
	},
	[]string{"action", "result"},
)

// InstallAttempts counts plugin tool install invocations, retries included.
var InstallAttempts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "esplugin_install_attempts_total",
		Help: "Total number of plugin install attempts",
	},
)

// RegisterMetrics registers converge metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ConvergenceTotal)
	reg.MustRegister(InstallAttempts)
}

func recordConvergence(action Action, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	ConvergenceTotal.WithLabelValues(string(action), status).Inc()
}
