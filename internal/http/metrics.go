package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safebell_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})

	gateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safebell_gate_failures_total",
		Help: "Rejected PIN checks by gate tier.",
	}, []string{"kind"})

	kioskLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safebell_kiosk_lockouts_total",
		Help: "Kiosk promotion sequences that crossed the failure threshold.",
	})

	settingsWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safebell_settings_writes_total",
		Help: "Accepted writes to the global configuration record.",
	})
)
