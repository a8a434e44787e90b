// Copyright 2024-2026 Aiku AI

package helpbot

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpbot_events_total",
		Help: "Routed events by kind (message, member, other).",
	}, []string{"kind"})
	duplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpbot_events_duplicate_total",
		Help: "Events skipped because their ID was already handled.",
	})
	malformedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpbot_events_malformed_total",
		Help: "Events dropped due to missing or unparseable fields.",
	})
	helpReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpbot_help_replies_total",
		Help: "Help replies sent.",
	})
	welcomesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpbot_welcomes_sent_total",
		Help: "Welcome messages sent.",
	})
	staleJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpbot_stale_joins_total",
		Help: "Join events classified as stale or out of scope.",
	})
	sendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "helpbot_send_failures_total",
		Help: "Outbound sends rejected by the homeserver.",
	})
)

// ServeMetrics starts a Prometheus /metrics listener on the given address
// in a background goroutine. Listener errors are logged, not fatal.
func ServeMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("Starting metrics listener")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics listener error")
		}
	}()
}
