package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	registry    *prometheus.Registry
	turns       prometheus.Counter
	subscribers prometheus.Gauge
	bullets     prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tankroyale",
			Name:      "turns_total",
			Help:      "Turns produced by the battle.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tankroyale",
			Name:      "subscribers",
			Help:      "Connected websocket subscribers.",
		}),
		bullets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tankroyale",
			Name:      "bullets_in_flight",
			Help:      "Bullets in the latest turn.",
		}),
	}
	m.registry.MustRegister(m.turns, m.subscribers, m.bullets)
	return m
}
