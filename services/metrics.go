package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine counters exported on /metrics.
type Metrics struct {
	Likes             *prometheus.CounterVec
	Passes            prometheus.Counter
	Matches           prometheus.Counter
	Messages          *prometheus.CounterVec
	QuotaRejections   *prometheus.CounterVec
	LiveSubscriptions prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg when reg is
// not nil. Tests pass nil to keep the default registry clean.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flamematch_likes_total",
			Help: "Likes recorded, by kind.",
		}, []string{"kind"}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flamematch_passes_total",
			Help: "Passes recorded.",
		}),
		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flamematch_matches_total",
			Help: "Matches created.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flamematch_messages_total",
			Help: "Messages appended, by type.",
		}, []string{"type"}),
		QuotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flamematch_quota_rejections_total",
			Help: "Likes rejected because the daily counter was exhausted, by kind.",
		}, []string{"kind"}),
		LiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flamematch_live_subscriptions",
			Help: "Live message and match feeds currently open.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Likes, m.Passes, m.Matches, m.Messages, m.QuotaRejections, m.LiveSubscriptions)
	}
	return m
}

func (m *Metrics) like(kind string) {
	if m != nil {
		m.Likes.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) pass() {
	if m != nil {
		m.Passes.Inc()
	}
}

func (m *Metrics) match() {
	if m != nil {
		m.Matches.Inc()
	}
}

func (m *Metrics) message(msgType string) {
	if m != nil {
		m.Messages.WithLabelValues(msgType).Inc()
	}
}

func (m *Metrics) quotaRejected(kind string) {
	if m != nil {
		m.QuotaRejections.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) feedOpened() {
	if m != nil {
		m.LiveSubscriptions.Inc()
	}
}

func (m *Metrics) feedClosed() {
	if m != nil {
		m.LiveSubscriptions.Dec()
	}
}
