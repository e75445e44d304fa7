// Package metrics exposes Prometheus counters that describe how the webhook is being
// used: every method is safe to call on a nil *Metrics, which records nothing
package metrics

import (
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shoutout"

type Metrics struct {
	gatherer prometheus.Gatherer

	signatureFailures prometheus.Counter
	messages          *prometheus.CounterVec
	tokenRefreshes    *prometheus.CounterVec
	chatSends         *prometheus.CounterVec
}

// New creates a Metrics value whose collectors are registered in a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		signatureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_failures_total",
			Help:      "Webhook requests rejected because their signature did not verify.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Verified webhook messages, by message type and subscription type.",
		}, []string{"message_type", "subscription_type"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "App access token exchanges, by result.",
		}, []string{"result"}),
		chatSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_sends_total",
			Help:      "Chat messages sent in response to raids, by HTTP status code.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		m.signatureFailures,
		m.messages,
		m.tokenRefreshes,
		m.chatSends,
	)
	return m
}

// RegisterRoutes exposes GET /metrics in the Prometheus text format
func (m *Metrics) RegisterRoutes(r *mux.Router) {
	r.Path("/metrics").Methods("GET").Handler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

func (m *Metrics) SignatureFailed() {
	if m == nil {
		return
	}
	m.signatureFailures.Inc()
}

func (m *Metrics) MessageReceived(messageType, subscriptionType string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(messageType, subscriptionType).Inc()
}

func (m *Metrics) TokenRefreshed(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.tokenRefreshes.WithLabelValues(result).Inc()
}

// ChatSent records the outcome of a chat send; status 0 means the request never got a
// response
func (m *Metrics) ChatSent(status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.chatSends.WithLabelValues(label).Inc()
}
