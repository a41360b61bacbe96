package metrics

import "github.com/prometheus/client_golang/prometheus"

// BroadcastMetrics records websocket fanout activity.
type BroadcastMetrics struct {
	published *prometheus.CounterVec
	delivered prometheus.Counter
	pruned    prometheus.Counter
	clients   prometheus.Gauge
}

// NewBroadcastMetrics registers the broadcast metrics on the provided registerer.
func NewBroadcastMetrics(reg prometheus.Registerer) *BroadcastMetrics {
	if reg == nil {
		return &BroadcastMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_broadcasts_total",
		Help: "Sync change notifications published per table.",
	}, []string{"table"})
	delivered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_messages_delivered_total",
		Help: "Sync messages written to websocket clients.",
	})
	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_clients_pruned_total",
		Help: "Websocket clients dropped after a failed write.",
	})
	clients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_clients_connected",
		Help: "Currently connected websocket clients.",
	})
	reg.MustRegister(published, delivered, pruned, clients)
	return &BroadcastMetrics{
		published: published,
		delivered: delivered,
		pruned:    pruned,
		clients:   clients,
	}
}

// IncPublished increments the broadcast counter for the named table.
func (b *BroadcastMetrics) IncPublished(table string) {
	if b == nil || b.published == nil {
		return
	}
	b.published.WithLabelValues(normalizeLabel(table)).Inc()
}

// IncDelivered increments the delivered message counter.
func (b *BroadcastMetrics) IncDelivered() {
	if b == nil || b.delivered == nil {
		return
	}
	b.delivered.Inc()
}

// IncPruned increments the pruned client counter.
func (b *BroadcastMetrics) IncPruned() {
	if b == nil || b.pruned == nil {
		return
	}
	b.pruned.Inc()
}

// SetConnected sets the connected client gauge.
func (b *BroadcastMetrics) SetConnected(n int) {
	if b == nil || b.clients == nil {
		return
	}
	b.clients.Set(float64(n))
}
