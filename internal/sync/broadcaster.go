package sync

import (
	"context"
	"encoding/json"

	"github.com/gearhouse/autoparts-backend/pkg/logger"
	"github.com/gearhouse/autoparts-backend/pkg/metrics"
	redispkg "github.com/gearhouse/autoparts-backend/pkg/redis"
)

// Broadcaster is what mutation paths call after a commit. With Redis
// configured frames travel through the sync channel so every instance's
// hub sees them; without it they go straight to the local hub.
type Broadcaster struct {
	redis   *redispkg.Client
	hub     *Hub
	metrics *metrics.BroadcastMetrics
	logg    *logger.Logger
}

// NewBroadcaster wires the broadcast path. redis may be nil.
func NewBroadcaster(redis *redispkg.Client, hub *Hub, broadcastMetrics *metrics.BroadcastMetrics, logg *logger.Logger) *Broadcaster {
	return &Broadcaster{redis: redis, hub: hub, metrics: broadcastMetrics, logg: logg}
}

// Broadcast publishes the affected table names. Failures are logged
// and swallowed: the notification is advisory and the next pull
// corrects any miss.
func (b *Broadcaster) Broadcast(ctx context.Context, tables ...string) {
	if len(tables) == 0 {
		return
	}
	for _, table := range tables {
		b.metrics.IncPublished(table)
	}

	if b.redis == nil {
		if b.hub != nil {
			b.hub.Fanout(tables...)
		}
		return
	}

	frame, err := json.Marshal(Envelope{Type: "sync", Tables: tables})
	if err != nil {
		return
	}
	if err := b.redis.Publish(ctx, redispkg.SyncChannel, string(frame)); err != nil {
		b.logg.Warn(b.logg.WithField(ctx, "error", err.Error()), "sync broadcast publish failed")
	}
}
