package websocket

import (
	"context"
	"strings"
	"time"

	"battle-pollster/internal/domain/poll"
	"battle-pollster/pkg/logger"

	"go.uber.org/zap"
)

const relayPrefix = "tally:"

// Bus is a publish/subscribe transport shared by several web instances.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, pattern string, handler func(channel string, payload []byte)) error
}

// Relay fans tallies out through a Bus so subscribers connected to any
// instance see votes cast on any other.
type Relay struct {
	bus     Bus
	hub     *Hub
	logger  *logger.Logger
	timeout time.Duration
}

func NewRelay(bus Bus, hub *Hub, l *logger.Logger) *Relay {
	if l == nil {
		l = logger.NewNop()
	}
	return &Relay{bus: bus, hub: hub, logger: l, timeout: 2 * time.Second}
}

// PublishTally sends through the bus, falling back to local subscribers
// when the bus is unavailable.
func (r *Relay) PublishTally(pollID string, t poll.Tally) {
	payload, err := EncodeTally(pollID, t)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.bus.Publish(ctx, relayPrefix+pollID, payload); err != nil {
		r.logger.Warnf("relay tally for %s: %v", pollID, err)
		r.hub.Broadcast(PollChannel(pollID), payload)
	}
}

// Run delivers bus messages to this instance's hub until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	err := r.bus.Subscribe(ctx, relayPrefix+"*", func(channel string, payload []byte) {
		r.hub.Broadcast(PollChannel(strings.TrimPrefix(channel, relayPrefix)), payload)
	})
	if err != nil && ctx.Err() == nil {
		r.logger.Logger.Error("tally relay stopped", zap.Error(err))
	}
	return err
}
