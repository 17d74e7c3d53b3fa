package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// PubSub relays tally messages between web instances sharing one Redis.
type PubSub struct {
	client *goredis.Client
}

func NewPubSub(client *goredis.Client) *PubSub {
	return &PubSub{client: client}
}

func (p *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Subscribe calls handler for every message on channels matching pattern
// until ctx is done or the subscription fails.
func (p *PubSub) Subscribe(ctx context.Context, pattern string, handler func(channel string, payload []byte)) error {
	sub := p.client.PSubscribe(ctx, pattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler(msg.Channel, []byte(msg.Payload))
		}
	}
}
