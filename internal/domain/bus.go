package domain

import "context"

// Subscription is a live per-channel bus subscription. Messages delivers
// payloads in the bus's order until Close is called or the bus drops the
// connection, after which the channel is closed.
type Subscription interface {
	Messages() <-chan string
	Close() error
}

// Bus is the cross-replica signalling port: pub/sub fan-out plus a bounded
// list used for recent chat history.
type Bus interface {
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	PushRecent(ctx context.Context, key, payload string, limit int64) error
	Recent(ctx context.Context, key string, n int64) ([]string, error)
}
