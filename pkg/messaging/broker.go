// Package messaging fans realtime events out across API instances. Payloads
// are JSON; channels are plain names shared by every instance.
package messaging

import (
	"context"
	"errors"
)

var ErrBrokerClosed = errors.New("broker closed")

// Broker publishes JSON-encoded messages to named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	// Subscribe delivers raw payloads until ctx ends or the broker closes.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Pinger is implemented by networked brokers for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
