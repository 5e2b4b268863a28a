package messaging

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Handler processes one raw message received from a broker channel
type Handler func(payload []byte) error

// Consume subscribes to channel and feeds every message to handler until ctx
// is cancelled or the subscription closes. Handler errors are logged and the
// loop continues.
func Consume(ctx context.Context, broker Broker, channel string, handler Handler) error {
	msgChan, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgChan {
			if err := handler(msg); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("failed to handle broker message")
			}
		}
	}()

	return nil
}
