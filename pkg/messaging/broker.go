package messaging

import (
	"context"
)

// Broker is the transport for appointment events leaving this service.
// Notification delivery and audit consumers live in other services and
// subscribe on their side.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
