package messaging

import (
	"context"
)

// Publisher defines the interface for publishing indexer events to a message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a committed ledger event
	PublishEvent(ctx context.Context, event *Event) error
	// Close closes the connection
	Close()
}
