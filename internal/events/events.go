// Package events carries answered chat turns to the conversation archive, either
// through Kafka or inline when no brokers are configured.
package events

import (
	"context"

	"github.com/yoockh/yooassist/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, ev models.TurnEvent) error
	Close() error
}

// Archiver persists one turn event. Archiving the same event twice must be harmless.
type Archiver interface {
	Archive(ctx context.Context, ev models.TurnEvent) error
}

// DirectPublisher archives in the caller's goroutine.
type DirectPublisher struct {
	archive Archiver
}

func NewDirectPublisher(a Archiver) *DirectPublisher {
	return &DirectPublisher{archive: a}
}

func (p *DirectPublisher) Publish(ctx context.Context, ev models.TurnEvent) error {
	if p.archive == nil {
		return nil
	}
	return p.archive.Archive(ctx, ev)
}

func (p *DirectPublisher) Close() error { return nil }

// NopPublisher drops events; used when the archive is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.TurnEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
