// Package events publishes lifecycle transitions to a Pub/Sub topic for
// downstream consumers (scoring, analytics). Publishing is best effort and
// never blocks or fails the originating operation.
package events

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/utils"
)

const (
	GameCreated = "game.created"
	GameStarted = "game.started"
	GameEnded   = "game.ended"
	GameDeleted = "game.deleted"

	publishAttempts = 3
)

type Event struct {
	Type       string          `json:"type"`
	GameId     string          `json:"gameId"`
	State      model.GameState `json:"state"`
	OccurredAt int64           `json:"occurredAt"`
}

// Sink accepts lifecycle events. The coordinator only depends on this so
// tests can drop events on the floor.
type Sink interface {
	Publish(event Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Publish(Event) {}

type Publisher struct {
	ctx    context.Context
	client *pubsub.Client
	topic  *pubsub.Topic
}

var _ Sink = (*Publisher)(nil)

func NewPublisher(ctx context.Context, projectId string, topicName string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectId)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		ctx:    ctx,
		client: client,
		topic:  client.Topic(topicName),
	}, nil
}

// Publish hands the event off asynchronously with a bounded retry. Failures
// after the final attempt are logged and dropped.
func (p *Publisher) Publish(event Event) {
	go func() {
		b := &backoff.Backoff{
			Min:    100 * time.Millisecond,
			Max:    5 * time.Second,
			Jitter: true,
		}

		for attempt := 1; ; attempt++ {
			result := p.topic.Publish(p.ctx, &pubsub.Message{Data: utils.JsonEncode(event)})
			_, err := result.Get(p.ctx)
			if err == nil {
				return
			}
			if attempt >= publishAttempts {
				log.Warn().
					Err(err).
					Str("type", event.Type).
					Str("gameId", event.GameId).
					Msg("Dropping lifecycle event after repeated publish failures")
				return
			}
			time.Sleep(b.Duration())
		}
	}()
}

func (p *Publisher) Close() {
	p.topic.Stop()
	p.client.Close()
}
