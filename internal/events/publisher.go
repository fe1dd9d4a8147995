// Package events fans store mutations out to in-process subscribers over a
// watermill channel and, optionally, to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	module            = "events"
	TopicStoreChanged = "store.changed"
)

type IPublisher interface {
	Notify(evt dto.ChangeEvent)
	Subscribe(ctx context.Context) (<-chan dto.ChangeEvent, error)
	Close() error
}

type Publisher struct {
	pubSub *gochannel.GoChannel
	log    logger.ILogger
}

func NewPublisher(log logger.ILogger) *Publisher {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NopLogger{},
	)
	return &Publisher{pubSub: pubSub, log: log}
}

// Notify publishes evt on TopicStoreChanged. Events published while nobody
// is subscribed are dropped.
func (p *Publisher) Notify(evt dto.ChangeEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Error(module, "Failed to encode change event", map[string]interface{}{"kind": evt.Kind, "error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(TopicStoreChanged, msg); err != nil {
		p.log.Warn(module, "Failed to publish change event", map[string]interface{}{"kind": evt.Kind, "error": err.Error()})
	}
}

// Subscribe returns decoded events until ctx is done or the publisher is
// closed.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan dto.ChangeEvent, error) {
	messages, err := p.pubSub.Subscribe(ctx, TopicStoreChanged)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicStoreChanged, err)
	}

	out := make(chan dto.ChangeEvent, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			var evt dto.ChangeEvent
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				p.log.Error(module, "Failed to decode change event", map[string]interface{}{"error": err.Error()})
				msg.Ack() // malformed payloads would never succeed on redelivery
				continue
			}
			msg.Ack()
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (p *Publisher) Close() error {
	return p.pubSub.Close()
}
