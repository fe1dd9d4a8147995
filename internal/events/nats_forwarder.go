package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/pkg/logger"

	"github.com/nats-io/nats.go"
)

const SubjectPrefix = "docchat.events."

// NatsForwarder republishes change events on NATS so other processes can
// follow the workspace.
type NatsForwarder struct {
	nc  *nats.Conn
	log logger.ILogger
}

func NewNatsForwarder(url string, log logger.ILogger) (*NatsForwarder, error) {
	nc, err := nats.Connect(url,
		nats.Name("docchat"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsForwarder{nc: nc, log: log}, nil
}

// Subject is the NATS subject an event of the given kind is published on.
func Subject(kind string) string {
	return SubjectPrefix + kind
}

func (f *NatsForwarder) Forward(evt dto.ChangeEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	subject := Subject(evt.Kind)
	if err := f.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

// Run forwards every event from in until it is closed or ctx is done.
func (f *NatsForwarder) Run(ctx context.Context, in <-chan dto.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-in:
			if !ok {
				return
			}
			if err := f.Forward(evt); err != nil {
				f.log.Warn(module, "NATS forward failed", map[string]interface{}{"kind": evt.Kind, "error": err.Error()})
			}
		}
	}
}

func (f *NatsForwarder) Close() {
	if f.nc != nil {
		_ = f.nc.Drain()
	}
}
