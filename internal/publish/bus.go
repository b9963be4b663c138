package publish

import (
	"context"
	"fmt"

	"smokegomodule/internal/types"
	"smokegomodule/shared/messagebus"
	"smokegomodule/shared/utils"

	"github.com/bytedance/sonic"
)

// BusPublisher sends one message per result, keyed by email
type BusPublisher struct {
	producer messagebus.Producer
	topic    string
}

func NewBusPublisher(producer messagebus.Producer, topic string) *BusPublisher {
	return &BusPublisher{producer: producer, topic: topic}
}

func (p *BusPublisher) Name() string { return "messagebus" }

func (p *BusPublisher) Publish(ctx context.Context, report types.Report) error {
	for _, doc := range documentsFor(report) {
		value, err := sonic.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", doc.Email, err)
		}
		msg := &messagebus.Message{
			Topic:   p.topic,
			Key:     doc.Email,
			Value:   value,
			Headers: map[string]string{utils.TraceIDHeader: report.RunID},
		}
		if _, _, err := p.producer.Send(ctx, msg); err != nil {
			return fmt.Errorf("failed to send result for %s: %w", doc.Email, err)
		}
	}
	return nil
}

func (p *BusPublisher) Close() error {
	return p.producer.Close()
}
