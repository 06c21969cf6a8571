// Package events mirrors broadcast-scope state changes onto a Kafka topic
// for downstream consumers. Publishing is fire-and-forget: a broker
// outage degrades to log noise, never to a failed user request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

// NewPublisher returns nil when no brokers are configured; callers treat
// a nil publisher as disabled.
func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &Publisher{writer: w, log: log}
}

type record struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	At    int64  `json:"at"`
}

func (p *Publisher) Publish(ctx context.Context, event string, payload any) {
	if p == nil {
		return
	}
	b, err := json.Marshal(record{Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		p.log.Warnw("marshal event", "event", event, "err", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event), Value: b}); err != nil {
		p.log.Warnw("publish event", "event", event, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
