// Package events publishes one audit record per relay attempt to a Kafka
// topic. The stream is observability only: publish failures are logged and
// never fail the originating request.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OrderEvent is the JSON schema written to the topic.
type OrderEvent struct {
	Symbol    string    `json:"symbol"`
	Epic      string    `json:"epic,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Size      string    `json:"size,omitempty"`
	Outcome   string    `json:"outcome"`
	TS        time.Time `json:"ts"`
}

type Publisher struct {
	w      *kafka.Writer
	logger *zap.Logger
}

// NewPublisher returns nil when no brokers are configured; a nil Publisher
// is safe to use and publishes nothing.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Dialer:       dialer,
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
	})
	return &Publisher{w: w, logger: logger}
}

func (p *Publisher) Publish(ev OrderEvent) {
	if p == nil {
		return
	}
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("event marshal", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg := kafka.Message{Key: []byte(ev.Symbol), Value: b, Time: ev.TS}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("event publish failed", zap.String("symbol", ev.Symbol), zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}
