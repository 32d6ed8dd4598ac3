package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// Producer handles publishing events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishInstrumentAdded publishes an instrument added event
func (p *Producer) PublishInstrumentAdded(ctx context.Context, inst *models.Instrument) error {
	event := models.InstrumentEvent{
		EventType:  models.EventInstrumentAdded,
		Instrument: inst,
		Symbol:     inst.Symbol,
		Timestamp:  time.Now(),
	}
	return p.publish(ctx, inst.Symbol, event)
}

// PublishInstrumentRemoved publishes an instrument removed event
func (p *Producer) PublishInstrumentRemoved(ctx context.Context, symbol string) error {
	event := models.InstrumentEvent{
		EventType: models.EventInstrumentRemoved,
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, symbol, event)
}

// PublishBarsIngested publishes a feed sync completion event for one symbol
func (p *Producer) PublishBarsIngested(ctx context.Context, symbol string, bars int) error {
	event := models.IngestEvent{
		EventType: models.EventBarsIngested,
		Symbol:    symbol,
		Bars:      bars,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
