package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/ivpulse/iv-scanner/internal/models"
)

// BarRepository defines the interface for bar persistence
type BarRepository interface {
	UpsertBar(b *models.Bar) error
}

// Consumer ingests daily bars published by an upstream feed into the series
// store. Writes are upserts keyed on (symbol, date), so replayed or duplicate
// events are idempotent.
type Consumer struct {
	reader *kafka.Reader
	repo   BarRepository
}

// NewConsumer creates a new Kafka consumer for bar events
func NewConsumer(brokers []string, topic, groupID string, repo BarRepository) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Str("topic", c.reader.Config().Topic).Msg("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Error().Err(err).Msg("error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	var event models.BarEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal bar event: %w", err)
	}

	if event.EventType != models.EventBarUpsert {
		log.Debug().Str("event_type", event.EventType).Msg("ignoring event type")
		return nil
	}

	bar, err := c.convertEventToBar(event)
	if err != nil {
		return fmt.Errorf("failed to convert bar event: %w", err)
	}

	if err := c.repo.UpsertBar(bar); err != nil {
		return fmt.Errorf("failed to save bar: %w", err)
	}

	log.Debug().
		Str("symbol", bar.Symbol).
		Str("date", bar.Date.Format("2006-01-02")).
		Msg("saved bar")

	return nil
}

// convertEventToBar maps a BarEvent to a Bar model
func (c *Consumer) convertEventToBar(event models.BarEvent) (*models.Bar, error) {
	if event.Symbol == "" {
		return nil, fmt.Errorf("bar event missing symbol")
	}

	date, err := time.Parse("2006-01-02", event.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", event.Date, err)
	}

	open, err := decimal.NewFromString(event.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open %q: %w", event.Open, err)
	}
	high, err := decimal.NewFromString(event.High)
	if err != nil {
		return nil, fmt.Errorf("invalid high %q: %w", event.High, err)
	}
	low, err := decimal.NewFromString(event.Low)
	if err != nil {
		return nil, fmt.Errorf("invalid low %q: %w", event.Low, err)
	}
	closePrice, err := decimal.NewFromString(event.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close %q: %w", event.Close, err)
	}

	bar := &models.Bar{
		Symbol: event.Symbol,
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
	}

	if event.IV != nil {
		iv, err := decimal.NewFromString(*event.IV)
		if err != nil {
			return nil, fmt.Errorf("invalid iv %q: %w", *event.IV, err)
		}
		if iv.IsNegative() {
			return nil, fmt.Errorf("negative iv %s for %s", iv, event.Symbol)
		}
		bar.IV = &iv
	}

	return bar, nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
