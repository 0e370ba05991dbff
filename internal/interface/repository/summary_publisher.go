package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/streadway/amqp"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/pkg/logger"
)

// amqpChannel is the subset of *amqp.Channel the publisher needs
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// SummaryEvent is the message body published for each stored day
type SummaryEvent struct {
	Date                string         `json:"date"`
	Airport             string         `json:"airport"`
	Summary             entity.Summary `json:"summary"`
	AverageDelayMinutes float64        `json:"average_delay_minutes"`
	PublishedAt         time.Time      `json:"published_at"`
}

// AMQPSummaryPublisher publishes daily summaries to a topic exchange
type AMQPSummaryPublisher struct {
	channel  amqpChannel
	exchange string
	logger   logger.Logger
}

// NewAMQPSummaryPublisher creates a new summary publisher
func NewAMQPSummaryPublisher(channel amqpChannel, exchange string, logger logger.Logger) repository.SummaryPublisher {
	return &AMQPSummaryPublisher{
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}
}

// RoutingKey is summary.<airport>, lower-cased
func RoutingKey(airport string) string {
	return "summary." + strings.ToLower(airport)
}

// Publish sends the summary as a persistent JSON message
func (p *AMQPSummaryPublisher) Publish(ctx context.Context, summary *entity.DailySummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(SummaryEvent{
		Date:                summary.Date,
		Airport:             summary.Airport,
		Summary:             summary.Summary,
		AverageDelayMinutes: summary.AverageDelayMinutes,
		PublishedAt:         time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal summary event: %w", err)
	}

	key := RoutingKey(summary.Airport)
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    summary.Airport + ":" + summary.Date,
		Body:         body,
	}
	if err := p.channel.Publish(p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish summary to %s: %w", p.exchange, err)
	}

	p.logger.Info("Summary published", "exchange", p.exchange, "routingKey", key, "date", summary.Date)
	return nil
}
