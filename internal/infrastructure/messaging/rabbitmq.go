package messaging

import (
	"errors"
	"fmt"

	"github.com/streadway/amqp"
)

// SetupRabbitMQ dials url, opens a channel and declares a durable topic
// exchange for summary events.
func SetupRabbitMQ(url, exchange string) (*amqp.Channel, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return ch, conn, nil
}

// CloseRabbitMQ closes the channel, then the connection
func CloseRabbitMQ(ch *amqp.Channel, conn *amqp.Connection) error {
	var errs []error

	if ch != nil {
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing RabbitMQ channel: %w", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing RabbitMQ connection: %w", err))
		}
	}

	return errors.Join(errs...)
}
