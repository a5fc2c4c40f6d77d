package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// RabbitMQ publishes changes to a fanout exchange and relays changes from
// every instance into a local Publisher.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// DialRabbitMQ connects and declares the durable fanout exchange
func DialRabbitMQ(url, exchange string, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQ{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends the change as a JSON message
func (r *RabbitMQ) Publish(ctx context.Context, change Change) error {
	body, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.ch.PublishWithContext(ctx, r.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   change.At,
		Body:        body,
	})
}

// Relay binds an exclusive queue to the exchange and forwards every change
// to sink until ctx is cancelled or the connection drops.
func (r *RabbitMQ) Relay(ctx context.Context, sink Publisher) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", r.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	r.logger.Info("relaying change notifications", "exchange", r.exchange, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq delivery channel closed")
			}

			change, err := decodeChange(d.Body)
			if err != nil {
				r.logger.Warn("discarding malformed change", "error", err)
				continue
			}
			if err := sink.Publish(ctx, change); err != nil {
				r.logger.Warn("failed to relay change", "entity", change.Entity, "error", err)
			}
		}
	}
}

// Close closes the channel and connection
func (r *RabbitMQ) Close() {
	if r == nil {
		return
	}
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

func decodeChange(body []byte) (Change, error) {
	var change Change
	if err := json.Unmarshal(body, &change); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	switch change.Entity {
	case EntityTables, EntityOrders, EntityUsers, EntityMenu:
		return change, nil
	default:
		return Change{}, fmt.Errorf("unknown entity %q", change.Entity)
	}
}
