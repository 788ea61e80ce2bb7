package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/matchday/internal/coordinator"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// publisher is the part of *amqp.Channel the AMQP fan-out uses.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher forwards live messages to a topic exchange with routing keys
// of the form "match.<id>.<type>".
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	slog.Info("Connected to AMQP broker.", "exchange", exchange)
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func routingKey(msg Message) string {
	return fmt.Sprintf("match.%s.%s", msg.MatchID, msg.Type)
}

func (p *AMQPPublisher) Publish(msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal live message: %w", err)
	}
	return p.channel.Publish(p.exchange, routingKey(msg), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Invalidated(matchID uuid.UUID, views []coordinator.View) {
	if err := p.Publish(invalidateMessage(matchID, views)); err != nil {
		slog.Warn("failed to publish invalidation", "match_id", matchID, "error", err)
	}
}

func (p *AMQPPublisher) ClockTicked(matchID uuid.UUID, label string) {
	if err := p.Publish(clockMessage(matchID, label)); err != nil {
		slog.Warn("failed to publish clock", "match_id", matchID, "error", err)
	}
}
