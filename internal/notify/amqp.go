package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tornadogo-backend/internal/models"
)

const amqpExchange = "dispatch.events"

// AMQPNotifier publishes every event to a RabbitMQ topic exchange so
// downstream consumers (reporting, SMS gateways) can react without the
// dispatch core knowing about them.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(amqpExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

func (a *AMQPNotifier) Notify(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Failed to encode AMQP event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = a.ch.PublishWithContext(ctx, amqpExchange, routingKey(event.EventType), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        payload,
	})
	if err != nil {
		log.Printf("❌ Failed to publish AMQP event %s: %v", event.EventType, err)
	}
}

func (a *AMQPNotifier) Close() {
	if a.ch != nil {
		a.ch.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
}

func routingKey(eventType string) string {
	switch eventType {
	case models.EventRideRequested:
		return "ride.requested"
	case models.EventDriverAssigned:
		return "ride.assigned"
	case models.EventStatusUpdated:
		return "ride.status"
	case models.EventRideCancelled:
		return "ride.cancelled"
	case models.EventMessageSent:
		return "ride.message"
	default:
		return "dispatch." + strings.ToLower(eventType)
	}
}
