package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/go-shop-api/internal/model"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// OrderPublisher sends order.placed events to the queue consumed by
// OrderEventWorker.
type OrderPublisher struct {
	channel amqpPublisher
}

func NewOrderPublisher(ch *amqp.Channel) *OrderPublisher {
	return &OrderPublisher{channel: ch}
}

func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order placed event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", orderPlacedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.OrderID.String(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order placed: %w", err)
	}
	return nil
}
