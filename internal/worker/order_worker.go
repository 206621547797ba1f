package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-shop-api/internal/model"
)

const (
	orderPlacedQueue = "orders.placed"
	dlxExchange      = "orders.placed.dlx"
	dlqQueueName     = "orders.placed.dlq"
	idempotencyTTL   = 24 * time.Hour

	orderFeedStream = "orders:placed"
	orderFeedMaxLen = 10000
)

// OrderFeed receives each placed order once. It only reads the event; it
// never touches like, favorite or cart state.
type OrderFeed interface {
	Append(ctx context.Context, event model.OrderPlacedEvent) error
}

type redisOrderFeed struct {
	client *redis.Client
}

// NewRedisOrderFeed appends events to a capped Redis stream.
func NewRedisOrderFeed(client *redis.Client) OrderFeed {
	return &redisOrderFeed{client: client}
}

func (f *redisOrderFeed) Append(ctx context.Context, event model.OrderPlacedEvent) error {
	return f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: orderFeedStream,
		MaxLen: orderFeedMaxLen,
		Approx: true,
		Values: feedValues(event),
	}).Err()
}

func feedValues(event model.OrderPlacedEvent) map[string]any {
	ids := make([]string, len(event.ProductIDs))
	for i, id := range event.ProductIDs {
		ids[i] = id.String()
	}
	return map[string]any{
		"order_id":    event.OrderID.String(),
		"user_id":     event.UserID.String(),
		"product_ids": strings.Join(ids, ","),
	}
}

// ProcessedSet remembers which orders the worker has already handled.
type ProcessedSet interface {
	Seen(ctx context.Context, orderID uuid.UUID) (bool, error)
	Mark(ctx context.Context, orderID uuid.UUID) error
}

type redisProcessedSet struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProcessedSet(client *redis.Client) ProcessedSet {
	return &redisProcessedSet{client: client, ttl: idempotencyTTL}
}

func processedKey(orderID uuid.UUID) string { return "order_processed:" + orderID.String() }

func (s *redisProcessedSet) Seen(ctx context.Context, orderID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, processedKey(orderID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisProcessedSet) Mark(ctx context.Context, orderID uuid.UUID) error {
	return s.client.Set(ctx, processedKey(orderID), "1", s.ttl).Err()
}

// OrderEventWorker consumes order.placed and forwards each order to the feed.
type OrderEventWorker struct {
	channel   *amqp.Channel
	feed      OrderFeed
	processed ProcessedSet
	log       *slog.Logger
	done      chan struct{}
}

func NewOrderEventWorker(ch *amqp.Channel, feed OrderFeed, processed ProcessedSet, log *slog.Logger) *OrderEventWorker {
	return &OrderEventWorker{
		channel:   ch,
		feed:      feed,
		processed: processed,
		log:       log,
		done:      make(chan struct{}),
	}
}

// SetupRabbitMQ declares the order.placed queue and its dead-letter route.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderPlacedQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderPlacedQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderPlacedQueue,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderEventWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order event worker started")
	return nil
}

func (w *OrderEventWorker) Stop() { close(w.done) }

func (w *OrderEventWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderPlacedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order placed event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", event.OrderID, "user_id", event.UserID)

	seen, err := w.processed.Seen(ctx, event.OrderID)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("order already processed, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.feed.Append(ctx, event); err != nil {
		log.Error("append order feed", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.processed.Mark(ctx, event.OrderID); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order recorded", "products", len(event.ProductIDs))
}
