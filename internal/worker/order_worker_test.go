package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-shop-api/internal/model"
)

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error { a.acked++; return nil }

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error { return nil }

type memoryFeed struct {
	events []model.OrderPlacedEvent
	err    error
}

func (f *memoryFeed) Append(_ context.Context, event model.OrderPlacedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type memoryProcessedSet struct {
	seen    map[uuid.UUID]bool
	seenErr error
}

func (s *memoryProcessedSet) Seen(_ context.Context, id uuid.UUID) (bool, error) {
	return s.seen[id], s.seenErr
}

func (s *memoryProcessedSet) Mark(_ context.Context, id uuid.UUID) error {
	s.seen[id] = true
	return nil
}

func newTestWorker(feed OrderFeed, processed ProcessedSet) *OrderEventWorker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrderEventWorker(nil, feed, processed, log)
}

func delivery(t *testing.T, ack *fakeAcknowledger, event model.OrderPlacedEvent) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func TestProcessMessage_RecordsOrderOnce(t *testing.T) {
	feed := &memoryFeed{}
	processed := &memoryProcessedSet{seen: make(map[uuid.UUID]bool)}
	w := newTestWorker(feed, processed)
	event := model.OrderPlacedEvent{OrderID: uuid.New(), UserID: uuid.New(), ProductIDs: []uuid.UUID{uuid.New()}}

	first := &fakeAcknowledger{}
	w.processMessage(context.Background(), delivery(t, first, event))
	assert.Equal(t, 1, first.acked)
	require.Len(t, feed.events, 1)
	assert.Equal(t, event, feed.events[0])

	again := &fakeAcknowledger{}
	w.processMessage(context.Background(), delivery(t, again, event))
	assert.Equal(t, 1, again.acked)
	assert.Len(t, feed.events, 1)
}

func TestProcessMessage_FeedFailureDeadLetters(t *testing.T) {
	feed := &memoryFeed{err: errors.New("redis down")}
	processed := &memoryProcessedSet{seen: make(map[uuid.UUID]bool)}
	w := newTestWorker(feed, processed)
	event := model.OrderPlacedEvent{OrderID: uuid.New(), UserID: uuid.New()}

	ack := &fakeAcknowledger{}
	w.processMessage(context.Background(), delivery(t, ack, event))
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
	assert.False(t, processed.seen[event.OrderID])
}

func TestProcessMessage_IdempotencyStoreDownRequeues(t *testing.T) {
	feed := &memoryFeed{}
	processed := &memoryProcessedSet{seen: make(map[uuid.UUID]bool), seenErr: errors.New("redis down")}
	w := newTestWorker(feed, processed)

	ack := &fakeAcknowledger{}
	w.processMessage(context.Background(), delivery(t, ack, model.OrderPlacedEvent{OrderID: uuid.New()}))
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
	assert.Empty(t, feed.events)
}

func TestProcessMessage_Malformed(t *testing.T) {
	w := newTestWorker(&memoryFeed{}, &memoryProcessedSet{seen: make(map[uuid.UUID]bool)})

	ack := &fakeAcknowledger{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("{")})
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestFeedValues(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	event := model.OrderPlacedEvent{OrderID: uuid.New(), UserID: uuid.New(), ProductIDs: []uuid.UUID{a, b}}

	values := feedValues(event)
	assert.Equal(t, event.OrderID.String(), values["order_id"])
	assert.Equal(t, event.UserID.String(), values["user_id"])
	assert.Equal(t, strings.Join([]string{a.String(), b.String()}, ","), values["product_ids"])
}

type recordingChannel struct {
	key string
	msg amqp.Publishing
}

func (c *recordingChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.key = key
	c.msg = msg
	return nil
}

func TestOrderPublisher(t *testing.T) {
	ch := &recordingChannel{}
	p := &OrderPublisher{channel: ch}
	event := model.OrderPlacedEvent{OrderID: uuid.New(), UserID: uuid.New(), ProductIDs: []uuid.UUID{uuid.New()}}

	require.NoError(t, p.PublishOrderPlaced(context.Background(), event))
	assert.Equal(t, orderPlacedQueue, ch.key)
	assert.Equal(t, event.OrderID.String(), ch.msg.MessageId)

	var got model.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, event, got)
}
