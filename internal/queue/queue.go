// Package queue implements SearchQueue and CaseDataQueue from spec.md §2
// as Redis Streams with consumer groups, giving each queue durable
// delivery, a visibility timeout, and a bounded redelivery count without
// introducing a broker dependency the example pack never shows.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrMaxDeliveries names the condition of a message delivered more times
// than the delivery limit. Queue itself does not return it; the workers
// compare Message.DeliveryCount against their own limit and record the
// case as failed{"max_attempts"}.
var ErrMaxDeliveries = errors.New("queue: message exceeded max deliveries")

// Message is one unit of work read off a stream.
type Message struct {
	ID            string
	Payload       []byte
	DeliveryCount int64
}

// Queue wraps a single Redis Stream plus a single consumer group: queued
// work survives process restarts and is redelivered until acked, with each
// Message carrying its delivery count so workers can stop at a limit.
type Queue struct {
	client            *redis.Client
	streamKey         string
	group             string
	visibilityTimeout time.Duration
	maxDeliveries     int64
	logger            *logrus.Logger
}

// New creates (or attaches to) a Redis Stream consumer group.
func New(ctx context.Context, client *redis.Client, streamKey, group string, visibilityTimeout time.Duration, maxDeliveries int64, logger *logrus.Logger) (*Queue, error) {
	err := client.XGroupCreateMkStream(ctx, streamKey, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, err
	}
	return &Queue{
		client:            client,
		streamKey:         streamKey,
		group:             group,
		visibilityTimeout: visibilityTimeout,
		maxDeliveries:     maxDeliveries,
		logger:            logger,
	}, nil
}

// Send enqueues payload as a single-field stream entry and returns its
// stream ID.
func (q *Queue) Send(ctx context.Context, payload []byte) (string, error) {
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		Values: map[string]interface{}{"payload": payload},
	}).Result()
	if err != nil {
		return "", err
	}
	q.logger.WithFields(logrus.Fields{"stream": q.streamKey, "id": id}).Debug("queue: message sent")
	return id, nil
}

// Receive claims up to count new messages for consumer, blocking up to
// block for at least one to arrive.
func (q *Queue) Receive(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	res, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.streamKey, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q.toMessages(ctx, res)
}

// Reclaim sweeps messages idle longer than the visibility timeout and
// reassigns them to consumer, implementing the at-least-once redelivery
// spec.md §5 relies on when a worker dies mid-job.
func (q *Queue) Reclaim(ctx context.Context, consumer string, count int64) ([]Message, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.streamKey,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.visibilityTimeout,
		Start:    "0",
		Count:    count,
	}).Result()
	if err != nil {
		return nil, err
	}
	return q.toMessages(ctx, []redis.XStream{{Stream: q.streamKey, Messages: msgs}})
}

// Ack removes id from the pending-entries list and deletes it from the
// stream; callers ack only after a job reaches a terminal outcome.
func (q *Queue) Ack(ctx context.Context, id string) error {
	if err := q.client.XAck(ctx, q.streamKey, q.group, id).Err(); err != nil {
		return err
	}
	return q.client.XDel(ctx, q.streamKey, id).Err()
}

func (q *Queue) toMessages(ctx context.Context, streams []redis.XStream) ([]Message, error) {
	var out []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			raw, _ := entry.Values["payload"].(string)

			count, err := q.deliveryCount(ctx, entry.ID)
			if err != nil {
				return nil, err
			}

			out = append(out, Message{ID: entry.ID, Payload: []byte(raw), DeliveryCount: count})
		}
	}
	return out, nil
}

func (q *Queue) deliveryCount(ctx context.Context, id string) (int64, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.streamKey,
		Group:  q.group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 1, nil
	}
	return pending[0].RetryCount, nil
}

// marshalPayload is a small helper so callers can Send a typed job
// without repeating the json.Marshal/error-wrap pair.
func marshalPayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
