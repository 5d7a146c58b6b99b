package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// ======================
// 🔹 Kafka
// ======================

type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(w *kafka.Writer) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (k *KafkaSink) Name() string { return "kafka" }

// Send keys messages by counter so one counter's events stay ordered within a partition.
func (k *KafkaSink) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.CounterID),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
}

// ======================
// 🔹 Redis pub/sub
// ======================

type RedisSink struct {
	client *redis.Client
	prefix string
}

func NewRedisSink(client *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "seva:events"
	}
	return &RedisSink{client: client, prefix: prefix}
}

func (r *RedisSink) Name() string { return "redis" }

// Channel is the pub/sub channel a counter's dashboards subscribe to.
func (r *RedisSink) Channel(counterID string) string {
	return fmt.Sprintf("%s:counter:%s", r.prefix, counterID)
}

func (r *RedisSink) Send(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.Channel(e.CounterID), string(payload)).Err()
}

// ======================
// 🔹 RabbitMQ
// ======================

// RabbitSink publishes persistent JSON messages to a durable queue.
// The connection is dialled lazily and re-dialled after a failure.
type RabbitSink struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitSink(url, queue string) *RabbitSink {
	return &RabbitSink{url: url, queue: queue}
}

func (r *RabbitSink) Name() string { return "rabbitmq" }

func (r *RabbitSink) channel() (*amqp.Channel, error) {
	if r.ch != nil && !r.ch.IsClosed() {
		return r.ch, nil
	}
	r.reset()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	r.conn, r.ch = conn, ch
	return ch, nil
}

func (r *RabbitSink) reset() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
	r.ch, r.conn = nil, nil
}

func (r *RabbitSink) Send(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Type:         e.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		r.reset()
	}
	return err
}

func (r *RabbitSink) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// ======================
// 🔹 FCM topic push
// ======================

// FCMSink pushes a short notification to the counter's topic so supervisor devices
// see cancellations, no-shows and settlement changes.
type FCMSink struct {
	client *messaging.Client
}

func NewFCMSink(client *messaging.Client) *FCMSink {
	return &FCMSink{client: client}
}

func (f *FCMSink) Name() string { return "fcm" }

// Topic maps a counter id onto the characters FCM allows in topic names.
func Topic(counterID string) string {
	var b strings.Builder
	b.WriteString("counter_")
	for _, r := range counterID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (f *FCMSink) Send(ctx context.Context, e Event) error {
	title, body, ok := pushText(e)
	if !ok {
		return nil
	}

	_, err := f.client.Send(ctx, &messaging.Message{
		Topic: Topic(e.CounterID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"event_id":    e.ID,
			"event_type":  e.Type,
			"resource":    e.Resource,
			"resource_id": fmt.Sprintf("%d", e.ResourceID),
		},
	})
	return err
}

// pushText decides which events are worth a device notification.
func pushText(e Event) (string, string, bool) {
	receipt, _ := e.Payload["receipt_number"].(string)
	switch e.Type {
	case TypeCancelled:
		return "Booking cancelled", fmt.Sprintf("Receipt %s cancelled at counter %s", receipt, e.CounterID), true
	case TypeNoShow:
		return "No-show recorded", fmt.Sprintf("Receipt %s marked no-show at counter %s", receipt, e.CounterID), true
	case TypeSettlementSubmitted:
		return "Settlement submitted", fmt.Sprintf("Counter %s %s %s awaits approval", e.CounterID, e.BusinessDate, e.Shift), true
	case TypeSettlementLocked:
		return "Settlement locked", fmt.Sprintf("Counter %s %s %s is locked", e.CounterID, e.BusinessDate, e.Shift), true
	default:
		return "", "", false
	}
}
