package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producer is closed")

const defaultRetryAttempts = 3

// MessageWriter kafka.Writer 的最小介面
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventProducer 把領域事件寫到 kafka
// key 為 aggregate id, 同一張訂單的事件會落在同一個分區
type OrderEventProducer struct {
	w             MessageWriter
	topic         string
	retryAttempts int
	closed        atomic.Bool
}

func NewOrderEventProducer(brokers []string, topic string) *OrderEventProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  defaultRetryAttempts,
		Async:        false,
	}
	return NewOrderEventProducerWith(w, topic, defaultRetryAttempts)
}

func NewOrderEventProducerWith(w MessageWriter, topic string, retryAttempts int) *OrderEventProducer {
	return &OrderEventProducer{
		w:             w,
		topic:         topic,
		retryAttempts: retryAttempts,
	}
}

// Publish 同步發送, 只對暫時性錯誤重試
func (p *OrderEventProducer) Publish(ctx context.Context, events ...evt.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := toMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	var err error
	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("produce to %s: %w", p.topic, ctx.Err())
		}
		err = p.w.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if !isTemporary(err) {
			break
		}
	}
	return fmt.Errorf("produce to %s: %w", p.topic, err)
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.w.Close()
}

func toMessage(e evt.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", e.Type(), err)
	}
	return kafka.Message{
		Key:   []byte(e.GetAggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type())},
			{Key: "event_id", Value: []byte(e.GetID())},
		},
	}, nil
}

func isTemporary(err error) bool {
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
