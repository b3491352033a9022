package logger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrWriterClosed = errors.New("kafka log writer is closed")

// MessageWriter kafka.Writer 的最小介面, 方便測試替換
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLogWriter 把 zerolog 輸出轉寫到 kafka topic
// 使用遞增 log id 當 key, 讓訊息平均分配到各分區
type KafkaLogWriter struct {
	w      MessageWriter
	logId  atomic.Int64
	closed atomic.Bool
}

func NewKafkaLogWriter(brokers []string, topic string) *KafkaLogWriter {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
		// 設置較短的超時時間以快速發現問題
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		Async:        true,
	}
	return NewKafkaLogWriterWith(w)
}

func NewKafkaLogWriterWith(w MessageWriter) *KafkaLogWriter {
	return &KafkaLogWriter{w: w}
}

func (kw *KafkaLogWriter) Write(p []byte) (n int, err error) {
	if kw.closed.Load() {
		return 0, ErrWriterClosed
	}

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(kw.logId.Add(1)))

	// zerolog 會重用 buffer
	value := make([]byte, len(p))
	copy(value, p)

	if err := kw.w.WriteMessages(context.Background(), kafka.Message{Key: key, Value: value}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (kw *KafkaLogWriter) Close() error {
	if !kw.closed.CompareAndSwap(false, true) {
		return nil
	}
	return kw.w.Close()
}
