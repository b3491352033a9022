package logger

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeMessageWriter) Close() error {
	f.closed = true
	return nil
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("not-a-level"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestKafkaLogWriter_Write(t *testing.T) {
	fake := &fakeMessageWriter{}
	w := NewKafkaLogWriterWith(fake)

	log := zerolog.New(w)
	log.Info().Str("order_id", "o-1").Msg("first")
	log.Info().Msg("second")

	require.Len(t, fake.msgs, 2)
	assert.Equal(t, uint64(1), binary.BigEndian.Uint64(fake.msgs[0].Key))
	assert.Equal(t, uint64(2), binary.BigEndian.Uint64(fake.msgs[1].Key))
	assert.Contains(t, string(fake.msgs[0].Value), `"order_id":"o-1"`)
	assert.Contains(t, string(fake.msgs[1].Value), `"message":"second"`)
}

func TestKafkaLogWriter_Closed(t *testing.T) {
	fake := &fakeMessageWriter{}
	w := NewKafkaLogWriterWith(fake)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.True(t, fake.closed)

	_, err := w.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrWriterClosed)
}
