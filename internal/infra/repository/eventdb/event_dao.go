package eventdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
)

type EventFormatError error

var ErrEventFormat EventFormatError = errors.New("event format error")

const readBatchSize = 100

type EventDao struct {
	client *esdb.Client
}

func NewEventDao(db *esdb.Client) *EventDao {
	return &EventDao{client: db}
}

// NewEventStoreClient 例: esdb://localhost:2113?tls=false
func NewEventStoreClient(url string) (*esdb.Client, error) {
	settings, err := esdb.ParseConnectionString(url)
	if err != nil {
		return nil, err
	}
	return esdb.NewClient(settings)
}

// 寫入事件
func (dao *EventDao) AppendEvent(ctx context.Context, streamID, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEventFormat, err)
	}
	eventData := esdb.EventData{
		ContentType: esdb.ContentTypeJson,
		EventType:   eventType,
		Data:        payload,
	}
	_, err = dao.client.AppendToStream(ctx, streamID, esdb.AppendToStreamOptions{}, eventData)
	return err
}

// 讀取事件, 最多讀 readBatchSize 筆
func (dao *EventDao) ReadEvents(ctx context.Context, streamID string) ([]*esdb.ResolvedEvent, error) {
	opts := esdb.ReadStreamOptions{}
	stream, err := dao.client.ReadStream(ctx, streamID, opts, readBatchSize)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var events []*esdb.ResolvedEvent
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

// 刪除事件流
func (dao *EventDao) DeleteStream(ctx context.Context, streamID string) error {
	_, err := dao.client.DeleteStream(ctx, streamID, esdb.DeleteStreamOptions{})
	return err
}

// StreamID 訂單事件寫到 order-<id>, 其他寫到 user-<id>
func StreamID(e evt.Event) string {
	if strings.HasPrefix(string(e.Type()), "Order") {
		return "order-" + e.GetAggregateID()
	}
	return "user-" + e.GetAggregateID()
}

type eventAppender interface {
	AppendEvent(ctx context.Context, streamID, eventType string, data interface{}) error
}

// EventStorePublisher 把領域事件附加到 EventStoreDB, 作為訂單歷程的稽核紀錄
type EventStorePublisher struct {
	dao eventAppender
}

func NewEventStorePublisher(dao eventAppender) *EventStorePublisher {
	return &EventStorePublisher{dao: dao}
}

func (p *EventStorePublisher) Publish(ctx context.Context, events ...evt.Event) error {
	for _, e := range events {
		if err := p.dao.AppendEvent(ctx, StreamID(e), string(e.Type()), e); err != nil {
			return fmt.Errorf("append %s to %s: %w", e.Type(), StreamID(e), err)
		}
	}
	return nil
}
