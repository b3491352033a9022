package service

import (
	"context"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type EventPublisher interface {
	Publish(ctx context.Context, events ...evt.Event) error
}

// MultiPublisher 併發送到所有 publisher, 回傳第一個錯誤
// 單一 publisher 失敗不會取消其他 publisher
type MultiPublisher struct {
	publishers []EventPublisher
}

func NewMultiPublisher(publishers ...EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

func (m *MultiPublisher) Add(p EventPublisher) {
	m.publishers = append(m.publishers, p)
}

func (m *MultiPublisher) Publish(ctx context.Context, events ...evt.Event) error {
	if len(events) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, p := range m.publishers {
		g.Go(func() error {
			return p.Publish(ctx, events...)
		})
	}
	return g.Wait()
}

type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Publish(ctx context.Context, events ...evt.Event) error {
	for _, e := range events {
		l.logger.Info().
			Str("event_id", e.GetID()).
			Str("event_type", string(e.Type())).
			Str("aggregate_id", e.GetAggregateID()).
			Msg("domain event")
	}
	return nil
}

// publishEvents 狀態已經寫入, 發布失敗只記錄不回滾
// 呼叫端不可持有 service 的鎖; request 取消不影響發布
func publishEvents(ctx context.Context, p EventPublisher, logger zerolog.Logger, events ...evt.Event) {
	if p == nil || len(events) == 0 {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.EventPublishTimeout)
	defer cancel()
	if err := p.Publish(pctx, events...); err != nil {
		logger.Warn().Err(err).Int("events", len(events)).Msg("publish events failed")
	}
}
