package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/RoyceAzure/lab/grocery/internal/infra/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testTokenSecret = "grocery-test-secret"

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// flakyStore 可以讓寫入失敗, 模擬 storage 無法使用
type flakyStore struct {
	*storage.MemoryStore
	failSet atomic.Bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: storage.NewMemoryStore()}
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet.Load() {
		return storage.ErrStorageUnavailable
	}
	return f.MemoryStore.Set(ctx, key, value)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []evt.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...evt.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Types() []evt.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]evt.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type())
	}
	return types
}

// blockingPublisher 在 release 關閉前不回傳, 並記錄收到的 ctx 狀態
type blockingPublisher struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
	once    sync.Once
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (p *blockingPublisher) Publish(ctx context.Context, events ...evt.Event) error {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	select {
	case p.ctxErr <- ctx.Err():
	default:
	}
	return nil
}

// waitStarted 等待 publisher 被呼叫
func (p *blockingPublisher) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher was never called")
	}
}

func newTestTokenMaker(t *testing.T) *JWTMaker {
	maker, err := NewJWTMaker(testTokenSecret)
	require.NoError(t, err)
	return maker
}

func newTestIdentity(t *testing.T, store storage.Store, opts ...IdentityOption) *IdentityService {
	opts = append([]IdentityOption{
		WithIdentityLatency(0),
		WithIdentityClock(func() time.Time { return testNow }),
	}, opts...)
	return NewIdentityService(context.Background(), kv_repo.NewKVRepo(store), PlainHasher{}, newTestTokenMaker(t), opts...)
}

func newTestOrders(store storage.Store, identity IIdentityService, opts ...OrderOption) *OrderService {
	opts = append([]OrderOption{
		WithOrderLatency(0),
		WithOrderClock(func() time.Time { return testNow }),
	}, opts...)
	return NewOrderService(context.Background(), kv_repo.NewKVRepo(store), identity, opts...)
}

func testProduct(id string, price, original int64) model.Product {
	return model.Product{
		ID:            id,
		Name:          "Product " + id,
		Price:         decimal.NewFromInt(price),
		OriginalPrice: decimal.NewFromInt(original),
		Category:      "fruits",
		Stock:         10,
		InStock:       true,
	}
}

func orderParams(finalTotal int64) CreateOrderParams {
	total := decimal.NewFromInt(finalTotal)
	return CreateOrderParams{
		Items: []model.OrderItem{
			{ID: "item-1", ProductID: "1", Name: "Product 1", Price: total, Quantity: 1},
		},
		Subtotal:      total,
		DeliveryFee:   decimal.Zero,
		Discount:      decimal.Zero,
		Total:         total,
		FinalTotal:    total,
		PaymentMethod: model.PaymentMethodCOD,
	}
}

// sequenceNumbers 依序回傳固定的訂單編號, 用完後重複最後一個
func sequenceNumbers(numbers ...string) func(time.Time) string {
	var i int
	var mu sync.Mutex
	return func(time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		n := numbers[i]
		if i < len(numbers)-1 {
			i++
		}
		return n
	}
}
