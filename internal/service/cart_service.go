package service

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ICartService interface {
	// AddItem 同商品累加數量, quantity 為 0 時視為 1, 不檢查庫存
	//
	// 錯誤:
	//   - ErrInvalidQuantity: quantity 為負數
	AddItem(ctx context.Context, product model.Product, quantity int) (model.Cart, error)
	// UpdateQuantity quantity <= 0 時移除, 商品不在購物車內則不做事
	UpdateQuantity(ctx context.Context, productID string, quantity int) (model.Cart, error)
	RemoveItem(ctx context.Context, productID string) (model.Cart, error)
	ClearCart(ctx context.Context) error
	// RemoveOrdered 扣掉已下單的數量, 之後才加入的商品與數量保留
	RemoveOrdered(ctx context.Context, ordered []model.CartItem) (model.Cart, error)
	GetCart(ctx context.Context) model.Cart
	GetItemCount(ctx context.Context) int
}

type CartService struct {
	mu     sync.RWMutex
	repo   kv_repo.ICartRepository
	logger zerolog.Logger
	newID  func() string
	items  []model.CartItem
}

type CartOption func(*CartService)

func WithCartLogger(logger zerolog.Logger) CartOption {
	return func(s *CartService) {
		s.logger = logger
	}
}

func WithCartIDGenerator(newID func() string) CartOption {
	return func(s *CartService) {
		s.newID = newID
	}
}

func NewCartService(ctx context.Context, repo kv_repo.ICartRepository, opts ...CartOption) *CartService {
	if repo == nil {
		panic("cart repository cannot be nil")
	}
	s := &CartService{
		repo:   repo,
		logger: zerolog.Nop(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	items, err := repo.LoadCartItems(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("load cart items failed, start with empty cart")
	}
	s.items = items
	return s
}

var _ ICartService = (*CartService)(nil)

func (s *CartService) AddItem(ctx context.Context, product model.Product, quantity int) (model.Cart, error) {
	if quantity < 0 {
		return model.Cart{}, ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.copyItems()
	found := false
	for i := range items {
		if items[i].Product.ID == product.ID {
			items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, model.CartItem{
			ID:       s.newID(),
			Product:  product,
			Quantity: quantity,
		})
	}

	if err := s.commit(ctx, items); err != nil {
		return model.Cart{}, err
	}
	return model.NewCart(s.items), nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, productID string, quantity int) (model.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.copyItems()
	found := false
	for i := range items {
		if items[i].Product.ID == productID {
			items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return model.NewCart(s.items), nil
	}

	if err := s.commit(ctx, items); err != nil {
		return model.Cart{}, err
	}
	return model.NewCart(s.items), nil
}

func (s *CartService) RemoveItem(ctx context.Context, productID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.CartItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}
	if len(items) == len(s.items) {
		return model.NewCart(s.items), nil
	}

	if err := s.commit(ctx, items); err != nil {
		return model.Cart{}, err
	}
	return model.NewCart(s.items), nil
}

func (s *CartService) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, []model.CartItem{})
}

func (s *CartService) RemoveOrdered(ctx context.Context, ordered []model.CartItem) (model.Cart, error) {
	if len(ordered) == 0 {
		return s.GetCart(ctx), nil
	}
	quantities := make(map[string]int, len(ordered))
	for _, item := range ordered {
		quantities[item.Product.ID] += item.Quantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.CartItem, 0, len(s.items))
	for _, item := range s.items {
		item.Quantity -= quantities[item.Product.ID]
		if item.Quantity > 0 {
			items = append(items, item)
		}
	}

	if err := s.commit(ctx, items); err != nil {
		return model.Cart{}, err
	}
	return model.NewCart(s.items), nil
}

func (s *CartService) GetCart(ctx context.Context) model.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NewCart(s.items)
}

func (s *CartService) GetItemCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// commit 存檔成功後才替換記憶體中的清單, 呼叫端需持有寫鎖
func (s *CartService) commit(ctx context.Context, items []model.CartItem) error {
	if err := s.repo.SaveCartItems(ctx, items); err != nil {
		s.logger.Error().Err(err).Msg("save cart items failed")
		return err
	}
	s.items = items
	return nil
}

func (s *CartService) copyItems() []model.CartItem {
	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)
	return items
}
