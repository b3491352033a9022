package kv_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/RoyceAzure/lab/grocery/internal/infra/storage"
)

var ErrCorruptValue = errors.New("stored value is corrupt")

// IIdentityRepository token / user / users 三個 key
type IIdentityRepository interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
	LoadCurrentUser(ctx context.Context) (*model.User, error)
	SaveCurrentUser(ctx context.Context, user model.User) error
	DeleteCurrentUser(ctx context.Context) error
	LoadUsers(ctx context.Context) ([]model.StoredUser, error)
	SaveUsers(ctx context.Context, users []model.StoredUser) error
}

// ICartRepository cart_items key
type ICartRepository interface {
	LoadCartItems(ctx context.Context) ([]model.CartItem, error)
	SaveCartItems(ctx context.Context, items []model.CartItem) error
}

// IOrderRepository user_orders key, 所有使用者的訂單
type IOrderRepository interface {
	LoadOrders(ctx context.Context) ([]model.Order, error)
	SaveOrders(ctx context.Context, orders []model.Order) error
}

// KVRepo 所有狀態容器的 load/save 邊界
// key 不存在時回傳零值, 不視為錯誤
type KVRepo struct {
	store storage.Store
}

func NewKVRepo(store storage.Store) *KVRepo {
	return &KVRepo{store: store}
}

var (
	_ IIdentityRepository = (*KVRepo)(nil)
	_ ICartRepository     = (*KVRepo)(nil)
	_ IOrderRepository    = (*KVRepo)(nil)
)

func (r *KVRepo) LoadToken(ctx context.Context) (string, error) {
	b, err := r.store.Get(ctx, constants.StoreKeyToken)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(b), nil
}

func (r *KVRepo) SaveToken(ctx context.Context, token string) error {
	return r.store.Set(ctx, constants.StoreKeyToken, []byte(token))
}

func (r *KVRepo) DeleteToken(ctx context.Context) error {
	return r.store.Delete(ctx, constants.StoreKeyToken)
}

// LoadCurrentUser 沒有 snapshot 時回傳 nil, nil
func (r *KVRepo) LoadCurrentUser(ctx context.Context) (*model.User, error) {
	var user *model.User
	found, err := loadJSON(ctx, r.store, constants.StoreKeyUser, &user)
	if err != nil || !found {
		return nil, err
	}
	return user, nil
}

func (r *KVRepo) SaveCurrentUser(ctx context.Context, user model.User) error {
	return saveJSON(ctx, r.store, constants.StoreKeyUser, user)
}

func (r *KVRepo) DeleteCurrentUser(ctx context.Context) error {
	return r.store.Delete(ctx, constants.StoreKeyUser)
}

func (r *KVRepo) LoadUsers(ctx context.Context) ([]model.StoredUser, error) {
	var users []model.StoredUser
	if _, err := loadJSON(ctx, r.store, constants.StoreKeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *KVRepo) SaveUsers(ctx context.Context, users []model.StoredUser) error {
	return saveJSON(ctx, r.store, constants.StoreKeyUsers, nonNil(users))
}

func (r *KVRepo) LoadCartItems(ctx context.Context) ([]model.CartItem, error) {
	var items []model.CartItem
	if _, err := loadJSON(ctx, r.store, constants.StoreKeyCartItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *KVRepo) SaveCartItems(ctx context.Context, items []model.CartItem) error {
	return saveJSON(ctx, r.store, constants.StoreKeyCartItems, nonNil(items))
}

func (r *KVRepo) LoadOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if _, err := loadJSON(ctx, r.store, constants.StoreKeyUserOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *KVRepo) SaveOrders(ctx context.Context, orders []model.Order) error {
	return saveJSON(ctx, r.store, constants.StoreKeyUserOrders, nonNil(orders))
}

func loadJSON(ctx context.Context, store storage.Store, key string, out any) (bool, error) {
	b, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptValue, key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, store storage.Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := store.Set(ctx, key, b); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// 空清單存成 [] 而不是 null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
