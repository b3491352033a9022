package storage

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound         = errors.New("key not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrUnsupportedDriver   = errors.New("unsupported storage driver")
	ErrInvalidStorageParam = errors.New("invalid storage parameter")
)

// Store key-value 持久化介面
// 每個 value 是一份完整的序列化文件, 不做部分更新
type Store interface {
	// Get key 不存在時回傳 ErrKeyNotFound
	// 後端無法連線時回傳包裝 ErrStorageUnavailable 的錯誤
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete key 不存在不視為錯誤
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
