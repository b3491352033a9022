package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry kv_entries 資料表, 一個 key 一列
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;type:varchar(191)"`
	Value     []byte    `gorm:"column:entry_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// InitMigrate 初始化db schema, 冪等性
// postgres 使用 RunMigration, mysql 使用 gorm AutoMigrate
func (d *DbDao) InitMigrate() error {
	return d.AutoMigrate(&KVEntry{})
}

// DBStore 以 gorm 實作的 Store, postgres 與 mysql 共用
type DBStore struct {
	db *DbDao
}

func NewDBStore(db *DbDao) *DBStore {
	return &DBStore{db: db}
}

var _ Store = (*DBStore)(nil)

func (s *DBStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).First(&entry, "entry_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, wrapDbErr("get", key, err)
	}
	return entry.Value, nil
}

// Set upsert, 同 key 覆蓋
func (s *DBStore) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return wrapDbErr("set", key, err)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&KVEntry{}).Error
	if err != nil {
		return wrapDbErr("delete", key, err)
	}
	return nil
}

func (s *DBStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: db ping: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *DBStore) Close() error {
	sqlDB, err := s.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrapDbErr(op, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("db %s %s: %w", op, key, err)
	}
	return fmt.Errorf("%w: db %s %s: %v", ErrStorageUnavailable, op, key, err)
}
