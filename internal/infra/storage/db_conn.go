package storage

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func PostgresDsn(dbname, host, port, user, pas string) string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable", user, pas, host, port, dbname)
}

// PostgresURL golang-migrate 需要 url 格式
func PostgresURL(dbname, host, port, user, pas string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pas, host, port, dbname)
}

func GetPostgresConn(dbname, host, port, user, pas string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(PostgresDsn(dbname, host, port, user, pas)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStorageUnavailable, err)
	}
	return db, nil
}

func GetMysqlConn(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: mysql dsn is empty", ErrInvalidStorageParam)
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open mysql: %v", ErrStorageUnavailable, err)
	}
	return db, nil
}
